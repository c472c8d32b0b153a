// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package udp

import (
	"fmt"
	"net"
	"runtime"

	"github.com/hashicorp/go-multierror"

	"github.com/dtn7/sst-go/pkg/dgram"
)

// MaxDatagramSize is the largest UDP payload over IPv4.
const MaxDatagramSize = dgram.MaxDatagramSize

// Config for UDP sockets.
type Config struct {
	// ReadBuffer and WriteBuffer set the socket buffer sizes in bytes. Zero
	// keeps the system default.
	ReadBuffer  int
	WriteBuffer int

	// MaxDatagramSize limits outgoing datagrams. Zero means MaxDatagramSize.
	MaxDatagramSize int
}

// CheckValid returns an error for each invalid field.
func (c Config) CheckValid() (errs error) {
	if c.ReadBuffer < 0 {
		errs = multierror.Append(errs, fmt.Errorf("udp: negative read buffer %d", c.ReadBuffer))
	}
	if c.WriteBuffer < 0 {
		errs = multierror.Append(errs, fmt.Errorf("udp: negative write buffer %d", c.WriteBuffer))
	}
	if c.MaxDatagramSize < 0 || c.MaxDatagramSize > MaxDatagramSize {
		errs = multierror.Append(errs, fmt.Errorf("udp: datagram size %d not within [0, %d]", c.MaxDatagramSize, MaxDatagramSize))
	}
	return
}

func (c Config) maxSize() int {
	if c.MaxDatagramSize == 0 {
		return MaxDatagramSize
	}
	return c.MaxDatagramSize
}

// applyBuffers sets the buffer sizes where no Control function did so.
func (c Config) applyBuffers(conn *net.UDPConn) error {
	if runtime.GOOS == "linux" {
		return nil
	}
	if c.ReadBuffer > 0 {
		if err := conn.SetReadBuffer(c.ReadBuffer); err != nil {
			return err
		}
	}
	if c.WriteBuffer > 0 {
		if err := conn.SetWriteBuffer(c.WriteBuffer); err != nil {
			return err
		}
	}
	return nil
}
