// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dtn7/sst-go/pkg/dgram"
)

// Conn is a UDP association with one peer. It is either dialed, owning a
// connected socket, or created by a Listener, sharing its socket.
type Conn struct {
	sock     *net.UDPConn
	remote   *net.UDPAddr
	listener *Listener
	maxSize  int

	slot   dgram.Slot
	closed atomic.Bool

	closeOnce sync.Once
	stopAck   chan struct{}
}

// Dial a UDP peer.
func Dial(address string, config Config) (*Conn, error) {
	if err := config.CheckValid(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	dialer := &net.Dialer{Control: config.control()}
	netConn, err := dialer.DialContext(ctx, "udp", address)
	if err != nil {
		return nil, err
	}

	sock := netConn.(*net.UDPConn)
	if err := config.applyBuffers(sock); err != nil {
		_ = sock.Close()
		return nil, err
	}

	c := &Conn{
		sock:    sock,
		remote:  sock.RemoteAddr().(*net.UDPAddr),
		maxSize: config.maxSize(),
		stopAck: make(chan struct{}),
	}
	go c.handler()

	log.WithField("conn", c.String()).Debug("Dialed UDP peer")
	return c, nil
}

func (c *Conn) handler() {
	defer close(c.stopAck)

	buf := make([]byte, MaxDatagramSize+1)
	for {
		n, err := c.sock.Read(buf)
		if err != nil {
			if c.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}

			// ICMP errors, e.g., port unreachable, surface on connected sockets.
			log.WithFields(log.Fields{
				"conn":  c.String(),
				"error": err,
			}).Debug("UDP read failed")
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		c.slot.Deliver(data)
	}
}

// Send b to the peer.
func (c *Conn) Send(b []byte) (err error) {
	if c.closed.Load() {
		return dgram.ErrClosed
	}
	if len(b) > c.maxSize {
		return fmt.Errorf("%w: %d bytes exceed %d", dgram.ErrTooLarge, len(b), c.maxSize)
	}

	if c.listener == nil {
		_, err = c.sock.Write(b)
	} else {
		_, err = c.sock.WriteToUDP(b, c.remote)
	}
	return
}

// SetReceiver for datagrams from the peer.
func (c *Conn) SetReceiver(r dgram.Receiver) {
	c.slot.SetReceiver(r)
}

// RemoteAddr of the peer.
func (c *Conn) RemoteAddr() net.Addr {
	return c.remote
}

// Close this Conn. A dialed Conn closes its socket, a Listener's Conn is
// forgotten by the Listener and will be accepted anew on the next datagram.
func (c *Conn) Close() (err error) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		if c.listener != nil {
			c.listener.forget(c)
			return
		}

		err = c.sock.Close()
		<-c.stopAck
	})
	return
}

func (c *Conn) String() string {
	return fmt.Sprintf("udp://%v", c.remote)
}

var _ dgram.Conn = (*Conn)(nil)
