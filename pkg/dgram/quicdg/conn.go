// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package quicdg

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/quic-go/quic-go"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/sst-go/pkg/dgram"
)

// Conn sends each datagram as an unreliable QUIC DATAGRAM frame.
type Conn struct {
	connection quic.Connection
	slot       dgram.Slot
	closed     atomic.Bool

	closeOnce sync.Once
	stopAck   chan struct{}
}

// Dial a QUIC peer. The handshake is limited by the Config's HandshakeTimeout.
func Dial(address string, config Config) (*Conn, error) {
	timeout := config.HandshakeTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().HandshakeTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	connection, err := quic.DialAddr(ctx, address, DialerTLSConfig(), config.quicConfig())
	if err != nil {
		return nil, err
	}
	if !connection.ConnectionState().SupportsDatagrams {
		_ = connection.CloseWithError(ApplicationShutdown, "datagrams are required")
		return nil, fmt.Errorf("quicdg: peer %v does not support datagrams", connection.RemoteAddr())
	}

	c := newConn(connection)
	log.WithField("conn", c.String()).Debug("Dialed QUIC peer")
	return c, nil
}

func newConn(connection quic.Connection) *Conn {
	c := &Conn{
		connection: connection,
		stopAck:    make(chan struct{}),
	}
	go c.handler()
	return c
}

func (c *Conn) handler() {
	defer close(c.stopAck)

	for {
		data, err := c.connection.ReceiveDatagram(context.Background())
		if err != nil {
			var appErr *quic.ApplicationError
			var netErr net.Error

			switch {
			case c.closed.Load():

			case errors.As(err, &appErr):
				log.WithFields(log.Fields{
					"conn":       c.String(),
					"remote":     appErr.Remote,
					"error code": appErr.ErrorCode,
					"error msg":  appErr.ErrorMessage,
				}).Debug("QUIC connection closed")

			case errors.As(err, &netErr) && netErr.Timeout():
				log.WithField("conn", c.String()).Debug("QUIC peer timed out")

			default:
				log.WithFields(log.Fields{
					"conn":  c.String(),
					"error": err,
				}).Warn("QUIC connection failed")
			}

			c.closed.Store(true)
			return
		}

		c.slot.Deliver(data)
	}
}

// Send b as a QUIC datagram.
func (c *Conn) Send(b []byte) error {
	if c.closed.Load() {
		return dgram.ErrClosed
	}

	err := c.connection.SendDatagram(b)
	var tooLarge *quic.DatagramTooLargeError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: %d bytes exceed %d", dgram.ErrTooLarge, len(b), tooLarge.MaxDatagramPayloadSize)
	}
	return err
}

// SetReceiver for datagrams from the peer.
func (c *Conn) SetReceiver(r dgram.Receiver) {
	c.slot.SetReceiver(r)
}

// RemoteAddr of the peer.
func (c *Conn) RemoteAddr() net.Addr {
	return c.connection.RemoteAddr()
}

// Close the QUIC connection.
func (c *Conn) Close() (err error) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.connection.CloseWithError(ApplicationShutdown, "conn closed")
		<-c.stopAck
	})
	return
}

func (c *Conn) String() string {
	return fmt.Sprintf("quic://%v", c.connection.RemoteAddr())
}

var _ dgram.Conn = (*Conn)(nil)
