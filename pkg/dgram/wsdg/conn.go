// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package wsdg

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/sst-go/pkg/dgram"
)

const (
	// MaxMessageSize limits a datagram, i.e., one binary WebSocket message.
	MaxMessageSize = 1 << 16

	// outQueueSize is the number of datagrams waiting to be written. Further
	// datagrams are dropped, as a router would do.
	outQueueSize = 64

	writeTimeout = 5 * time.Second
)

// Conn maps each datagram to one binary WebSocket message.
//
// WebSocket runs over TCP, so datagrams are neither lost nor reordered, except
// when the outgoing queue overflows.
type Conn struct {
	conn *websocket.Conn
	name string

	slot    dgram.Slot
	outChan chan []byte

	// finished is accessed by sync.atomic functions; zero means running
	finished uint32

	closeOnce sync.Once
	stopSyn   chan struct{}
	wg        sync.WaitGroup
}

// Dial a WebSocket Listener, e.g., "ws://localhost:8080/sst".
func Dial(url string) (*Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	c := newConn(conn, "ws://"+conn.RemoteAddr().String())
	log.WithField("conn", c.String()).Debug("Dialed WebSocket peer")
	return c, nil
}

func newConn(conn *websocket.Conn, name string) *Conn {
	conn.SetReadLimit(MaxMessageSize)

	c := &Conn{
		conn:    conn,
		name:    name,
		outChan: make(chan []byte, outQueueSize),
		stopSyn: make(chan struct{}),
	}

	c.wg.Add(2)
	go c.handleIn()
	go c.handleOut()

	return c
}

func (c *Conn) isFinished() bool {
	return atomic.LoadUint32(&c.finished) != 0
}

func (c *Conn) fail(err error) {
	if atomic.CompareAndSwapUint32(&c.finished, 0, 1) {
		log.WithFields(log.Fields{
			"conn":  c.String(),
			"error": err,
		}).Debug("WebSocket conn failed")

		_ = c.conn.Close()
	}
}

func (c *Conn) handleIn() {
	defer c.wg.Done()

	for !c.isFinished() {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(err)
			return
		}

		if mt != websocket.BinaryMessage {
			log.WithFields(log.Fields{
				"conn": c.String(),
				"type": mt,
			}).Debug("Dropping non-binary WebSocket message")
			continue
		}

		c.slot.Deliver(data)
	}
}

func (c *Conn) handleOut() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopSyn:
			return

		case data := <-c.outChan:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				c.fail(err)
				return
			}
		}
	}
}

// Send b as one binary message. The write happens asynchronously.
func (c *Conn) Send(b []byte) error {
	if c.isFinished() {
		return dgram.ErrClosed
	}
	if len(b) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes exceed %d", dgram.ErrTooLarge, len(b), MaxMessageSize)
	}

	data := make([]byte, len(b))
	copy(data, b)

	select {
	case c.outChan <- data:
	default:
		log.WithField("conn", c.String()).Debug("Dropping datagram at full WebSocket queue")
	}
	return nil
}

// SetReceiver for datagrams from the peer.
func (c *Conn) SetReceiver(r dgram.Receiver) {
	c.slot.SetReceiver(r)
}

// Close the WebSocket connection after sending a close message.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopSyn)

		if atomic.CompareAndSwapUint32(&c.finished, 0, 1) {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			_ = c.conn.Close()
		}
	})

	c.wg.Wait()
	return nil
}

func (c *Conn) String() string {
	return c.name
}

var _ dgram.Conn = (*Conn)(nil)
