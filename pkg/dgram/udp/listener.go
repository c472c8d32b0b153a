// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package udp

import (
	"context"
	"errors"
	"net"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/dtn7/sst-go/pkg/dgram"
)

// acceptQueueSize bounds the number of new peers waiting to be accepted.
const acceptQueueSize = 16

// Listener demultiplexes datagrams on one UDP socket by their source address.
// Each new source address is announced as a Conn.
type Listener struct {
	sock    *net.UDPConn
	maxSize int

	mutex sync.Mutex
	conns map[string]*Conn

	accept chan dgram.Conn

	closeOnce sync.Once
	stopSyn   chan struct{}
	stopAck   chan struct{}
}

// Listen on a local UDP address, e.g., ":8080".
func Listen(address string, config Config) (*Listener, error) {
	if err := config.CheckValid(); err != nil {
		return nil, err
	}

	lc := net.ListenConfig{Control: config.control()}
	packetConn, err := lc.ListenPacket(context.Background(), "udp", address)
	if err != nil {
		return nil, err
	}

	sock := packetConn.(*net.UDPConn)
	if err := config.applyBuffers(sock); err != nil {
		_ = sock.Close()
		return nil, err
	}

	l := &Listener{
		sock:    sock,
		maxSize: config.maxSize(),
		conns:   make(map[string]*Conn),
		accept:  make(chan dgram.Conn, acceptQueueSize),
		stopSyn: make(chan struct{}),
		stopAck: make(chan struct{}),
	}
	go l.handler()

	log.WithField("address", l.Addr()).Info("Started UDP listener")
	return l, nil
}

func (l *Listener) handler() {
	defer func() {
		close(l.accept)
		close(l.stopAck)
	}()

	buf := make([]byte, MaxDatagramSize+1)
	for {
		n, addr, err := l.sock.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-l.stopSyn:
				return
			default:
			}

			if errors.Is(err, net.ErrClosed) {
				return
			}

			log.WithFields(log.Fields{
				"address": l.Addr(),
				"error":   err,
			}).Warn("UDP listener failed to read")
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		conn, isNew := l.lookup(addr)
		if isNew {
			select {
			case l.accept <- conn:
				log.WithFields(log.Fields{
					"address": l.Addr(),
					"peer":    conn.String(),
				}).Debug("UDP listener accepted new peer")

			case <-l.stopSyn:
				return
			}
		}

		conn.slot.Deliver(data)
	}
}

func (l *Listener) lookup(addr *net.UDPAddr) (conn *Conn, isNew bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	key := addr.String()
	if conn, ok := l.conns[key]; ok {
		return conn, false
	}

	conn = &Conn{
		sock:     l.sock,
		remote:   addr,
		listener: l,
		maxSize:  l.maxSize,
	}
	l.conns[key] = conn
	return conn, true
}

func (l *Listener) forget(c *Conn) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.conns[c.remote.String()] == c {
		delete(l.conns, c.remote.String())
	}
}

// Accept delivers a Conn for each new peer.
func (l *Listener) Accept() <-chan dgram.Conn {
	return l.accept
}

// Addr is the local address, e.g., "[::]:35127".
func (l *Listener) Addr() string {
	return l.sock.LocalAddr().String()
}

// Close the socket and all of its Conns.
func (l *Listener) Close() (err error) {
	l.closeOnce.Do(func() {
		close(l.stopSyn)
		err = l.sock.Close()
		<-l.stopAck

		l.mutex.Lock()
		for key, conn := range l.conns {
			conn.closed.Store(true)
			delete(l.conns, key)
		}
		l.mutex.Unlock()

		log.WithField("address", l.Addr()).Info("Closed UDP listener")
	})
	return
}

var _ dgram.Listener = (*Listener)(nil)
