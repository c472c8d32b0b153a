// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package quicdg

import (
	"context"
	"errors"
	"sync"

	"github.com/quic-go/quic-go"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/sst-go/pkg/dgram"
)

// Listener accepts QUIC connections. Each connection becomes one Conn.
type Listener struct {
	listener *quic.Listener
	accept   chan dgram.Conn

	mutex sync.Mutex
	conns []*Conn

	closeOnce sync.Once
	stopSyn   chan struct{}
	stopAck   chan struct{}
}

// Listen on a local UDP address with a fresh self-signed certificate.
func Listen(address string, config Config) (*Listener, error) {
	tlsConf, err := ListenerTLSConfig()
	if err != nil {
		return nil, err
	}

	ln, err := quic.ListenAddr(address, tlsConf, config.quicConfig())
	if err != nil {
		log.WithFields(log.Fields{
			"address": address,
			"error":   err,
		}).Error("Error creating QUIC listener")
		return nil, err
	}

	l := &Listener{
		listener: ln,
		accept:   make(chan dgram.Conn),
		stopSyn:  make(chan struct{}),
		stopAck:  make(chan struct{}),
	}
	go l.handler()

	log.WithField("address", l.Addr()).Info("Started QUIC listener")
	return l, nil
}

func (l *Listener) handler() {
	defer func() {
		close(l.accept)
		close(l.stopAck)
	}()

	for {
		connection, err := l.listener.Accept(context.Background())
		if err != nil {
			if errors.Is(err, quic.ErrServerClosed) {
				return
			}

			select {
			case <-l.stopSyn:
				return
			default:
			}

			log.WithFields(log.Fields{
				"address": l.Addr(),
				"error":   err,
			}).Error("Unknown error accepting QUIC connection")
			continue
		}

		if !connection.ConnectionState().SupportsDatagrams {
			log.WithFields(log.Fields{
				"address": l.Addr(),
				"peer":    connection.RemoteAddr(),
			}).Warn("QUIC listener rejects peer without datagram support")
			_ = connection.CloseWithError(ApplicationShutdown, "datagrams are required")
			continue
		}

		conn := newConn(connection)
		l.mutex.Lock()
		l.conns = append(l.conns, conn)
		l.mutex.Unlock()

		log.WithFields(log.Fields{
			"address": l.Addr(),
			"peer":    conn.String(),
		}).Info("QUIC listener accepted new connection")

		select {
		case l.accept <- conn:
		case <-l.stopSyn:
			_ = conn.Close()
			return
		}
	}
}

// Accept delivers a Conn for each new QUIC connection.
func (l *Listener) Accept() <-chan dgram.Conn {
	return l.accept
}

// Addr is the local UDP address.
func (l *Listener) Addr() string {
	return l.listener.Addr().String()
}

// Close the Listener and every accepted connection.
func (l *Listener) Close() (err error) {
	l.closeOnce.Do(func() {
		close(l.stopSyn)
		err = l.listener.Close()
		<-l.stopAck

		l.mutex.Lock()
		for _, conn := range l.conns {
			conn.closeOnce.Do(func() {
				conn.closed.Store(true)
				_ = conn.connection.CloseWithError(ListenerShutdown, "listener closed")
				<-conn.stopAck
			})
		}
		l.conns = nil
		l.mutex.Unlock()

		log.WithField("address", l.Addr()).Info("Closed QUIC listener")
	})
	return
}

var _ dgram.Listener = (*Listener)(nil)
