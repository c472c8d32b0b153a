// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package wsdg

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/sst-go/pkg/dgram"
)

// Listener is a http.Handler, upgrading each request to a WebSocket Conn.
// It has to be mounted on some http.Server, e.g., on a mux.Router.
type Listener struct {
	addr     string
	upgrader websocket.Upgrader
	accept   chan dgram.Conn

	mutex   sync.Mutex
	closed  bool
	stopSyn chan struct{}
	wg      sync.WaitGroup
}

// NewListener for connections reaching the handler at addr. The address is
// only used for descriptions.
func NewListener(addr string) *Listener {
	return &Listener{
		addr:     addr,
		upgrader: websocket.Upgrader{},
		accept:   make(chan dgram.Conn),
		stopSyn:  make(chan struct{}),
	}
}

// ServeHTTP upgrades a HTTP connection to a WebSocket Conn.
func (l *Listener) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	l.mutex.Lock()
	if l.closed {
		l.mutex.Unlock()
		http.Error(writer, "listener closed", http.StatusServiceUnavailable)
		return
	}
	l.wg.Add(1)
	l.mutex.Unlock()
	defer l.wg.Done()

	wsConn, err := l.upgrader.Upgrade(writer, request, nil)
	if err != nil {
		log.WithFields(log.Fields{
			"listener": l.addr,
			"error":    err,
		}).Warn("Upgrading connection errored")
		return
	}

	conn := newConn(wsConn, "ws://"+wsConn.RemoteAddr().String())
	log.WithFields(log.Fields{
		"listener": l.addr,
		"peer":     conn.String(),
	}).Info("WebSocket listener accepted new connection")

	select {
	case l.accept <- conn:
	case <-l.stopSyn:
		_ = conn.Close()
	}
}

// Accept delivers a Conn for each upgraded request.
func (l *Listener) Accept() <-chan dgram.Conn {
	return l.accept
}

// Addr as passed to NewListener.
func (l *Listener) Addr() string {
	return l.addr
}

// Close the Listener. Already accepted Conns stay open.
func (l *Listener) Close() error {
	l.mutex.Lock()
	if l.closed {
		l.mutex.Unlock()
		return nil
	}
	l.closed = true
	close(l.stopSyn)
	l.mutex.Unlock()

	l.wg.Wait()
	close(l.accept)
	return nil
}

var _ dgram.Listener = (*Listener)(nil)
var _ http.Handler = (*Listener)(nil)
