// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/sst-go/pkg/dgram"
	"github.com/dtn7/sst-go/pkg/httpsst"
	"github.com/dtn7/sst-go/pkg/sched"
)

// statusResponse is the reply to /status GET requests.
type statusResponse struct {
	Started   time.Time `json:"started"`
	Uptime    string    `json:"uptime"`
	Listeners []string  `json:"listeners"`
	Peers     int       `json:"peers"`
}

// statusAgent serves the server's state as JSON.
type statusAgent struct {
	router *mux.Router
	loop   *sched.Loop
	server *httpsst.Server

	listeners []dgram.Listener
	started   time.Time
}

// newStatusAgent registers the /status endpoints on the router.
func newStatusAgent(router *mux.Router, loop *sched.Loop, server *httpsst.Server, listeners []dgram.Listener) (sa *statusAgent) {
	sa = &statusAgent{
		router:    router,
		loop:      loop,
		server:    server,
		listeners: listeners,
		started:   time.Now(),
	}

	sa.router.HandleFunc("/status", sa.handleStatus).Methods(http.MethodGet)
	sa.router.HandleFunc("/status/peers", sa.handlePeers).Methods(http.MethodGet)

	return sa
}

// peers fetches the peers' status from within the loop.
func (sa *statusAgent) peers() (peers []httpsst.PeerStatus, ok bool) {
	ok = sa.loop.Do(func() {
		peers = sa.server.Peers()
	})
	return
}

func (sa *statusAgent) writeJson(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to write status response")
	}
}

// handleStatus processes /status GET requests.
func (sa *statusAgent) handleStatus(w http.ResponseWriter, _ *http.Request) {
	peers, ok := sa.peers()
	if !ok {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	resp := statusResponse{
		Started: sa.started,
		Uptime:  time.Since(sa.started).Round(time.Second).String(),
		Peers:   len(peers),
	}
	for _, l := range sa.listeners {
		resp.Listeners = append(resp.Listeners, l.Addr())
	}

	sa.writeJson(w, resp)
}

// handlePeers processes /status/peers GET requests.
func (sa *statusAgent) handlePeers(w http.ResponseWriter, _ *http.Request) {
	peers, ok := sa.peers()
	if !ok {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	sa.writeJson(w, peers)
}
