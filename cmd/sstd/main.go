// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// sstd answers HTTP requests over SST for each configured substrate.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dtn7/sst-go/pkg/httpsst"
	"github.com/dtn7/sst-go/pkg/sched"
)

// loopQueueSize is the initial capacity of the event queue.
const loopQueueSize = 1024

// waitSigint blocks the current thread until a SIGINT appears.
func waitSigint() {
	signalSyn := make(chan os.Signal, 1)
	signalAck := make(chan struct{})

	signal.Notify(signalSyn, os.Interrupt)

	go func() {
		<-signalSyn
		close(signalAck)
	}()

	<-signalAck
}

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("Usage: %s configuration.toml", os.Args[0])
	}

	dc, err := parseDaemon(os.Args[1])
	if err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Fatal("Failed to parse config")
	}

	loop := sched.NewLoop(loopQueueSize)

	server, err := httpsst.NewServer(dc.server, loop)
	if err != nil {
		log.WithError(err).Fatal("Failed to create server")
	}

	for _, l := range dc.listeners {
		go server.Serve(l)
	}

	var httpServer *http.Server
	if dc.router != nil {
		newStatusAgent(dc.router, loop, server, dc.listeners)

		httpServer = &http.Server{
			Addr:              dc.status,
			Handler:           dc.router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Status HTTP server errored")
			}
		}()

		log.WithField("address", dc.status).Info("Started status API")
	}

	waitSigint()
	log.Info("Shutting down..")

	for _, l := range dc.listeners {
		if err := l.Close(); err != nil {
			log.WithFields(log.Fields{
				"listener": l.Addr(),
				"error":    err,
			}).Warn("Failed to close listener")
		}
	}

	if httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = httpServer.Shutdown(ctx)
		cancel()
	}

	loop.Do(func() {
		if err := server.Close(); err != nil {
			log.WithError(err).Warn("Failed to close server")
		}
	})
	_ = loop.Close()
}
