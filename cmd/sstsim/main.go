// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// sstsim loads a web workload over SST and records each page's load time.
//
// By default, client and server are connected by a simulated link and the
// run happens in virtual time. With a [remote] block, the client talks to a
// sstd in real time.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/sst-go/pkg/dgram"
	"github.com/dtn7/sst-go/pkg/dgram/quicdg"
	"github.com/dtn7/sst-go/pkg/dgram/simlink"
	"github.com/dtn7/sst-go/pkg/dgram/udp"
	"github.com/dtn7/sst-go/pkg/dgram/wsdg"
	"github.com/dtn7/sst-go/pkg/httpsst"
	"github.com/dtn7/sst-go/pkg/results"
	"github.com/dtn7/sst-go/pkg/sched"
)

// recorder turns finished pages into PageRecords and stores them.
type recorder struct {
	run      string
	strategy string
	store    *results.Store

	records []results.PageRecord
}

func (r *recorder) onPage(pr httpsst.PageResult) {
	record := results.NewPageRecord(r.run, r.strategy, pr)
	r.records = append(r.records, record)

	if r.store == nil {
		return
	}
	if err := r.store.Push(record); err != nil {
		log.WithFields(log.Fields{
			"record": record.String(),
			"error":  err,
		}).Warn("Failed to store page record")
	}
}

// simulate the run on a sched.Sim.
func simulate(s setup, rec *recorder) (errs error) {
	sim := sched.NewSim(time.Time{})
	start := sim.Now()

	link, err := simlink.New(sim, s.link, "client", "server")
	if err != nil {
		return err
	}

	server, err := httpsst.NewServer(s.server, sim)
	if err != nil {
		return err
	}
	sim.Schedule(s.serverStart, func() {
		if err := server.AddConn(link.B()); err != nil {
			log.WithError(err).Error("Failed to start server")
		}
	})

	client, err := httpsst.NewClient(s.client, sim, link.A())
	if err != nil {
		return err
	}
	client.OnPage(rec.onPage)
	sim.Schedule(s.clientStart, func() {
		if err := client.Start(s.pages); err != nil {
			log.WithError(err).Error("Failed to start client")
		}
	})

	sim.RunUntil(start.Add(s.duration))

	if !client.Finished() {
		log.WithFields(log.Fields{
			"duration": s.duration,
			"finished": len(client.Results()),
			"pages":    len(s.pages),
		}).Warn("Simulation time is over before all pages were loaded")
	}

	log.WithFields(log.Fields{
		"client": client.Channel().Stats().String(),
		"server": fmt.Sprintf("%v", server.Peers()),
		"link":   fmt.Sprintf("%+v / %+v", link.A().Stats(), link.B().Stats()),
	}).Info("Simulation finished")

	if err := client.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := server.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return
}

// dial the remote sstd.
func dial(rc remoteConf) (dgram.Conn, error) {
	switch rc.Protocol {
	case "udp":
		return udp.Dial(rc.Endpoint, udp.Config{})
	case "quic":
		return quicdg.Dial(rc.Endpoint, quicdg.DefaultConfig())
	case "ws":
		return wsdg.Dial(rc.Endpoint)
	default:
		return nil, fmt.Errorf("unknown protocol %q", rc.Protocol)
	}
}

// remote runs the client in real time against a sstd.
func remote(s setup, rec *recorder) (errs error) {
	conn, err := dial(s.remote)
	if err != nil {
		return err
	}

	loop := sched.NewLoop(256)
	defer loop.Close()

	var client *httpsst.Client
	loop.Do(func() {
		if client, err = httpsst.NewClient(s.client, loop, conn); err != nil {
			return
		}
		client.OnPage(rec.onPage)
		err = client.Start(s.pages)
	})
	if err != nil {
		_ = conn.Close()
		return err
	}

	signalSyn := make(chan os.Signal, 1)
	signal.Notify(signalSyn, os.Interrupt)
	defer signal.Stop(signalSyn)

	select {
	case <-client.Done():
		log.Info("Client loaded all pages")
	case <-signalSyn:
		log.Info("Interrupted, shutting down..")
	case <-time.After(s.duration):
		log.WithField("duration", s.duration).Warn("Run time is over before all pages were loaded")
	}

	loop.Do(func() {
		log.WithField("client", client.Channel().Stats().String()).Info("Run finished")
		if err := client.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	})
	return
}

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("Usage: %s configuration.toml", os.Args[0])
	}

	s, err := parseSetup(os.Args[1])
	if err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Fatal("Failed to parse config")
	}

	rec := &recorder{run: s.run, strategy: s.strategy}
	if s.store != "" {
		if rec.store, err = results.NewStore(s.store); err != nil {
			log.WithFields(log.Fields{
				"store": s.store,
				"error": err,
			}).Fatal("Failed to open result store")
		}
		defer rec.store.Close()

		if err := rec.store.Delete(s.run); err != nil {
			log.WithError(err).Warn("Failed to remove previous records of this run")
		}
	}

	log.WithFields(log.Fields{
		"run":      s.run,
		"strategy": s.strategy,
		"pages":    len(s.pages),
		"remote":   s.remote.Protocol,
	}).Info("Starting run")

	if s.remote.Protocol == "" {
		err = simulate(s, rec)
	} else {
		err = remote(s, rec)
	}
	if err != nil {
		log.WithError(err).Error("Run errored")
	}

	if s.export != "" {
		if err := exportRecords(s.export, rec.records); err != nil {
			log.WithFields(log.Fields{
				"file":  s.export,
				"error": err,
			}).Error("Failed to export page records")
		}
	}

	log.WithFields(log.Fields{
		"run":     s.run,
		"summary": results.Summarize(rec.records).String(),
	}).Info("Page load times")
}

// exportRecords writes records as CBOR to a file.
func exportRecords(filename string, records []results.PageRecord) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr)
		}
	}()

	return results.WriteCbor(f, records)
}
