// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/sst-go/internal/toolconf"
	"github.com/dtn7/sst-go/pkg/dgram/simlink"
	"github.com/dtn7/sst-go/pkg/httpsst"
	"github.com/dtn7/sst-go/pkg/workload"
)

// tomlConfig describes the TOML-configuration.
type tomlConfig struct {
	Logging    toolconf.LogConf
	Simulation simulationConf
	Link       linkConf
	Channel    toolconf.ChannelConf
	Client     clientConf
	Server     serverConf
	Workload   workloadConf
	Results    resultsConf
	Remote     remoteConf
}

// simulationConf describes the Simulation-configuration block.
type simulationConf struct {
	Run         string
	Strategy    string
	Duration    string
	ServerStart string `toml:"server-start"`
	ClientStart string `toml:"client-start"`
}

// linkConf describes the simulated point-to-point link.
type linkConf struct {
	Latency    string
	Bandwidth  uint64
	LossRate   float64 `toml:"loss-rate"`
	QueueLimit int     `toml:"queue-limit"`
	MTU        int     `toml:"mtu"`
	Seed       int64
}

// clientConf describes the Client-configuration block.
type clientConf struct {
	PageTimeout string `toml:"page-timeout"`
	ThinkTime   string `toml:"think-time"`
	Host        string
	UserAgent   string `toml:"user-agent"`
}

// serverConf describes the Server-configuration block.
type serverConf struct {
	DefaultSize uint64 `toml:"default-size"`
	MaxSize     uint64 `toml:"max-size"`
}

// workloadConf describes the Workload-configuration block. Without a trace,
// a synthetic workload is generated.
type workloadConf struct {
	Trace    string
	Seed     int64
	Pages    int
	MaxPages int `toml:"max-pages"`
}

// resultsConf describes where page records are stored.
type resultsConf struct {
	Store  string
	Export string
}

// remoteConf switches to a real time run against a sstd. The protocol is
// one of "udp", "quic" or "ws".
type remoteConf struct {
	Protocol string
	Endpoint string
}

// setup is the parsed configuration of a run.
type setup struct {
	run      string
	strategy string

	duration    time.Duration
	serverStart time.Duration
	clientStart time.Duration

	link   simlink.Config
	client httpsst.ClientConfig
	server httpsst.ServerConfig
	pages  []workload.Page

	store  string
	export string
	remote remoteConf
}

// parseSetup reads a TOML configuration file.
func parseSetup(filename string) (s setup, err error) {
	var conf tomlConfig
	if _, err = toml.DecodeFile(filename, &conf); err != nil {
		return
	}

	conf.Logging.Apply()

	return conf.setup()
}

func (conf tomlConfig) setup() (s setup, errs error) {
	durations := []struct {
		field string
		value string
		def   time.Duration
		dst   *time.Duration
	}{
		{"simulation.duration", conf.Simulation.Duration, 500 * time.Second, &s.duration},
		{"simulation.server-start", conf.Simulation.ServerStart, time.Second, &s.serverStart},
		{"simulation.client-start", conf.Simulation.ClientStart, 2 * time.Second, &s.clientStart},
		{"link.latency", conf.Link.Latency, simlink.DefaultConfig().Latency, &s.link.Latency},
		{"client.page-timeout", conf.Client.PageTimeout, httpsst.DefaultClientConfig().PageTimeout, &s.client.PageTimeout},
		{"client.think-time", conf.Client.ThinkTime, httpsst.DefaultClientConfig().ThinkTime, &s.client.ThinkTime},
	}

	// The link's and client's remaining fields start at their defaults.
	s.link = simlink.DefaultConfig()
	s.client = httpsst.DefaultClientConfig()
	s.server = httpsst.DefaultServerConfig()

	for _, d := range durations {
		if v, err := toolconf.ParseDuration(d.field, d.value, d.def); err != nil {
			errs = multierror.Append(errs, err)
		} else {
			*d.dst = v
		}
	}

	s.run = conf.Simulation.Run
	if s.run == "" {
		s.run = time.Now().Format("20060102-150405")
	}
	s.strategy = conf.Simulation.Strategy
	if s.strategy == "" {
		s.strategy = "sst"
	}
	if s.clientStart < s.serverStart {
		errs = multierror.Append(errs, fmt.Errorf("simulation: client starts before server"))
	}

	// Link
	if conf.Link.Bandwidth != 0 {
		s.link.Bandwidth = conf.Link.Bandwidth
	}
	if conf.Link.Seed != 0 {
		s.link.Seed = conf.Link.Seed
	}
	s.link.LossRate = conf.Link.LossRate
	s.link.QueueLimit = conf.Link.QueueLimit
	s.link.MTU = conf.Link.MTU
	if err := s.link.CheckValid(); err != nil {
		errs = multierror.Append(errs, err)
	}

	// Channel, Client and Server
	chConf, chErr := conf.Channel.Config()
	if chErr != nil {
		errs = multierror.Append(errs, chErr)
	}
	s.client.Channel = chConf
	s.server.Channel = chConf

	if conf.Client.Host != "" {
		s.client.Host = conf.Client.Host
	}
	if conf.Client.UserAgent != "" {
		s.client.UserAgent = conf.Client.UserAgent
	}
	if conf.Server.DefaultSize != 0 {
		s.server.DefaultSize = conf.Server.DefaultSize
	}
	if conf.Server.MaxSize != 0 {
		s.server.MaxSize = conf.Server.MaxSize
	}

	if err := s.client.CheckValid(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := s.server.CheckValid(); err != nil {
		errs = multierror.Append(errs, err)
	}

	// Workload
	if pages, err := conf.Workload.pages(); err != nil {
		errs = multierror.Append(errs, err)
	} else {
		s.pages = pages
	}

	// Results and Remote
	s.store = conf.Results.Store
	s.export = conf.Results.Export

	switch conf.Remote.Protocol {
	case "":
	case "udp", "quic", "ws":
		if conf.Remote.Endpoint == "" {
			errs = multierror.Append(errs, fmt.Errorf("remote: endpoint is empty"))
		}
	default:
		errs = multierror.Append(errs, fmt.Errorf("remote: unknown protocol %q", conf.Remote.Protocol))
	}
	s.remote = conf.Remote

	return
}

// pages loads the trace or generates a synthetic workload.
func (wc workloadConf) pages() (pages []workload.Page, err error) {
	if wc.Trace != "" {
		if pages, err = workload.OpenTrace(wc.Trace); err != nil {
			return
		}

		log.WithFields(log.Fields{
			"trace": wc.Trace,
			"pages": len(pages),
		}).Info("Loaded workload trace")
	} else {
		seed, n := wc.Seed, wc.Pages
		if seed == 0 {
			seed = workload.DefaultSeed
		}
		if n == 0 {
			n = workload.DefaultPages
		}
		pages = workload.Synthetic(seed, n)

		log.WithFields(log.Fields{
			"seed":  seed,
			"pages": len(pages),
		}).Info("Generated synthetic workload")
	}

	pages = workload.Limit(pages, wc.MaxPages)
	if len(pages) == 0 {
		err = fmt.Errorf("workload: no pages")
	}
	return
}
