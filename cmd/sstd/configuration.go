// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/sst-go/internal/toolconf"
	"github.com/dtn7/sst-go/pkg/dgram"
	"github.com/dtn7/sst-go/pkg/dgram/quicdg"
	"github.com/dtn7/sst-go/pkg/dgram/udp"
	"github.com/dtn7/sst-go/pkg/dgram/wsdg"
	"github.com/dtn7/sst-go/pkg/httpsst"
)

// tomlConfig describes the TOML-configuration.
type tomlConfig struct {
	Logging toolconf.LogConf
	Channel toolconf.ChannelConf
	Server  serverConf
	Status  statusConf
	Listen  []listenConf
}

// serverConf describes the Server-configuration block.
type serverConf struct {
	DefaultSize uint64 `toml:"default-size"`
	MaxSize     uint64 `toml:"max-size"`
}

// statusConf describes the HTTP server for the status API and WebSockets.
type statusConf struct {
	Listen string
}

// listenConf describes a listener. The endpoint of "udp" and "quic" is a
// local address, the one of "ws" a path on the status HTTP server.
type listenConf struct {
	Protocol    string
	Endpoint    string
	ReadBuffer  int `toml:"read-buffer"`
	WriteBuffer int `toml:"write-buffer"`
}

// serverConfig creates the httpsst.ServerConfig.
func (conf tomlConfig) serverConfig() (sc httpsst.ServerConfig, errs error) {
	sc = httpsst.DefaultServerConfig()

	if chConf, err := conf.Channel.Config(); err != nil {
		errs = multierror.Append(errs, err)
	} else {
		sc.Channel = chConf
	}

	if conf.Server.DefaultSize != 0 {
		sc.DefaultSize = conf.Server.DefaultSize
	}
	if conf.Server.MaxSize != 0 {
		sc.MaxSize = conf.Server.MaxSize
	}

	if err := sc.CheckValid(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return
}

// parseListen inspects a listenConf and starts its dgram.Listener. WebSocket
// listeners are mounted on the router.
func parseListen(lc listenConf, router *mux.Router) (dgram.Listener, error) {
	switch lc.Protocol {
	case "udp":
		return udp.Listen(lc.Endpoint, udp.Config{
			ReadBuffer:  lc.ReadBuffer,
			WriteBuffer: lc.WriteBuffer,
		})

	case "quic":
		return quicdg.Listen(lc.Endpoint, quicdg.DefaultConfig())

	case "ws":
		if router == nil {
			return nil, fmt.Errorf("ws listener requires status.listen")
		}
		if !strings.HasPrefix(lc.Endpoint, "/") {
			return nil, fmt.Errorf("ws endpoint %q is no path", lc.Endpoint)
		}

		l := wsdg.NewListener(lc.Endpoint)
		router.Handle(lc.Endpoint, l)
		return l, nil

	default:
		return nil, fmt.Errorf("unknown listen protocol %q", lc.Protocol)
	}
}

// daemonConf is the parsed configuration.
type daemonConf struct {
	server    httpsst.ServerConfig
	status    string
	router    *mux.Router
	listeners []dgram.Listener
}

// parseDaemon reads a TOML configuration file and starts all listeners.
func parseDaemon(filename string) (dc daemonConf, err error) {
	var conf tomlConfig
	if _, err = toml.DecodeFile(filename, &conf); err != nil {
		return
	}

	conf.Logging.Apply()

	return conf.daemon()
}

func (conf tomlConfig) daemon() (dc daemonConf, err error) {
	if dc.server, err = conf.serverConfig(); err != nil {
		return
	}

	dc.status = conf.Status.Listen
	if dc.status != "" {
		dc.router = mux.NewRouter()
	}

	if len(conf.Listen) == 0 {
		err = fmt.Errorf("no listen block configured")
		return
	}

	for _, lc := range conf.Listen {
		l, lErr := parseListen(lc, dc.router)
		if lErr != nil {
			log.WithFields(log.Fields{
				"protocol": lc.Protocol,
				"endpoint": lc.Endpoint,
				"error":    lErr,
			}).Error("Failed to start listener")

			for _, started := range dc.listeners {
				_ = started.Close()
			}
			dc.listeners = nil
			err = lErr
			return
		}

		log.WithFields(log.Fields{
			"protocol": lc.Protocol,
			"address":  l.Addr(),
		}).Info("Started listener")
		dc.listeners = append(dc.listeners, l)
	}

	return
}
