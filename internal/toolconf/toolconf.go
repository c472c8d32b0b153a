// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package toolconf holds the TOML configuration blocks shared by sstsim and
// sstd.
package toolconf

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/sst-go/pkg/sst"
	"github.com/dtn7/sst-go/pkg/wire"
)

// LogConf describes the Logging-configuration block.
type LogConf struct {
	Level        string
	ReportCaller bool `toml:"report-caller"`
	Format       string
}

// Apply the logging configuration to logrus' standard logger.
func (lc LogConf) Apply() {
	if lc.Level != "" {
		if lvl, err := log.ParseLevel(lc.Level); err != nil {
			log.WithFields(log.Fields{
				"level":    lc.Level,
				"error":    err,
				"provided": "panic,fatal,error,warn,info,debug,trace",
			}).Warn("Failed to set log level. Please select one of the provided ones")
		} else {
			log.SetLevel(lvl)
		}
	}

	log.SetReportCaller(lc.ReportCaller)

	switch lc.Format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})

	case "json":
		log.SetFormatter(&log.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})

	default:
		log.WithField("format", lc.Format).Warn("Unknown logging format")
	}
}

// ChannelConf describes the Channel-configuration block.
type ChannelConf struct {
	ChannelId       *uint8 `toml:"channel-id"`
	MaxRetransmits  int    `toml:"max-retransmits"`
	Auth            string `toml:"auth"`
	InitialCwnd     uint32 `toml:"initial-cwnd"`
	InitialSsthresh uint32 `toml:"initial-ssthresh"`
	InitialRto      string `toml:"initial-rto"`
}

// Config derives a sst.Config, starting at sst.DefaultConfig.
func (cc ChannelConf) Config() (conf sst.Config, errs error) {
	conf = sst.DefaultConfig()

	if cc.ChannelId != nil {
		conf.ChannelID = *cc.ChannelId
	}
	if cc.MaxRetransmits != 0 {
		conf.MaxRetransmits = cc.MaxRetransmits
	}

	if auth, err := wire.ParseAuthType(cc.Auth); err != nil {
		errs = multierror.Append(errs, err)
	} else {
		conf.Auth = auth
	}

	conf.InitialCwnd = cc.InitialCwnd
	conf.InitialSsthresh = cc.InitialSsthresh

	if rto, err := ParseDuration("initial-rto", cc.InitialRto, 0); err != nil {
		errs = multierror.Append(errs, err)
	} else {
		conf.InitialRTO = rto
	}

	if err := conf.CheckValid(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return
}

// ParseDuration of a configuration field; an empty value yields def.
func ParseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %v", field, d)
	}
	return d, nil
}
