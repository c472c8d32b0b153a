// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sst

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/dtn7/sst-go/pkg/congestion"
	"github.com/dtn7/sst-go/pkg/wire"
)

// DefaultMaxRetransmits is the number of timeouts after which a packet is abandoned.
const DefaultMaxRetransmits = 5

// Config of a Channel.
type Config struct {
	// Name identifies the Channel in log messages, e.g., its peer's address.
	Name string

	// ChannelID is written into each frame's channel header.
	ChannelID uint8

	// MaxRetransmits is the number of retransmission timeouts a packet might
	// experience before it is abandoned.
	MaxRetransmits int

	// Auth selects the frame trailer.
	Auth wire.AuthType

	// Accept creates streams for unknown stream ids of inbound packets, as
	// a responding server does.
	Accept bool

	// InitialCwnd, InitialSsthresh and InitialRTO overwrite the congestion
	// controller's defaults if not zero.
	InitialCwnd     uint32
	InitialSsthresh uint32
	InitialRTO      time.Duration
}

// DefaultConfig returns a Config with the default values of a client channel.
func DefaultConfig() Config {
	return Config{
		ChannelID:      wire.DefaultChannelID,
		MaxRetransmits: DefaultMaxRetransmits,
		Auth:           wire.AuthPlaceholder,
	}
}

// CheckValid returns an error for each invalid field.
func (c Config) CheckValid() (errs error) {
	if c.MaxRetransmits < 1 {
		errs = multierror.Append(errs,
			fmt.Errorf("Config: MaxRetransmits must be positive, not %d", c.MaxRetransmits))
	}

	if c.Auth > wire.AuthCRC32C {
		errs = multierror.Append(errs, fmt.Errorf("Config: unknown authenticator %d", c.Auth))
	}

	if c.InitialSsthresh == 1 {
		errs = multierror.Append(errs, fmt.Errorf("Config: InitialSsthresh must be at least 2"))
	}

	if c.InitialRTO < 0 || c.InitialRTO > congestion.MaxRTO {
		errs = multierror.Append(errs,
			fmt.Errorf("Config: InitialRTO %v is not within [0, %v]", c.InitialRTO, congestion.MaxRTO))
	}

	return
}

func (c Config) controller() *congestion.Controller {
	cc := congestion.NewController()
	if c.InitialSsthresh != 0 {
		cc.SetSsthresh(c.InitialSsthresh)
	}
	if c.InitialCwnd != 0 {
		cc.SetCwnd(c.InitialCwnd)
	}
	if c.InitialRTO != 0 {
		cc.SetRTO(c.InitialRTO)
	}
	return cc
}
