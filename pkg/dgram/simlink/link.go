// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package simlink

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/sst-go/pkg/dgram"
	"github.com/dtn7/sst-go/pkg/sched"
)

// Config of a simulated link, used for both directions.
type Config struct {
	// Latency is the one-way propagation delay.
	Latency time.Duration

	// Bandwidth in bits per second. Zero disables serialization delay.
	Bandwidth uint64

	// LossRate is the probability for each datagram to be lost, in [0, 1).
	LossRate float64

	// QueueLimit bounds the datagrams waiting for transmission per direction.
	// Zero means unbounded.
	QueueLimit int

	// MTU rejects larger datagrams with dgram.ErrTooLarge. Zero means unlimited.
	MTU int

	// Seed of the loss generator.
	Seed int64

	// Drop is an optional filter, dropping each datagram it returns true for.
	Drop func(b []byte) bool
}

// DefaultConfig resembles a 1.5 Mbit/s link with 25 ms latency.
func DefaultConfig() Config {
	return Config{
		Latency:   25 * time.Millisecond,
		Bandwidth: 1500000,
		Seed:      1,
	}
}

// CheckValid returns an error for each invalid field.
func (c Config) CheckValid() (errs error) {
	if c.Latency < 0 {
		errs = multierror.Append(errs, fmt.Errorf("simlink: negative latency %v", c.Latency))
	}
	if c.LossRate < 0 || c.LossRate >= 1 {
		errs = multierror.Append(errs, fmt.Errorf("simlink: loss rate %f is not within [0, 1)", c.LossRate))
	}
	if c.QueueLimit < 0 {
		errs = multierror.Append(errs, fmt.Errorf("simlink: negative queue limit %d", c.QueueLimit))
	}
	if c.MTU < 0 {
		errs = multierror.Append(errs, fmt.Errorf("simlink: negative MTU %d", c.MTU))
	}
	return
}

// Stats of one direction of a link.
type Stats struct {
	Sent       uint64 `json:"sent"`
	Delivered  uint64 `json:"delivered"`
	Lost       uint64 `json:"lost"`
	QueueDrops uint64 `json:"queue_drops"`
	Bytes      uint64 `json:"bytes"`
}

// Link connects two Ends.
type Link struct {
	sim    *sched.Sim
	config Config
	rng    *rand.Rand

	a, b *End
}

// New creates a Link and returns both of its Ends, named by the two given names.
func New(sim *sched.Sim, config Config, nameA, nameB string) (*Link, error) {
	if err := config.CheckValid(); err != nil {
		return nil, err
	}

	l := &Link{
		sim:    sim,
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
	l.a = &End{link: l, name: nameA}
	l.b = &End{link: l, name: nameB}
	l.a.peer, l.b.peer = l.b, l.a

	return l, nil
}

// A returns the first End.
func (l *Link) A() *End { return l.a }

// B returns the second End.
func (l *Link) B() *End { return l.b }

// transmissionTime is the serialization delay of n bytes.
func (l *Link) transmissionTime(n int) time.Duration {
	if l.config.Bandwidth == 0 {
		return 0
	}
	return time.Duration(uint64(n) * 8 * uint64(time.Second) / l.config.Bandwidth)
}

// End is one side of a Link and implements dgram.Conn.
type End struct {
	link *Link
	peer *End
	name string

	receiver dgram.Receiver
	closed   bool

	busyUntil time.Time
	queued    int

	stats Stats
}

// Send transmits b towards the peer End.
func (e *End) Send(b []byte) error {
	if e.closed {
		return dgram.ErrClosed
	}

	l := e.link
	if l.config.MTU > 0 && len(b) > l.config.MTU {
		return fmt.Errorf("%w: %d bytes exceed MTU of %d", dgram.ErrTooLarge, len(b), l.config.MTU)
	}

	e.stats.Sent++
	e.stats.Bytes += uint64(len(b))

	if l.config.QueueLimit > 0 && e.queued >= l.config.QueueLimit {
		e.stats.QueueDrops++
		log.WithFields(log.Fields{
			"link":   e.String(),
			"queued": e.queued,
		}).Debug("Dropping datagram at full queue")
		return nil
	}

	now := l.sim.Now()
	start := now
	if e.busyUntil.After(start) {
		start = e.busyUntil
	}
	e.busyUntil = start.Add(l.transmissionTime(len(b)))
	e.queued++

	lost := (l.config.LossRate > 0 && l.rng.Float64() < l.config.LossRate) ||
		(l.config.Drop != nil && l.config.Drop(b))

	data := make([]byte, len(b))
	copy(data, b)

	l.sim.Schedule(e.busyUntil.Sub(now), func() {
		e.queued--
	})
	l.sim.Schedule(e.busyUntil.Sub(now)+l.config.Latency, func() {
		if lost {
			e.stats.Lost++
			return
		}
		e.peer.receive(data)
	})

	return nil
}

func (e *End) receive(b []byte) {
	if e.closed || e.receiver == nil {
		return
	}
	e.peer.stats.Delivered++
	e.receiver(b)
}

// SetReceiver for datagrams arriving at this End.
func (e *End) SetReceiver(r dgram.Receiver) {
	e.receiver = r
}

// Close this End. Datagrams in flight towards it are discarded.
func (e *End) Close() error {
	e.closed = true
	return nil
}

// Stats of datagrams sent from this End.
func (e *End) Stats() Stats {
	return e.stats
}

func (e *End) String() string {
	return fmt.Sprintf("sim://%s->%s", e.name, e.peer.name)
}

var _ dgram.Conn = (*End)(nil)
