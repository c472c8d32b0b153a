// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package congestion

import (
	"fmt"
	"time"
)

const (
	// InitialCwnd is the congestion window of a new Controller.
	InitialCwnd uint32 = 1

	// InitialSsthresh is the slow start threshold of a new Controller.
	InitialSsthresh uint32 = 65535

	// InitialRTO is used until the first round trip time was measured.
	InitialRTO = time.Second

	// MinRTO is the lower bound of a measured retransmission timeout.
	MinRTO = 200 * time.Millisecond

	// MaxRTO caps the retransmission timeout, also while backing off.
	MaxRTO = 64 * time.Second

	minSsthresh uint32 = 2
)

// Controller holds the congestion state of one channel.
type Controller struct {
	cwnd     uint32
	ssthresh uint32
	srtt     time.Duration
	measured bool
	rto      time.Duration
	state    State
}

// NewController creates a Controller with its initial values.
func NewController() *Controller {
	return &Controller{
		cwnd:     InitialCwnd,
		ssthresh: InitialSsthresh,
		rto:      InitialRTO,
		state:    SlowStart,
	}
}

// OnRTTSample feeds a new round trip time measurement into the smoothed RTT
// and recomputes the retransmission timeout as 4*srtt, clamped.
func (c *Controller) OnRTTSample(sample time.Duration) {
	if sample < 0 {
		sample = 0
	}

	if !c.measured {
		c.srtt = sample
		c.measured = true
	} else {
		c.srtt -= c.srtt / 8
		c.srtt += sample / 8
	}

	c.rto = clampRTO(4 * c.srtt)
}

// OnAck updates the window for newlyAcked packets leaving the network.
func (c *Controller) OnAck(newlyAcked uint32) {
	if newlyAcked == 0 {
		return
	}

	switch c.state {
	case SlowStart:
		c.cwnd += newlyAcked
		if c.cwnd >= c.ssthresh {
			c.state = CongestionAvoidance
		}

	case CongestionAvoidance:
		inc := newlyAcked / c.cwnd
		if inc < 1 {
			inc = 1
		}
		c.cwnd += inc
	}
}

// OnTimeout halves the threshold, collapses the window to one packet and
// backs off the retransmission timeout.
func (c *Controller) OnTimeout() {
	c.ssthresh = c.cwnd / 2
	if c.ssthresh < minSsthresh {
		c.ssthresh = minSsthresh
	}

	c.cwnd = 1
	c.state = SlowStart

	c.rto *= 2
	if c.rto > MaxRTO {
		c.rto = MaxRTO
	}
}

// CanSend checks if another packet might be sent with inFlight packets
// currently unacknowledged.
func (c *Controller) CanSend(inFlight int) bool {
	return inFlight >= 0 && uint32(inFlight) < c.cwnd
}

// Cwnd returns the congestion window in packets.
func (c *Controller) Cwnd() uint32 {
	return c.cwnd
}

// SetCwnd overwrites the congestion window. Values below one are raised to one.
func (c *Controller) SetCwnd(cwnd uint32) {
	if cwnd < 1 {
		cwnd = 1
	}
	c.cwnd = cwnd
	if c.state == SlowStart && c.cwnd >= c.ssthresh {
		c.state = CongestionAvoidance
	}
}

// Ssthresh returns the slow start threshold in packets.
func (c *Controller) Ssthresh() uint32 {
	return c.ssthresh
}

// SetSsthresh overwrites the slow start threshold. The state is derived anew.
func (c *Controller) SetSsthresh(ssthresh uint32) {
	c.ssthresh = ssthresh
	if c.cwnd >= c.ssthresh {
		c.state = CongestionAvoidance
	} else {
		c.state = SlowStart
	}
}

// RTO returns the current retransmission timeout.
func (c *Controller) RTO() time.Duration {
	return c.rto
}

// SetRTO overwrites the retransmission timeout, bounded by MaxRTO.
func (c *Controller) SetRTO(rto time.Duration) {
	if rto <= 0 {
		rto = InitialRTO
	}
	if rto > MaxRTO {
		rto = MaxRTO
	}
	c.rto = rto
}

// SRTT returns the smoothed round trip time and if it was measured at all.
func (c *Controller) SRTT() (time.Duration, bool) {
	return c.srtt, c.measured
}

// State returns the current State.
func (c *Controller) State() State {
	return c.state
}

// Snapshot returns a copy of the current values.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Cwnd:     c.cwnd,
		Ssthresh: c.ssthresh,
		SRTT:     c.srtt,
		Measured: c.measured,
		RTO:      c.rto,
		State:    c.state,
	}
}

func (c *Controller) String() string {
	return c.Snapshot().String()
}

// Snapshot of a Controller, e.g., for logging or status reports.
type Snapshot struct {
	Cwnd     uint32        `json:"cwnd"`
	Ssthresh uint32        `json:"ssthresh"`
	SRTT     time.Duration `json:"srtt"`
	Measured bool          `json:"measured"`
	RTO      time.Duration `json:"rto"`
	State    State         `json:"state"`
}

func (s Snapshot) String() string {
	srtt := "unmeasured"
	if s.Measured {
		srtt = s.SRTT.String()
	}
	return fmt.Sprintf("%v(cwnd=%d, ssthresh=%d, srtt=%s, rto=%v)", s.State, s.Cwnd, s.Ssthresh, srtt, s.RTO)
}

func clampRTO(rto time.Duration) time.Duration {
	switch {
	case rto < MinRTO:
		return MinRTO
	case rto > MaxRTO:
		return MaxRTO
	default:
		return rto
	}
}
