// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sst

import (
	"fmt"
	"sync/atomic"
)

// EventKind tags an Event.
type EventKind uint8

const (
	_ EventKind = iota

	// EventDatagram delivers an inbound datagram in Data.
	EventDatagram

	// EventRetransmissionTimeout signals the expired timer of the pending
	// packet Seq, installed with Token.
	EventRetransmissionTimeout
)

func (ek EventKind) String() string {
	switch ek {
	case EventDatagram:
		return "Datagram"
	case EventRetransmissionTimeout:
		return "Retransmission Timeout"
	default:
		return "Unknown"
	}
}

// Event is delivered asynchronously to a Channel by Channel.Dispatch. Epoch
// and Token identify the Channel incarnation and the pending packet the Event
// was created for; Events for a replaced incarnation are ignored.
type Event struct {
	Kind  EventKind
	Epoch uint64
	Seq   uint32
	Token uint64
	Data  []byte
}

func (ev Event) String() string {
	return fmt.Sprintf("Event(%v, epoch=%d, seq=%d, token=%d)", ev.Kind, ev.Epoch, ev.Seq, ev.Token)
}

// epochs is shared by all Channels, so no two incarnations share an epoch.
var epochs uint64

func nextEpoch() uint64 {
	return atomic.AddUint64(&epochs, 1)
}
