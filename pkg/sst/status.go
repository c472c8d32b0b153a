// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sst

import "fmt"

// StatusKind indicates the kind of a Status.
type StatusKind uint

const (
	_ StatusKind = iota

	// StatusStreamData reports a payload which arrived for a stream. Data holds
	// the payload, the stream's buffer already contains it.
	StatusStreamData

	// StatusAcknowledged reports an acknowledgement. Streams lists the streams
	// of the removed pending packets, Count their number. A queued send might
	// be attempted now.
	StatusAcknowledged

	// StatusDeliveryFailed reports an abandoned packet of a stream. Err wraps
	// ErrRetransmitExhausted.
	StatusDeliveryFailed

	// StatusStreamOpened reports a stream created on behalf of the peer, only
	// in accept mode.
	StatusStreamOpened
)

func (sk StatusKind) String() string {
	switch sk {
	case StatusStreamData:
		return "Stream Data"
	case StatusAcknowledged:
		return "Acknowledged"
	case StatusDeliveryFailed:
		return "Delivery Failed"
	case StatusStreamOpened:
		return "Stream Opened"
	default:
		return "Unknown Kind"
	}
}

// Status is reported from a Channel to the application on top.
type Status struct {
	Channel *Channel
	Kind    StatusKind

	StreamID uint16
	Data     []byte

	Seq     uint32
	Count   uint32
	Streams []uint16

	Err error
}

func (s Status) String() string {
	switch s.Kind {
	case StatusStreamData, StatusStreamOpened:
		return fmt.Sprintf("%v from %v for stream %d (%d bytes)", s.Kind, s.Channel, s.StreamID, len(s.Data))
	case StatusAcknowledged:
		return fmt.Sprintf("%v from %v up to %d (%d packets)", s.Kind, s.Channel, s.Seq, s.Count)
	default:
		return fmt.Sprintf("%v from %v for stream %d: %v", s.Kind, s.Channel, s.StreamID, s.Err)
	}
}

// Reporter receives a Channel's Status reports. It is called synchronously on
// the Channel's timeline and might call the Channel again.
type Reporter func(Status)

func newStreamData(c *Channel, streamID uint16, data []byte) Status {
	return Status{Channel: c, Kind: StatusStreamData, StreamID: streamID, Data: data}
}

func newAcknowledged(c *Channel, seq, count uint32, streams []uint16) Status {
	return Status{Channel: c, Kind: StatusAcknowledged, Seq: seq, Count: count, Streams: streams}
}

func newDeliveryFailed(c *Channel, streamID uint16, seq uint32, err error) Status {
	return Status{Channel: c, Kind: StatusDeliveryFailed, StreamID: streamID, Seq: seq, Err: err}
}

func newStreamOpened(c *Channel, streamID uint16) Status {
	return Status{Channel: c, Kind: StatusStreamOpened, StreamID: streamID}
}
