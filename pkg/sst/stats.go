// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sst

import "fmt"

// Stats are the counters of a Channel.
type Stats struct {
	PacketsSent    uint64 `json:"packets_sent"`
	Retransmitted  uint64 `json:"retransmitted"`
	Abandoned      uint64 `json:"abandoned"`
	Acknowledged   uint64 `json:"acknowledged"`
	SendFailures   uint64 `json:"send_failures"`
	AcksSent       uint64 `json:"acks_sent"`
	PacketsRecv    uint64 `json:"packets_received"`
	Malformed      uint64 `json:"malformed"`
	UnknownStream  uint64 `json:"unknown_stream"`
	StaleAcks      uint64 `json:"stale_acks"`
	StreamsCreated uint64 `json:"streams_created"`
}

func (s Stats) String() string {
	return fmt.Sprintf("sent=%d retransmitted=%d abandoned=%d acked=%d received=%d malformed=%d unknown=%d",
		s.PacketsSent, s.Retransmitted, s.Abandoned, s.Acknowledged, s.PacketsRecv, s.Malformed, s.UnknownStream)
}
