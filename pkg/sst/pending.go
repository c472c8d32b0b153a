// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sst

import (
	"fmt"
	"time"

	"github.com/dtn7/sst-go/pkg/sched"
	"github.com/dtn7/sst-go/pkg/wire"
)

// PendingPacket is a transmitted, not yet acknowledged packet.
type PendingPacket struct {
	Seq             uint32
	StreamHeader    wire.StreamHeader
	Payload         []byte
	SentTime        time.Time
	RetransmitCount int

	token uint64
	timer *sched.Timer
}

// TimerActive reports if the retransmission timer is armed.
func (pp *PendingPacket) TimerActive() bool {
	return pp.timer.Active()
}

func (pp *PendingPacket) String() string {
	return fmt.Sprintf("PendingPacket(seq=%d, stream=%d, retransmits=%d)",
		pp.Seq, pp.StreamHeader.StreamID, pp.RetransmitCount)
}
