// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sst

import (
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/sst-go/pkg/wire"
)

// HandleDatagram processes one inbound datagram. Malformed frames are dropped.
// Acknowledgement fields are processed first. A data packet is answered by an
// acknowledgement and its payload is appended to its Stream.
func (c *Channel) HandleDatagram(data []byte) {
	if c.closed {
		return
	}

	frame, err := wire.Decode(data, c.config.Auth)
	if err != nil {
		c.dropMalformed(len(data), err)
		return
	}

	if frame.Channel.ChannelID != c.config.ChannelID {
		c.stats.Malformed++
		log.WithFields(log.Fields{
			"channel": c.String(),
			"frame":   frame.String(),
		}).Warn("Dropping frame of foreign channel id")
		return
	}

	if frame.Channel.PacketSeq == 0 && len(frame.Payload) > 0 {
		c.stats.Malformed++
		log.WithFields(log.Fields{
			"channel": c.String(),
			"frame":   frame.String(),
		}).Warn("Dropping data frame without sequence number")
		return
	}

	log.WithFields(log.Fields{
		"channel": c.String(),
		"frame":   frame.String(),
	}).Debug("Received frame")

	if frame.Channel.AckCount > 0 {
		c.OnAckReceived(frame.Channel.AckSeq)
		if c.closed {
			return
		}
	}

	if frame.IsAckOnly() {
		return
	}

	c.stats.PacketsRecv++
	if frame.Channel.PacketSeq > c.lastRecvSeq {
		c.lastRecvSeq = frame.Channel.PacketSeq
	}
	c.sendAck(frame.Channel.PacketSeq, frame.Stream.StreamID)

	c.deliver(frame.Stream, frame.Payload)
}

func (c *Channel) dropMalformed(size int, err error) {
	c.stats.Malformed++
	log.WithFields(log.Fields{
		"channel": c.String(),
		"size":    size,
		"error":   err,
	}).Warn("Dropping malformed frame")
}

// sendAck acknowledges the data packet seq by an untracked frame without any
// sequence number of its own.
func (c *Channel) sendAck(seq uint32, streamID uint16) {
	frame := wire.Frame{
		Channel: wire.ChannelHeader{
			ChannelID: c.config.ChannelID,
			AckSeq:    uint16(seq),
			AckCount:  1,
		},
		Stream: wire.NewStreamHeader(streamID, 0, 0),
	}

	data, err := frame.Encode(c.config.Auth)
	if err == nil {
		err = c.sender.Send(data)
	}
	if err != nil {
		c.stats.SendFailures++
		log.WithFields(log.Fields{
			"channel": c.String(),
			"seq":     seq,
			"error":   err,
		}).Warn("Sending acknowledgement failed")
		return
	}

	c.stats.AcksSent++
}

// deliver payload to its Stream, creating it in accept mode.
func (c *Channel) deliver(sh wire.StreamHeader, payload []byte) {
	s, ok := c.streams[sh.StreamID]
	if !ok && c.config.Accept && sh.StreamID != 0 {
		s = newStream(sh.StreamID, c.config.ChannelID, nil, true)
		c.streams[sh.StreamID] = s
		c.stats.StreamsCreated++

		log.WithFields(log.Fields{
			"channel": c.String(),
			"stream":  sh.StreamID,
		}).Debug("Accepted stream from peer")

		c.reporter(newStreamOpened(c, sh.StreamID))
		if c.closed || !s.open {
			return
		}
	} else if !ok {
		c.stats.UnknownStream++
		log.WithFields(log.Fields{
			"channel": c.String(),
			"stream":  sh.StreamID,
			"bytes":   len(payload),
		}).Warn("Dropping payload for unknown stream")
		return
	}

	if sh.Flags.Has(wire.FlagClose) {
		s.peerClosed = true
	}

	if len(payload) == 0 {
		return
	}

	s.deliver(payload)
	c.reporter(newStreamData(c, s.id, payload))
}
