// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sst

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dtn7/sst-go/pkg/congestion"
	"github.com/dtn7/sst-go/pkg/dgram"
	"github.com/dtn7/sst-go/pkg/sched"
	"github.com/dtn7/sst-go/pkg/wire"
)

// Channel is one congestion controlled association to a peer, carrying
// multiplexed Streams.
type Channel struct {
	config   Config
	sched    sched.Scheduler
	sender   dgram.Sender
	reporter Reporter

	cc *congestion.Controller

	nextPacketSeq      uint32
	lastAckedPacketSeq uint32
	pending            map[uint32]*PendingPacket
	packetsInFlight    int

	// lastRecvSeq is the peer's highest data packet received, piggybacked on
	// each outgoing data packet.
	lastRecvSeq uint32

	streams      map[uint16]*Stream
	nextStreamID uint16

	epoch     uint64
	nextToken uint64
	closed    bool

	stats Stats
}

// NewChannel creates a Channel sending its frames through sender. Timers are
// scheduled on s, Status reports are passed to reporter, which might be nil.
func NewChannel(config Config, s sched.Scheduler, sender dgram.Sender, reporter Reporter) (*Channel, error) {
	if err := config.CheckValid(); err != nil {
		return nil, err
	}

	if reporter == nil {
		reporter = func(Status) {}
	}

	c := &Channel{
		config:   config,
		sched:    s,
		sender:   sender,
		reporter: reporter,

		cc: config.controller(),

		nextPacketSeq: 1,
		pending:       make(map[uint32]*PendingPacket),

		streams:      make(map[uint16]*Stream),
		nextStreamID: 1,

		epoch: nextEpoch(),
	}

	log.WithFields(log.Fields{
		"channel":    c.String(),
		"congestion": c.cc.String(),
		"auth":       config.Auth,
		"accept":     config.Accept,
	}).Debug("Created channel")

	return c, nil
}

// SendPacket transmits payload for streamID as a new packet. It requires
// a free slot in the congestion window, otherwise ErrWindowFull is returned
// and nothing is sent. On success the packet's sequence number is returned.
//
// A rejected datagram results in an ErrSendFailure. In this case, the
// sequence number is consumed but nothing is tracked.
func (c *Channel) SendPacket(streamID uint16, payload []byte) (uint32, error) {
	return c.sendPacket(wire.NewStreamHeader(streamID, 0, wire.FlagPush), payload)
}

func (c *Channel) sendPacket(sh wire.StreamHeader, payload []byte) (uint32, error) {
	if c.closed {
		return 0, ErrChannelClosed
	}
	if !c.cc.CanSend(c.packetsInFlight) {
		return 0, ErrWindowFull
	}

	seq, err := c.transmit(sh, payload)
	if err != nil {
		return seq, err
	}

	c.track(&PendingPacket{
		Seq:          seq,
		StreamHeader: sh,
		Payload:      payload,
		SentTime:     c.sched.Now(),
	})
	c.packetsInFlight++

	log.WithFields(log.Fields{
		"channel":   c.String(),
		"seq":       seq,
		"stream":    sh.StreamID,
		"bytes":     len(payload),
		"in-flight": c.packetsInFlight,
		"rto":       c.cc.RTO(),
	}).Debug("Sent packet")

	return seq, nil
}

// transmit allocates a new sequence number and sends a data frame under it.
func (c *Channel) transmit(sh wire.StreamHeader, payload []byte) (uint32, error) {
	if c.nextPacketSeq > wire.MaxPacketSeq {
		return 0, ErrSequenceExhausted
	}

	seq := c.nextPacketSeq
	c.nextPacketSeq++

	frame := wire.Frame{
		Channel: c.channelHeader(seq),
		Stream:  sh,
		Payload: payload,
	}

	data, err := frame.Encode(c.config.Auth)
	if err != nil {
		return seq, err
	}

	if err := c.sender.Send(data); err != nil {
		c.stats.SendFailures++
		return seq, fmt.Errorf("%w: seq %d: %w", ErrSendFailure, seq, err)
	}

	c.stats.PacketsSent++
	return seq, nil
}

// channelHeader for an outgoing data packet, piggybacking the latest peer
// sequence number received.
func (c *Channel) channelHeader(seq uint32) wire.ChannelHeader {
	ch := wire.ChannelHeader{ChannelID: c.config.ChannelID, PacketSeq: seq}
	if c.lastRecvSeq != 0 {
		ch.AckSeq = uint16(c.lastRecvSeq)
		ch.AckCount = 1
	}
	return ch
}

// track registers pp as pending and arms its retransmission timer.
func (c *Channel) track(pp *PendingPacket) {
	c.nextToken++
	pp.token = c.nextToken
	c.pending[pp.Seq] = pp
	c.armTimer(pp)
}

func (c *Channel) armTimer(pp *PendingPacket) {
	ev := Event{
		Kind:  EventRetransmissionTimeout,
		Epoch: c.epoch,
		Seq:   pp.Seq,
		Token: pp.token,
	}
	pp.timer = c.sched.Schedule(c.cc.RTO(), func() { c.Dispatch(ev) })
}

// Dispatch an asynchronous Event. Events of another epoch or for a replaced
// pending packet are ignored.
func (c *Channel) Dispatch(ev Event) {
	if ev.Epoch != c.epoch {
		log.WithFields(log.Fields{
			"channel": c.String(),
			"event":   ev.String(),
		}).Debug("Dropping event of another channel epoch")
		return
	}

	switch ev.Kind {
	case EventDatagram:
		c.HandleDatagram(ev.Data)

	case EventRetransmissionTimeout:
		if pp, ok := c.pending[ev.Seq]; !ok || pp.token != ev.Token {
			log.WithFields(log.Fields{
				"channel": c.String(),
				"event":   ev.String(),
			}).Debug("Ignoring stale retransmission timer")
			return
		}
		c.OnRetransmissionTimeout(ev.Seq)

	default:
		log.WithFields(log.Fields{
			"channel": c.String(),
			"event":   ev.String(),
		}).Warn("Dispatching unknown event kind")
	}
}

// Receiver returns a dgram.Receiver posting each datagram as an Event into the
// Channel's Scheduler. Datagrams still queued when the Channel is closed are
// dropped. The Receiver might be called from any goroutine.
func (c *Channel) Receiver() dgram.Receiver {
	epoch := c.epoch
	return func(b []byte) {
		c.sched.Post(func() {
			c.Dispatch(Event{Kind: EventDatagram, Epoch: epoch, Data: b})
		})
	}
}

// OnAckReceived processes the acknowledgement of a peer. The 16 bit wire
// value is interpreted as the sequence number closest above the last
// acknowledged one; each pending packet up to it is acknowledged.
func (c *Channel) OnAckReceived(ackSeq uint16) {
	if c.closed {
		return
	}

	ack := c.expandAck(ackSeq)
	if ack <= c.lastAckedPacketSeq || ack >= c.nextPacketSeq {
		c.stats.StaleAcks++
		log.WithFields(log.Fields{
			"channel":    c.String(),
			"ack":        ackSeq,
			"last-acked": c.lastAckedPacketSeq,
		}).Debug("Ignoring stale acknowledgement")
		return
	}

	now := c.sched.Now()
	var newlyAcked uint32
	var streams []uint16

	for seq := c.lastAckedPacketSeq + 1; seq <= ack; seq++ {
		pp, ok := c.pending[seq]
		if !ok {
			continue
		}

		pp.timer.Cancel()
		c.cc.OnRTTSample(now.Sub(pp.SentTime))

		delete(c.pending, seq)
		c.packetsInFlight--
		newlyAcked++
		streams = append(streams, pp.StreamHeader.StreamID)
	}

	c.lastAckedPacketSeq = ack
	c.cc.OnAck(newlyAcked)
	c.stats.Acknowledged += uint64(newlyAcked)

	log.WithFields(log.Fields{
		"channel":    c.String(),
		"ack":        ack,
		"acked":      newlyAcked,
		"congestion": c.cc.String(),
	}).Debug("Received acknowledgement")

	c.reporter(newAcknowledged(c, ack, newlyAcked, streams))
}

// expandAck maps a 16 bit acknowledgement onto the 24 bit sequence space.
func (c *Channel) expandAck(ackSeq uint16) uint32 {
	ack := c.lastAckedPacketSeq&^0xFFFF | uint32(ackSeq)
	if ack <= c.lastAckedPacketSeq {
		ack += 1 << 16
	}
	return ack
}

// OnRetransmissionTimeout handles the expired timer of packet seq. Untracked
// packets are ignored. Otherwise the congestion controller backs off and the
// packet is either retransmitted under a new sequence number or abandoned.
func (c *Channel) OnRetransmissionTimeout(seq uint32) {
	pp, ok := c.pending[seq]
	if c.closed || !ok {
		log.WithFields(log.Fields{
			"channel": c.String(),
			"seq":     seq,
		}).Debug("Ignoring timeout of untracked packet")
		return
	}

	pp.timer.Cancel()
	c.cc.OnTimeout()
	pp.RetransmitCount++

	if pp.RetransmitCount >= c.config.MaxRetransmits {
		delete(c.pending, seq)
		c.packetsInFlight--
		c.stats.Abandoned++

		log.WithFields(log.Fields{
			"channel":  c.String(),
			"seq":      seq,
			"stream":   pp.StreamHeader.StreamID,
			"attempts": pp.RetransmitCount,
		}).Error("Abandoning packet after exhausting its retransmissions")

		err := fmt.Errorf("%w: packet %d of stream %d after %d attempts",
			ErrRetransmitExhausted, seq, pp.StreamHeader.StreamID, pp.RetransmitCount)
		c.reporter(newDeliveryFailed(c, pp.StreamHeader.StreamID, seq, err))
		return
	}

	newSeq, err := c.transmit(pp.StreamHeader, pp.Payload)
	if err != nil {
		log.WithFields(log.Fields{
			"channel": c.String(),
			"seq":     seq,
			"error":   err,
		}).Warn("Retransmission failed, keeping packet pending")

		c.armTimer(pp)
		return
	}

	delete(c.pending, seq)
	c.track(&PendingPacket{
		Seq:             newSeq,
		StreamHeader:    pp.StreamHeader,
		Payload:         pp.Payload,
		SentTime:        c.sched.Now(),
		RetransmitCount: pp.RetransmitCount,
	})
	c.stats.Retransmitted++

	log.WithFields(log.Fields{
		"channel":    c.String(),
		"seq":        seq,
		"new-seq":    newSeq,
		"attempt":    pp.RetransmitCount,
		"congestion": c.cc.String(),
	}).Info("Retransmitted packet")
}

// CreateStream registers a new Stream for the request and returns its id.
// Ids start at one, zero is never used.
func (c *Channel) CreateStream(request interface{}) (uint16, error) {
	if c.closed {
		return 0, ErrChannelClosed
	}

	for i := 0; i < 1<<16; i++ {
		id := c.nextStreamID
		c.nextStreamID++
		if c.nextStreamID == 0 {
			c.nextStreamID = 1
		}

		if _, used := c.streams[id]; id == 0 || used {
			continue
		}

		c.streams[id] = newStream(id, c.config.ChannelID, request, false)
		c.stats.StreamsCreated++
		return id, nil
	}

	return 0, ErrStreamsExhausted
}

// Send the stream's whole message as one packet. A Stream sends exactly once;
// afterwards ErrStreamClosed is returned. ErrWindowFull and ErrSendFailure
// leave the Stream untouched, so Send might be retried.
func (c *Channel) Send(streamID uint16, payload []byte) (uint32, error) {
	s, ok := c.streams[streamID]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownStream, streamID)
	}
	if s.sendClosed {
		return 0, fmt.Errorf("%w: %v", ErrStreamClosed, s)
	}

	flags := wire.FlagPush | wire.FlagClose
	if !s.remote {
		flags |= wire.FlagInit
	}
	sh := wire.NewStreamHeader(streamID, uint16(s.bytesSent), flags)

	seq, err := c.sendPacket(sh, payload)
	if err != nil {
		return seq, err
	}

	s.sendClosed = true
	s.bytesSent += uint64(len(payload))
	return seq, nil
}

// CloseStream removes a Stream. Its pending packets are still retransmitted.
func (c *Channel) CloseStream(streamID uint16) error {
	s, ok := c.streams[streamID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownStream, streamID)
	}

	s.open = false
	delete(c.streams, streamID)

	log.WithFields(log.Fields{
		"channel":  c.String(),
		"stream":   streamID,
		"sent":     s.bytesSent,
		"received": s.bytesReceived,
	}).Debug("Closed stream")
	return nil
}

// Stream returns a registered Stream.
func (c *Channel) Stream(streamID uint16) (*Stream, bool) {
	s, ok := c.streams[streamID]
	return s, ok
}

// Close this Channel. All timers are cancelled, Streams and pending packets
// are dropped and late Events are ignored. Closing twice is a no-op.
func (c *Channel) Close() error {
	if c.closed {
		return nil
	}

	for seq, pp := range c.pending {
		pp.timer.Cancel()
		delete(c.pending, seq)
	}
	c.packetsInFlight = 0

	for id, s := range c.streams {
		s.open = false
		delete(c.streams, id)
	}

	c.closed = true
	c.epoch = nextEpoch()

	log.WithFields(log.Fields{
		"channel": c.String(),
		"stats":   c.stats.String(),
	}).Info("Closed channel")
	return nil
}

// IsClosed reports if Close was called.
func (c *Channel) IsClosed() bool {
	return c.closed
}

// Cwnd returns the congestion window in packets.
func (c *Channel) Cwnd() uint32 { return c.cc.Cwnd() }

// Ssthresh returns the slow start threshold in packets.
func (c *Channel) Ssthresh() uint32 { return c.cc.Ssthresh() }

// RTO returns the current retransmission timeout.
func (c *Channel) RTO() time.Duration { return c.cc.RTO() }

// SRTT returns the smoothed round trip time and whether it was measured.
func (c *Channel) SRTT() (time.Duration, bool) { return c.cc.SRTT() }

// State returns the congestion controller's state.
func (c *Channel) State() congestion.State { return c.cc.State() }

// Congestion exposes the controller, e.g., to overwrite values in tests.
func (c *Channel) Congestion() *congestion.Controller { return c.cc }

// PacketsInFlight returns the number of pending packets.
func (c *Channel) PacketsInFlight() int { return c.packetsInFlight }

// CanSend reports if the congestion window allows another packet.
func (c *Channel) CanSend() bool { return !c.closed && c.cc.CanSend(c.packetsInFlight) }

// LastAckedPacketSeq returns the highest acknowledged sequence number.
func (c *Channel) LastAckedPacketSeq() uint32 { return c.lastAckedPacketSeq }

// NextPacketSeq returns the sequence number the next packet will get.
func (c *Channel) NextPacketSeq() uint32 { return c.nextPacketSeq }

// Epoch returns the current incarnation's token.
func (c *Channel) Epoch() uint64 { return c.epoch }

// Stats returns a copy of the counters.
func (c *Channel) Stats() Stats { return c.stats }

// Streams returns the number of registered Streams.
func (c *Channel) Streams() int { return len(c.streams) }

// Pending returns a copy of the pending packet seq.
func (c *Channel) Pending(seq uint32) (PendingPacket, bool) {
	pp, ok := c.pending[seq]
	if !ok {
		return PendingPacket{}, false
	}
	return *pp, true
}

func (c *Channel) String() string {
	if c.config.Name != "" {
		return fmt.Sprintf("sst://%s/%d", c.config.Name, c.config.ChannelID)
	}
	return fmt.Sprintf("sst://%d", c.config.ChannelID)
}
