// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sst

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/dtn7/sst-go/pkg/congestion"
	"github.com/dtn7/sst-go/pkg/sched"
	"github.com/dtn7/sst-go/pkg/wire"
)

// recordingSender keeps each sent datagram. Setting fail rejects them.
type recordingSender struct {
	datagrams [][]byte
	fail      bool
}

func (rs *recordingSender) Send(b []byte) error {
	if rs.fail {
		return errors.New("rejected by test")
	}
	rs.datagrams = append(rs.datagrams, b)
	return nil
}

func (rs *recordingSender) frames(t *testing.T) (frames []wire.Frame) {
	for _, b := range rs.datagrams {
		f, err := wire.Decode(b, wire.AuthPlaceholder)
		if err != nil {
			t.Fatal(err)
		}
		frames = append(frames, f)
	}
	return
}

func (rs *recordingSender) last(t *testing.T) wire.Frame {
	frames := rs.frames(t)
	if len(frames) == 0 {
		t.Fatalf("Nothing was sent")
	}
	return frames[len(frames)-1]
}

type testChannel struct {
	*Channel
	sim    *sched.Sim
	sender *recordingSender
	status []Status
}

func newTestChannel(t *testing.T, config Config) *testChannel {
	tc := &testChannel{
		sim:    sched.NewSim(time.Time{}),
		sender: &recordingSender{},
	}

	ch, err := NewChannel(config, tc.sim, tc.sender, func(s Status) {
		tc.status = append(tc.status, s)
	})
	if err != nil {
		t.Fatal(err)
	}
	tc.Channel = ch
	return tc
}

func (tc *testChannel) statusOf(kind StatusKind) (status []Status) {
	for _, s := range tc.status {
		if s.Kind == kind {
			status = append(status, s)
		}
	}
	return
}

func checkInvariants(t *testing.T, c *Channel) {
	t.Helper()

	if c.PacketsInFlight() != len(c.pending) {
		t.Fatalf("packetsInFlight %d differs from %d pending packets", c.PacketsInFlight(), len(c.pending))
	}
	if c.Cwnd() < 1 {
		t.Fatalf("cwnd is %d", c.Cwnd())
	}
	if c.LastAckedPacketSeq() > c.NextPacketSeq()-1 {
		t.Fatalf("lastAckedPacketSeq %d exceeds nextPacketSeq %d - 1", c.LastAckedPacketSeq(), c.NextPacketSeq())
	}
}

func TestChannelInitial(t *testing.T) {
	tc := newTestChannel(t, DefaultConfig())

	if tc.Cwnd() != 1 || tc.Ssthresh() != 65535 || tc.RTO() != time.Second || tc.State() != congestion.SlowStart {
		t.Fatalf("Unexpected initial congestion state: %v", tc.Congestion())
	}
	if tc.NextPacketSeq() != 1 || tc.LastAckedPacketSeq() != 0 || tc.PacketsInFlight() != 0 {
		t.Fatalf("Unexpected initial sequence state")
	}
	checkInvariants(t, tc.Channel)
}

func TestChannelSendPacket(t *testing.T) {
	tc := newTestChannel(t, DefaultConfig())

	seq, err := tc.SendPacket(1, []byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if seq != 1 {
		t.Fatalf("First packet got seq %d", seq)
	}

	f := tc.sender.last(t)
	if f.Channel.PacketSeq != 1 || f.Channel.ChannelID != wire.DefaultChannelID || f.Channel.AckCount != 0 {
		t.Fatalf("Unexpected channel header: %v", f.Channel)
	}
	if f.Stream.StreamID != 1 || !bytes.Equal(f.Payload, []byte("hello")) {
		t.Fatalf("Unexpected frame: %v", f)
	}

	pp, ok := tc.Pending(1)
	if !ok || pp.RetransmitCount != 0 || !pp.TimerActive() {
		t.Fatalf("Packet is not pending as expected: %v", pp)
	}

	if _, err := tc.SendPacket(1, []byte("world")); !errors.Is(err, ErrWindowFull) {
		t.Fatalf("Sending beyond cwnd resulted in %v", err)
	}
	if tc.NextPacketSeq() != 2 || len(tc.sender.datagrams) != 1 {
		t.Fatalf("Rejected send consumed a sequence number")
	}

	checkInvariants(t, tc.Channel)
}

func TestChannelSendFailure(t *testing.T) {
	tc := newTestChannel(t, DefaultConfig())
	tc.sender.fail = true

	if _, err := tc.SendPacket(1, []byte("lost")); !errors.Is(err, ErrSendFailure) {
		t.Fatalf("Rejected datagram resulted in %v", err)
	}
	if tc.PacketsInFlight() != 0 || tc.Stats().SendFailures != 1 {
		t.Fatalf("Rejected datagram is tracked")
	}

	tc.sender.fail = false
	if seq, err := tc.SendPacket(1, []byte("sent")); err != nil {
		t.Fatal(err)
	} else if seq != 2 {
		t.Fatalf("Sequence number after failure is %d, expected 2", seq)
	}

	checkInvariants(t, tc.Channel)
}

func TestChannelAckSlowStart(t *testing.T) {
	tc := newTestChannel(t, DefaultConfig())

	const n = 8
	for i := 1; i <= n; i++ {
		cwnd := tc.Cwnd()

		seq, err := tc.SendPacket(1, []byte{byte(i)})
		if err != nil {
			t.Fatal(err)
		}

		tc.sim.RunFor(50 * time.Millisecond)
		tc.OnAckReceived(uint16(seq))

		if tc.Cwnd() != cwnd+1 {
			t.Fatalf("After ack %d cwnd is %d, expected %d", i, tc.Cwnd(), cwnd+1)
		}
		checkInvariants(t, tc.Channel)
	}

	if tc.Cwnd() != 1+n {
		t.Fatalf("cwnd is %d after %d acks", tc.Cwnd(), n)
	}
	if srtt, ok := tc.SRTT(); !ok || srtt != 50*time.Millisecond {
		t.Fatalf("srtt is %v", srtt)
	}
	if tc.RTO() != 200*time.Millisecond {
		t.Fatalf("rto is %v", tc.RTO())
	}

	acks := tc.statusOf(StatusAcknowledged)
	if len(acks) != n || acks[n-1].Seq != n || acks[n-1].Count != 1 {
		t.Fatalf("Unexpected acknowledgement reports: %v", acks)
	}
}

func TestChannelCumulativeAck(t *testing.T) {
	config := DefaultConfig()
	config.InitialCwnd = 4
	tc := newTestChannel(t, config)

	for i := 0; i < 4; i++ {
		if _, err := tc.SendPacket(uint16(i+1), nil); err != nil {
			t.Fatal(err)
		}
	}

	tc.OnAckReceived(3)
	if tc.PacketsInFlight() != 1 || tc.LastAckedPacketSeq() != 3 || tc.Cwnd() != 7 {
		t.Fatalf("Cumulative ack: inFlight=%d lastAcked=%d cwnd=%d",
			tc.PacketsInFlight(), tc.LastAckedPacketSeq(), tc.Cwnd())
	}

	acks := tc.statusOf(StatusAcknowledged)
	if len(acks) != 1 || len(acks[0].Streams) != 3 || acks[0].Streams[2] != 3 {
		t.Fatalf("Unexpected report: %v", acks)
	}

	// Duplicate and future acks are stale
	tc.OnAckReceived(3)
	tc.OnAckReceived(2)
	tc.OnAckReceived(9)
	if tc.PacketsInFlight() != 1 || tc.LastAckedPacketSeq() != 3 || tc.Stats().StaleAcks != 3 {
		t.Fatalf("Stale acks changed the channel")
	}

	tc.OnAckReceived(4)
	if tc.PacketsInFlight() != 0 || tc.LastAckedPacketSeq() != 4 {
		t.Fatalf("Final ack did not clear the channel")
	}

	checkInvariants(t, tc.Channel)
}

func TestChannelAckExpansion(t *testing.T) {
	tc := newTestChannel(t, DefaultConfig())

	tests := []struct {
		lastAcked uint32
		ack       uint16
		expanded  uint32
	}{
		{0, 1, 1},
		{0, 0, 1 << 16},
		{65530, 65535, 65535},
		{65530, 4, 65540},
		{70000, 4465, 70001},
		{70000, 4464, 70000 + 1<<16},
	}

	for _, test := range tests {
		tc.lastAckedPacketSeq = test.lastAcked
		if exp := tc.expandAck(test.ack); exp != test.expanded {
			t.Fatalf("Expanding %d after %d resulted in %d, expected %d", test.ack, test.lastAcked, exp, test.expanded)
		}
	}
}

func TestChannelTimeoutRetransmission(t *testing.T) {
	config := DefaultConfig()
	config.InitialCwnd = 4
	config.InitialSsthresh = 4
	tc := newTestChannel(t, config)

	// Use up the sequence numbers 1 to 4
	for i := 0; i < 4; i++ {
		if _, err := tc.SendPacket(1, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}
	tc.OnAckReceived(4)
	tc.Congestion().SetCwnd(4)
	tc.Congestion().SetRTO(time.Second)

	seq, err := tc.SendPacket(2, []byte("request"))
	if err != nil {
		t.Fatal(err)
	} else if seq != 5 {
		t.Fatalf("Packet got seq %d, expected 5", seq)
	}

	tc.sim.RunFor(time.Second)

	if tc.Cwnd() != 1 || tc.Ssthresh() != 2 || tc.State() != congestion.SlowStart {
		t.Fatalf("Timeout resulted in %v", tc.Congestion())
	}
	if tc.RTO() != 2*time.Second {
		t.Fatalf("rto is %v", tc.RTO())
	}

	if _, ok := tc.Pending(5); ok {
		t.Fatalf("Packet 5 is still pending")
	}
	pp, ok := tc.Pending(6)
	if !ok || pp.RetransmitCount != 1 || !bytes.Equal(pp.Payload, []byte("request")) || pp.StreamHeader.StreamID != 2 {
		t.Fatalf("Retransmission is not pending as expected: %v", pp)
	}

	f := tc.sender.last(t)
	if f.Channel.PacketSeq != 6 || f.Stream.StreamID != 2 || !bytes.Equal(f.Payload, []byte("request")) {
		t.Fatalf("Retransmitted frame is %v", f)
	}
	checkInvariants(t, tc.Channel)

	tc.OnAckReceived(6)
	if tc.PacketsInFlight() != 0 || tc.LastAckedPacketSeq() != 6 || len(tc.pending) != 0 {
		t.Fatalf("Ack of retransmission did not clear the channel")
	}
	checkInvariants(t, tc.Channel)

	// The timer of the acked packet does not fire anymore
	sent := len(tc.sender.datagrams)
	tc.sim.Run()
	if len(tc.sender.datagrams) != sent {
		t.Fatalf("Something was sent after the final ack")
	}
}

func TestChannelNoSequenceReuse(t *testing.T) {
	config := DefaultConfig()
	config.InitialCwnd = 3
	tc := newTestChannel(t, config)

	for i := 0; i < 3; i++ {
		if _, err := tc.SendPacket(uint16(i+1), []byte("never acked")); err != nil {
			t.Fatal(err)
		}
	}

	tc.sim.Run()

	var last uint32
	for _, f := range tc.sender.frames(t) {
		if f.Channel.PacketSeq <= last {
			t.Fatalf("Sequence number %d issued after %d", f.Channel.PacketSeq, last)
		}
		last = f.Channel.PacketSeq
	}

	// Three packets, each sent once and retransmitted four times
	if len(tc.sender.datagrams) != 3*DefaultMaxRetransmits {
		t.Fatalf("Sent %d datagrams", len(tc.sender.datagrams))
	}
	checkInvariants(t, tc.Channel)
}

func TestChannelAbandon(t *testing.T) {
	tc := newTestChannel(t, DefaultConfig())

	id, err := tc.CreateStream("request")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tc.Send(id, []byte("GET / HTTP/1.0\r\n\r\n")); err != nil {
		t.Fatal(err)
	}

	start := tc.sim.Now()
	tc.sim.Run()

	if tc.PacketsInFlight() != 0 || len(tc.pending) != 0 {
		t.Fatalf("Abandoned packet is still pending")
	}
	if tc.sim.Step() {
		t.Fatalf("A timer is still active")
	}

	// 1s + 2s + 4s + 8s + 16s
	if elapsed := tc.sim.Elapsed(start); elapsed != 31*time.Second {
		t.Fatalf("Abandoned after %v", elapsed)
	}

	failed := tc.statusOf(StatusDeliveryFailed)
	if len(failed) != 1 || failed[0].StreamID != id || !errors.Is(failed[0].Err, ErrRetransmitExhausted) {
		t.Fatalf("Unexpected failure reports: %v", failed)
	}
	if tc.Stats().Abandoned != 1 || tc.Stats().Retransmitted != 4 {
		t.Fatalf("Unexpected stats: %v", tc.Stats())
	}

	// Late timeouts and acks are no-ops
	last := tc.NextPacketSeq() - 1
	tc.OnRetransmissionTimeout(last)
	tc.OnAckReceived(uint16(last))
	if tc.PacketsInFlight() != 0 || len(tc.statusOf(StatusDeliveryFailed)) != 1 {
		t.Fatalf("Late callbacks changed the channel")
	}
	checkInvariants(t, tc.Channel)

	// The channel keeps working for other streams
	if s, ok := tc.Stream(id); !ok || !s.IsOpen() {
		t.Fatalf("Stream was removed by the channel")
	}
	id2, _ := tc.CreateStream(nil)
	if _, err := tc.Send(id2, []byte("next")); err != nil {
		t.Fatal(err)
	}
}

func TestChannelStaleTimer(t *testing.T) {
	tc := newTestChannel(t, DefaultConfig())

	seq, _ := tc.SendPacket(1, []byte("x"))
	pp, _ := tc.Pending(seq)
	token := pp.token

	tc.OnAckReceived(uint16(seq))
	cwnd := tc.Cwnd()

	// Both the direct call and a late event are ignored
	tc.OnRetransmissionTimeout(seq)
	tc.Dispatch(Event{Kind: EventRetransmissionTimeout, Epoch: tc.Epoch(), Seq: seq, Token: token})
	if pp.timer.Cancel() {
		t.Fatalf("Cancelling the acked packet's timer succeeded")
	}

	if tc.PacketsInFlight() != 0 || tc.Cwnd() != cwnd {
		t.Fatalf("Stale timer changed the channel")
	}

	// An event carrying a wrong token or epoch is ignored as well
	seq, _ = tc.SendPacket(1, []byte("y"))
	tc.Dispatch(Event{Kind: EventRetransmissionTimeout, Epoch: tc.Epoch(), Seq: seq, Token: token})
	tc.Dispatch(Event{Kind: EventRetransmissionTimeout, Epoch: tc.Epoch() + 1, Seq: seq, Token: token + 1})
	if _, ok := tc.Pending(seq); !ok || tc.Cwnd() != cwnd {
		t.Fatalf("Stale event was processed")
	}
	checkInvariants(t, tc.Channel)
}

func TestChannelClose(t *testing.T) {
	config := DefaultConfig()
	config.InitialCwnd = 4
	tc := newTestChannel(t, config)

	id, _ := tc.CreateStream(nil)
	for i := 0; i < 3; i++ {
		if _, err := tc.SendPacket(id, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	epoch := tc.Epoch()
	if err := tc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := tc.Close(); err != nil {
		t.Fatal(err)
	}

	if tc.Epoch() == epoch || tc.PacketsInFlight() != 0 || tc.Streams() != 0 {
		t.Fatalf("Close left state behind")
	}

	sent := len(tc.sender.datagrams)
	tc.sim.Run()
	tc.HandleDatagram(make([]byte, wire.Overhead))
	if len(tc.sender.datagrams) != sent {
		t.Fatalf("Closed channel sent a datagram")
	}

	if _, err := tc.SendPacket(id, nil); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("Sending on a closed channel resulted in %v", err)
	}
	if _, err := tc.CreateStream(nil); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("Creating a stream on a closed channel resulted in %v", err)
	}
}

func TestConfigCheckValid(t *testing.T) {
	tests := []struct {
		config func(*Config)
		valid  bool
	}{
		{func(c *Config) {}, true},
		{func(c *Config) { c.Auth = wire.AuthCRC16; c.Accept = true }, true},
		{func(c *Config) { c.MaxRetransmits = 0 }, false},
		{func(c *Config) { c.Auth = 42 }, false},
		{func(c *Config) { c.InitialSsthresh = 1 }, false},
		{func(c *Config) { c.InitialRTO = -time.Second }, false},
		{func(c *Config) { c.InitialRTO = time.Hour }, false},
	}

	for i, test := range tests {
		config := DefaultConfig()
		test.config(&config)

		if err := config.CheckValid(); (err == nil) != test.valid {
			t.Fatalf("Test %d: error state was not expected; valid := %t, got := %v", i, test.valid, err)
		}
	}
}
