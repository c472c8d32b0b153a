// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sst implements a channel carrying multiplexed streams over an
// unreliable datagram substrate.
//
// A Channel numbers each transmitted packet, keeps it as pending until it was
// acknowledged and retransmits it under a new sequence number after the
// retransmission timeout expired. Sequence numbers are never reused. The
// congestion window, shared by all streams, bounds the number of pending
// packets; a full window is reported by ErrWindowFull and it is the caller's
// duty to queue and retry on the next StatusAcknowledged.
//
// Streams are lightweight, write-once sub-connections. A stream's message is
// sent as one packet. Received payloads are appended to a stream's buffer in
// arrival order and reported as StatusStreamData; recognizing a complete
// message is up to the application on top.
//
// A Channel is not safe for concurrent use. All methods, inbound datagrams and
// timer callbacks must run on the Channel's sched.Scheduler.
package sst
