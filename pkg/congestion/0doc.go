// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package congestion implements the channel-wide congestion controller.
//
// A Controller tracks the congestion window and slow start threshold, both
// counted in packets, together with a smoothed round trip time and the
// derived retransmission timeout. Its state machine is the TCP-like pair of
// SlowStart and CongestionAvoidance. All streams of a channel share one
// Controller; there is no per-stream fairness.
//
// A Controller is not safe for concurrent use. It is owned by its channel,
// which serializes every access on its event timeline.
package congestion
