// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package dgram describes the unreliable datagram substrate below a channel.
//
// A channel only needs to send byte slices and to be told about each arriving
// datagram. The subpackages implement this for a simulated link (simlink),
// plain UDP (udp), QUIC datagrams (quicdg) and WebSocket messages (wsdg).
//
// Conns backed by real network I/O call their receiver from an internal
// goroutine. Such receivers are expected to hand the data over to their
// sched.Scheduler, e.g., by Loop.Post, instead of touching channel state.
package dgram
