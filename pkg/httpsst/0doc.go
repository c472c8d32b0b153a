// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package httpsst maps HTTP/1.0 page loads onto the streams of an sst.Channel.
//
// The Client requests the pages of a workload one after another. Each request
// gets its own stream, carrying the request in one packet; the response is
// recognized as complete by its header terminator and Content-Length. Requests
// exceeding the congestion window are queued and drained on acknowledgements.
// The secondary requests of a page start after its primary one completed and a
// page timer bounds each page's duration.
//
// The Server answers such requests with a body of the requested size, one
// accept mode Channel per peer.
package httpsst
