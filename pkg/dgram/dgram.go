// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package dgram

import "errors"

// ErrClosed is returned when sending on a closed Conn.
var ErrClosed = errors.New("datagram conn is closed")

// ErrTooLarge is returned for datagrams exceeding a substrate's limit.
var ErrTooLarge = errors.New("datagram is too large")

// MaxDatagramSize is the largest UDP payload over IPv4. QUIC datagrams are
// limited by the path MTU instead.
const MaxDatagramSize = 65507

// Sender hands one datagram to the substrate. A returned error means the
// datagram was rejected; a nil error does not imply delivery.
type Sender interface {
	Send(b []byte) error
}

// Receiver is called once per arriving datagram. The slice is owned by the
// Receiver afterwards.
type Receiver func(b []byte)

// Conn is a point to point datagram association.
type Conn interface {
	Sender

	// SetReceiver registers the Receiver for inbound datagrams. Datagrams
	// arriving without a Receiver are dropped, or held back by a Slot.
	SetReceiver(r Receiver)

	// Close this Conn. Afterwards, Send returns ErrClosed.
	Close() error

	// String describes the Conn's peer, e.g., "udp://127.0.0.1:8080".
	String() string
}

// Listener accepts Conns from remote peers.
type Listener interface {
	// Accept returns a channel delivering each newly seen peer's Conn. It is
	// closed together with the Listener.
	Accept() <-chan Conn

	Close() error

	// Addr returns the local address, e.g., to learn about a random port.
	Addr() string
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(b []byte) error

// Send calls f(b).
func (f SenderFunc) Send(b []byte) error {
	return f(b)
}
