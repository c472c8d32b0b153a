// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sst

import "errors"

var (
	// ErrWindowFull is returned if the congestion window does not allow another
	// packet in flight. The caller must retry after an acknowledgement.
	ErrWindowFull = errors.New("congestion window is full")

	// ErrSendFailure wraps errors of the datagram substrate.
	ErrSendFailure = errors.New("datagram send failed")

	// ErrUnknownStream is returned for stream ids not registered at the Channel.
	ErrUnknownStream = errors.New("unknown stream")

	// ErrStreamClosed is returned when sending on a stream which has already
	// sent its message.
	ErrStreamClosed = errors.New("stream is closed for sending")

	// ErrRetransmitExhausted is reported for packets abandoned after their
	// last retransmission attempt.
	ErrRetransmitExhausted = errors.New("retransmission attempts exhausted")

	// ErrChannelClosed is returned by a closed Channel.
	ErrChannelClosed = errors.New("channel is closed")

	// ErrStreamsExhausted is returned if no free stream id is left.
	ErrStreamsExhausted = errors.New("no free stream id left")

	// ErrSequenceExhausted is returned when the 24 bit packet sequence space
	// is used up. Since numbers are never reused, the Channel cannot continue.
	ErrSequenceExhausted = errors.New("packet sequence numbers exhausted")
)
