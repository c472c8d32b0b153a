// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sst

import "fmt"

// Stream is one multiplexed sub-connection of a Channel. It is owned by its
// Channel and only refers to it by id.
type Stream struct {
	id        uint16
	channelID uint8
	request   interface{}

	open       bool
	sendClosed bool
	peerClosed bool
	remote     bool

	bytesSent     uint64
	bytesReceived uint64
	recv          []byte
}

func newStream(id uint16, channelID uint8, request interface{}, remote bool) *Stream {
	return &Stream{
		id:        id,
		channelID: channelID,
		request:   request,
		open:      true,
		remote:    remote,
	}
}

// ID of this Stream, unique within its Channel.
func (s *Stream) ID() uint16 {
	return s.id
}

// ChannelID of the owning Channel.
func (s *Stream) ChannelID() uint8 {
	return s.channelID
}

// Request returns the application's reference passed to CreateStream.
func (s *Stream) Request() interface{} {
	return s.request
}

// SetRequest replaces the application's reference, e.g., for accepted streams.
func (s *Stream) SetRequest(request interface{}) {
	s.request = request
}

// IsOpen reports if this Stream is still registered at its Channel.
func (s *Stream) IsOpen() bool {
	return s.open
}

// IsRemote reports if this Stream was opened by the peer.
func (s *Stream) IsRemote() bool {
	return s.remote
}

// PeerClosed reports if the peer marked its message as complete.
func (s *Stream) PeerClosed() bool {
	return s.peerClosed
}

// BytesSent returns the number of payload bytes sent, retransmissions excluded.
func (s *Stream) BytesSent() uint64 {
	return s.bytesSent
}

// BytesReceived returns the number of payload bytes received.
func (s *Stream) BytesReceived() uint64 {
	return s.bytesReceived
}

// Received returns the receive buffer, all payloads in their arrival order.
func (s *Stream) Received() []byte {
	return s.recv
}

func (s *Stream) String() string {
	return fmt.Sprintf("stream %d/%d", s.channelID, s.id)
}

func (s *Stream) deliver(payload []byte) {
	s.recv = append(s.recv, payload...)
	s.bytesReceived += uint64(len(payload))
}
