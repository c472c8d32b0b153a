// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrMalformedPacket is returned for frames which cannot be decoded.
	ErrMalformedPacket = errors.New("malformed packet")

	// ErrBadAuthenticator is returned for frames whose trailer does not verify.
	// It wraps ErrMalformedPacket, such frames are treated alike.
	ErrBadAuthenticator = fmt.Errorf("%w: authenticator mismatch", ErrMalformedPacket)
)

// Frame is one datagram of the channel protocol.
type Frame struct {
	Channel ChannelHeader
	Stream  StreamHeader
	Payload []byte

	// Authenticator holds the trailer of a decoded frame. It is ignored on
	// encoding, where the AuthType computes the value.
	Authenticator uint32
}

// IsAckOnly reports if this frame carries acknowledgement information only.
func (f Frame) IsAckOnly() bool {
	return f.Channel.PacketSeq == 0 && len(f.Payload) == 0
}

func (f Frame) String() string {
	return fmt.Sprintf("Frame(%v, %v, payload=%d bytes)", f.Channel, f.Stream, len(f.Payload))
}

// Len returns the encoded size of this Frame.
func (f Frame) Len() int {
	return Overhead + len(f.Payload)
}

// Encode this Frame into a new byte slice.
func (f Frame) Encode(auth AuthType) ([]byte, error) {
	if err := f.Channel.CheckValid(); err != nil {
		return nil, err
	}
	if err := f.Stream.CheckValid(); err != nil {
		return nil, err
	}

	buf := make([]byte, f.Len())
	f.Channel.put(buf[0:ChannelHeaderLen])
	f.Stream.put(buf[ChannelHeaderLen : ChannelHeaderLen+StreamHeaderLen])
	copy(buf[ChannelHeaderLen+StreamHeaderLen:], f.Payload)

	trailer := len(buf) - TrailerLen
	binary.BigEndian.PutUint32(buf[trailer:], auth.Sum(buf[:trailer]))

	return buf, nil
}

// Marshal this Frame into a Writer.
func (f Frame) Marshal(w io.Writer, auth AuthType) error {
	buf, err := f.Encode(auth)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// Decode a Frame from a received datagram. The payload is copied, data may
// be reused by the caller afterwards.
func Decode(data []byte, auth AuthType) (f Frame, err error) {
	if len(data) < Overhead {
		err = fmt.Errorf("%w: %d bytes, at least %d required", ErrMalformedPacket, len(data), Overhead)
		return
	}

	trailer := len(data) - TrailerLen
	f.Authenticator = binary.BigEndian.Uint32(data[trailer:])
	if !auth.Verify(data[:trailer], f.Authenticator) {
		err = fmt.Errorf("%w (%v, got %#08x)", ErrBadAuthenticator, auth, f.Authenticator)
		return
	}

	f.Channel.parse(data[0:ChannelHeaderLen])
	f.Stream.parse(data[ChannelHeaderLen : ChannelHeaderLen+StreamHeaderLen])

	if payload := data[ChannelHeaderLen+StreamHeaderLen : trailer]; len(payload) > 0 {
		f.Payload = make([]byte, len(payload))
		copy(f.Payload, payload)
	}

	return
}
