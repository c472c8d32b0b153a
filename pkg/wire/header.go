// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import (
	"encoding/binary"
	"fmt"
)

const (
	// ChannelHeaderLen is the encoded size of a ChannelHeader.
	ChannelHeaderLen = 7

	// StreamHeaderLen is the encoded size of a StreamHeader.
	StreamHeaderLen = 5

	// TrailerLen is the encoded size of the authenticator.
	TrailerLen = 4

	// Overhead is the size of a frame without any payload.
	Overhead = ChannelHeaderLen + StreamHeaderLen + TrailerLen

	// MaxPacketSeq is the largest packet sequence number representable on the wire.
	MaxPacketSeq uint32 = 1<<24 - 1

	// DefaultChannelID is used when no channel id was configured.
	DefaultChannelID uint8 = 1
)

// ChannelHeader is the per-packet header of the channel layer. It carries the
// packet's own sequence number and piggybacks acknowledgement information.
type ChannelHeader struct {
	ChannelID uint8
	PacketSeq uint32 // 24 bits on the wire
	AckSeq    uint16
	AckCount  uint8
}

// CheckValid checks that all fields fit into their wire representation.
func (ch ChannelHeader) CheckValid() error {
	if ch.PacketSeq > MaxPacketSeq {
		return fmt.Errorf("ChannelHeader: packet sequence number %d exceeds 24 bits", ch.PacketSeq)
	}
	return nil
}

func (ch ChannelHeader) String() string {
	return fmt.Sprintf("ChannelHeader(channel=%d, seq=%d, ack=%d, ackCount=%d)",
		ch.ChannelID, ch.PacketSeq, ch.AckSeq, ch.AckCount)
}

func (ch ChannelHeader) put(b []byte) {
	b[0] = ch.ChannelID
	b[1] = byte(ch.PacketSeq >> 16)
	b[2] = byte(ch.PacketSeq >> 8)
	b[3] = byte(ch.PacketSeq)
	binary.BigEndian.PutUint16(b[4:6], ch.AckSeq)
	b[6] = ch.AckCount
}

func (ch *ChannelHeader) parse(b []byte) {
	ch.ChannelID = b[0]
	ch.PacketSeq = uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	ch.AckSeq = binary.BigEndian.Uint16(b[4:6])
	ch.AckCount = b[6]
}

// StreamHeader addresses a stream within a channel.
type StreamHeader struct {
	StreamID uint16
	ByteSeq  uint16
	Window   uint8 // 5 bits, exponential encoding
	Flags    StreamFlags
}

// NewStreamHeader for a stream, advertising the maximum window.
func NewStreamHeader(streamID uint16, byteSeq uint16, flags StreamFlags) StreamHeader {
	return StreamHeader{
		StreamID: streamID,
		ByteSeq:  byteSeq,
		Window:   MaxWindow,
		Flags:    flags,
	}
}

// CheckValid checks that the window and flags fit into their five and three bits.
func (sh StreamHeader) CheckValid() error {
	if sh.Window > MaxWindow {
		return fmt.Errorf("StreamHeader: window %d exceeds 5 bits", sh.Window)
	}
	if sh.Flags > flagMask {
		return fmt.Errorf("StreamHeader: flags %#x exceed 3 bits", uint8(sh.Flags))
	}
	return nil
}

func (sh StreamHeader) String() string {
	return fmt.Sprintf("StreamHeader(stream=%d, byteSeq=%d, window=%d, flags=%v)",
		sh.StreamID, sh.ByteSeq, sh.Window, sh.Flags)
}

func (sh StreamHeader) put(b []byte) {
	binary.BigEndian.PutUint16(b[0:2], sh.StreamID)
	binary.BigEndian.PutUint16(b[2:4], sh.ByteSeq)
	b[4] = sh.Window<<3 | uint8(sh.Flags)&uint8(flagMask)
}

func (sh *StreamHeader) parse(b []byte) {
	sh.StreamID = binary.BigEndian.Uint16(b[0:2])
	sh.ByteSeq = binary.BigEndian.Uint16(b[2:4])
	sh.Window = b[4] >> 3
	sh.Flags = StreamFlags(b[4]) & flagMask
}
