// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package wire implements the bit-exact frame format of the Structured Stream
// Transport (SST) channel protocol.
//
// A frame consists of a channel header, a stream header, an arbitrary payload
// and a trailing four byte authenticator:
//
//	ChannelHeader: channelId:u8, packetSeqNum:24 bits, ackSeqNum:u16, ackCount:u8
//	StreamHeader:  localStreamId:u16, byteSeqNum:u16, window:5 bits, flags:3 bits
//	Trailer:       authenticator:u32
//
// All multi-byte fields are big endian. The window and flags fields share one
// octet, the window occupying the five most significant bits. Packing and
// unpacking is done explicitly on byte slices; no struct layout is relied upon.
//
// The authenticator is a placeholder by default: a constant is written and
// nothing is verified. CRC16 and CRC32C can be selected to turn it into an
// integrity check, see AuthType.
package wire
