// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import (
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/howeyc/crc16"
)

// AuthType selects how the four byte frame trailer is computed and checked.
type AuthType uint8

const (
	// AuthPlaceholder writes PlaceholderAuthenticator and never checks the
	// received value.
	AuthPlaceholder AuthType = 0

	// AuthCRC16 stores "a standard X-25 CRC-16" of the preceding bytes in the
	// lower half of the trailer.
	AuthCRC16 AuthType = 1

	// AuthCRC32C stores a CRC32C (Castagnoli) of the preceding bytes.
	AuthCRC32C AuthType = 2
)

// PlaceholderAuthenticator is the constant trailer of unauthenticated frames.
const PlaceholderAuthenticator uint32 = 0x12345678

var (
	crc16table = crc16.MakeTable(crc16.CCITT)
	crc32table = crc32.MakeTable(crc32.Castagnoli)
)

// ParseAuthType from its configuration name. An empty name yields AuthPlaceholder.
func ParseAuthType(name string) (AuthType, error) {
	switch strings.ToLower(name) {
	case "", "none", "placeholder":
		return AuthPlaceholder, nil
	case "crc16":
		return AuthCRC16, nil
	case "crc32c", "crc32":
		return AuthCRC32C, nil
	default:
		return AuthPlaceholder, fmt.Errorf("unknown authenticator %q", name)
	}
}

func (at AuthType) String() string {
	switch at {
	case AuthPlaceholder:
		return "placeholder"
	case AuthCRC16:
		return "crc16"
	case AuthCRC32C:
		return "crc32c"
	default:
		return "unknown"
	}
}

// Sum computes the trailer value for the given frame bytes, excluding the trailer.
func (at AuthType) Sum(data []byte) uint32 {
	switch at {
	case AuthCRC16:
		return uint32(crc16.Checksum(data, crc16table))
	case AuthCRC32C:
		return crc32.Checksum(data, crc32table)
	default:
		return PlaceholderAuthenticator
	}
}

// Verify a received trailer value. The placeholder accepts everything.
func (at AuthType) Verify(data []byte, sum uint32) bool {
	if at == AuthPlaceholder {
		return true
	}
	return at.Sum(data) == sum
}
