// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import "strings"

// StreamFlags are the three flag bits of a StreamHeader.
type StreamFlags uint8

const (
	// FlagPush asks the receiver to deliver buffered data immediately.
	FlagPush StreamFlags = 0x01

	// FlagClose marks the last payload of a stream.
	FlagClose StreamFlags = 0x02

	// FlagInit marks the first payload of a newly created stream.
	FlagInit StreamFlags = 0x04

	flagMask StreamFlags = 0x07
)

// Has returns true if a given flag or mask of flags is set.
func (sf StreamFlags) Has(flag StreamFlags) bool {
	return (sf & flag) != 0
}

func (sf StreamFlags) String() string {
	var fields []string

	checks := []struct {
		field StreamFlags
		text  string
	}{
		{FlagInit, "INIT"},
		{FlagClose, "CLOSE"},
		{FlagPush, "PUSH"},
	}

	for _, check := range checks {
		if sf.Has(check.field) {
			fields = append(fields, check.text)
		}
	}

	return strings.Join(fields, ",")
}
