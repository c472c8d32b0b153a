// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package wire

// MaxWindow is the largest window exponent, also the one advertised by default.
const MaxWindow uint8 = 31

// EncodeWindow returns the smallest exponent e with 2^e >= size, capped at MaxWindow.
func EncodeWindow(size uint64) uint8 {
	var e uint8
	for e < MaxWindow && uint64(1)<<e < size {
		e++
	}
	return e
}

// DecodeWindow returns the window size in bytes for an exponent.
func DecodeWindow(e uint8) uint64 {
	if e > MaxWindow {
		e = MaxWindow
	}
	return uint64(1) << e
}
