// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import "testing"

func TestWindowEncoding(t *testing.T) {
	tests := []struct {
		size uint64
		exp  uint8
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 2},
		{1024, 10},
		{1025, 11},
		{1 << 31, 31},
		{1 << 40, 31},
	}

	for _, test := range tests {
		if e := EncodeWindow(test.size); e != test.exp {
			t.Fatalf("EncodeWindow(%d) = %d, expected %d", test.size, e, test.exp)
		}
		if test.size <= 1<<31 && DecodeWindow(test.exp) < test.size {
			t.Fatalf("DecodeWindow(%d) = %d is smaller than %d", test.exp, DecodeWindow(test.exp), test.size)
		}
	}
}

func TestStreamFlags(t *testing.T) {
	sf := FlagInit | FlagPush
	if !sf.Has(FlagInit) || !sf.Has(FlagPush) || sf.Has(FlagClose) {
		t.Fatalf("Flags %v are wrong", sf)
	}
	if s := sf.String(); s != "INIT,PUSH" {
		t.Fatalf("Flags' string is %q", s)
	}
}
