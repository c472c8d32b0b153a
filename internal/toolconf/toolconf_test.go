// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package toolconf

import (
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/dtn7/sst-go/pkg/sst"
	"github.com/dtn7/sst-go/pkg/wire"
)

func TestChannelConf(t *testing.T) {
	tests := []struct {
		data   string
		valid  bool
		config func() sst.Config
	}{
		{"", true, sst.DefaultConfig},
		{
			`channel-id = 0
			max-retransmits = 3
			auth = "crc32c"
			initial-cwnd = 4
			initial-rto = "500ms"`,
			true,
			func() sst.Config {
				c := sst.DefaultConfig()
				c.ChannelID = 0
				c.MaxRetransmits = 3
				c.Auth = wire.AuthCRC32C
				c.InitialCwnd = 4
				c.InitialRTO = 500 * time.Millisecond
				return c
			},
		},
		{`auth = "md5"`, false, nil},
		{`initial-rto = "soon"`, false, nil},
		{`initial-rto = "-1s"`, false, nil},
		{`initial-ssthresh = 1`, false, nil},
	}

	for _, test := range tests {
		var cc ChannelConf
		if _, err := toml.Decode(test.data, &cc); err != nil {
			t.Fatalf("Decoding %q failed: %v", test.data, err)
		}

		conf, err := cc.Config()
		if (err == nil) != test.valid {
			t.Fatalf("%q: expected valid = %t, got %v", test.data, test.valid, err)
		} else if !test.valid {
			continue
		}

		if expected := test.config(); conf != expected {
			t.Fatalf("%q: got %v, expected %v", test.data, conf, expected)
		}
	}
}

func TestParseDuration(t *testing.T) {
	if d, err := ParseDuration("x", "", time.Second); err != nil || d != time.Second {
		t.Fatalf("Empty value: %v, %v", d, err)
	}
	if d, err := ParseDuration("x", "1m30s", 0); err != nil || d != 90*time.Second {
		t.Fatalf("1m30s: %v, %v", d, err)
	}
	if _, err := ParseDuration("x", "1 minute", 0); err == nil {
		t.Fatalf("Invalid duration was parsed")
	}
}
