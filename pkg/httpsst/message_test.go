// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package httpsst

import (
	"errors"
	"math"
	"testing"

	"github.com/dtn7/sst-go/pkg/dgram"
	"github.com/dtn7/sst-go/pkg/wire"
)

func TestRequestPath(t *testing.T) {
	tests := []struct {
		url  string
		path string
	}{
		{"/index.html", "/index.html"},
		{"GET /images/a.gif HTTP/1.0", "/images/a.gif"},
		{"http://example.com/foo?bar=1", "/foo?bar=1"},
		{"http://example.com", "/"},
		{"", "/"},
	}

	for _, test := range tests {
		if path := RequestPath(test.url); path != test.path {
			t.Fatalf("RequestPath(%q) = %q, expected %q", test.url, path, test.path)
		}
	}
}

func TestRequestFormat(t *testing.T) {
	data := FormatRequest("/index.html", 2048, "example.com", "sst-go")
	expected := "GET /index.html?size=2048 HTTP/1.0\r\nHost: example.com\r\nUser-Agent: sst-go\r\n\r\n"
	if string(data) != expected {
		t.Fatalf("Request is %q", data)
	}

	if _, complete, _ := ParseRequest(data[:20]); complete {
		t.Fatalf("Partial request is complete")
	}

	req, complete, err := ParseRequest(data)
	if err != nil || !complete {
		t.Fatalf("Parsing request failed: %v", err)
	}
	if req.Method != "GET" || req.URL.Path != "/index.html" || req.Host != "example.com" {
		t.Fatalf("Unexpected request %v", req)
	}
	if size := RequestedSize(req, 1024); size != 2048 {
		t.Fatalf("Requested size is %d", size)
	}

	req, _, _ = ParseRequest(FormatRequest("/q?a=b", 7, "h", "u"))
	if size := RequestedSize(req, 1024); size != 7 || req.URL.Query().Get("a") != "b" {
		t.Fatalf("Requested size is %d", size)
	}

	req, _, _ = ParseRequest([]byte("GET /nosize HTTP/1.0\r\n\r\n"))
	if size := RequestedSize(req, 1024); size != 1024 {
		t.Fatalf("Default size is %d", size)
	}
}

func mustResponse(t *testing.T, size uint64) []byte {
	t.Helper()

	resp, err := FormatResponse(size)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestResponseComplete(t *testing.T) {
	resp := mustResponse(t, 100)

	header := len(resp) - 100
	if string(resp[:header]) != "HTTP/1.0 200 OK\r\nContent-Type: text/html\r\nContent-Length: 100\r\n\r\n" {
		t.Fatalf("Unexpected response header %q", resp[:header])
	}

	tests := []struct {
		data     []byte
		complete bool
	}{
		{resp, true},
		{resp[:header-1], false},
		{resp[:header], false},
		{resp[:len(resp)-1], false},
		{append(append([]byte{}, resp...), 'X'), true},
		{[]byte("HTTP/1.0 200 OK\r\n\r\n"), true},
		{[]byte("garbage\r\n\r\n"), true},
		{mustResponse(t, 0), true},
	}

	for i, test := range tests {
		if complete := ResponseComplete(test.data); complete != test.complete {
			t.Fatalf("Test %d: complete is %t, expected %t", i, complete, test.complete)
		}
	}
}

func TestFormatResponseLimit(t *testing.T) {
	for _, size := range []uint64{MaxBodySize + 1, 100000000000, math.MaxUint64} {
		if _, err := FormatResponse(size); !errors.Is(err, ErrResponseTooLarge) {
			t.Fatalf("Size %d: expected ErrResponseTooLarge, got %v", size, err)
		}
	}
}

func TestMaxResponseSize(t *testing.T) {
	max := MaxResponseSize(dgram.MaxDatagramSize)
	if max == 0 || max >= dgram.MaxDatagramSize {
		t.Fatalf("Unexpected maximum %d", max)
	}

	resp := mustResponse(t, max)
	if l := len(resp) + wire.Overhead; l > dgram.MaxDatagramSize {
		t.Fatalf("Response of %d bytes exceeds datagram size", l)
	}

	if max := MaxResponseSize(wire.Overhead); max != 0 {
		t.Fatalf("Tiny datagrams allow %d bytes", max)
	}
}
