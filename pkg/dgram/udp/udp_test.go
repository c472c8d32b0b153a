// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package udp

import (
	"errors"
	"testing"
	"time"

	"github.com/dtn7/sst-go/pkg/dgram"
)

func receiveChan() (dgram.Receiver, chan []byte) {
	ch := make(chan []byte, 16)
	return func(b []byte) { ch <- b }, ch
}

func expectDatagram(t *testing.T, ch chan []byte, expected string) {
	t.Helper()

	select {
	case b := <-ch:
		if string(b) != expected {
			t.Fatalf("Received %q, expected %q", b, expected)
		}
	case <-time.After(time.Second):
		t.Fatalf("Timed out waiting for %q", expected)
	}
}

func TestDialListen(t *testing.T) {
	l, err := Listen("127.0.0.1:0", Config{ReadBuffer: 1 << 16})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	client, err := Dial(l.Addr(), Config{MaxDatagramSize: 1024})
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	clientRecv, clientChan := receiveChan()
	client.SetReceiver(clientRecv)

	for _, msg := range []string{"hello", "world"} {
		if err := client.Send([]byte(msg)); err != nil {
			t.Fatal(err)
		}
	}

	var server dgram.Conn
	select {
	case server = <-l.Accept():
	case <-time.After(time.Second):
		t.Fatalf("Listener did not accept the peer")
	}

	// Both datagrams were held back until now.
	serverRecv, serverChan := receiveChan()
	server.SetReceiver(serverRecv)
	expectDatagram(t, serverChan, "hello")
	expectDatagram(t, serverChan, "world")

	if err := server.Send([]byte("moin")); err != nil {
		t.Fatal(err)
	}
	expectDatagram(t, clientChan, "moin")

	if err := client.Send(make([]byte, 1025)); !errors.Is(err, dgram.ErrTooLarge) {
		t.Fatalf("Oversized datagram returned %v", err)
	}

	if err := server.Close(); err != nil {
		t.Fatal(err)
	}
	if err := server.Send([]byte("gone")); !errors.Is(err, dgram.ErrClosed) {
		t.Fatalf("Closed conn returned %v", err)
	}

	// The peer is accepted anew after its Conn was closed.
	if err := client.Send([]byte("again")); err != nil {
		t.Fatal(err)
	}
	select {
	case server = <-l.Accept():
		if server.String() != "udp://"+client.sock.LocalAddr().String() {
			t.Fatalf("Accepted unexpected peer %v", server)
		}
	case <-time.After(time.Second):
		t.Fatalf("Listener did not accept the peer again")
	}
}

func TestListenerClose(t *testing.T) {
	l, err := Listen("127.0.0.1:0", Config{})
	if err != nil {
		t.Fatal(err)
	}

	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Closing twice errored: %v", err)
	}

	if _, ok := <-l.Accept(); ok {
		t.Fatalf("Accept channel is still open")
	}
}

func TestConfigCheckValid(t *testing.T) {
	tests := []struct {
		config Config
		valid  bool
	}{
		{Config{}, true},
		{Config{ReadBuffer: 1 << 20, WriteBuffer: 1 << 20}, true},
		{Config{ReadBuffer: -1}, false},
		{Config{MaxDatagramSize: MaxDatagramSize + 1}, false},
	}

	for _, test := range tests {
		if err := test.config.CheckValid(); (err == nil) != test.valid {
			t.Fatalf("Config %v: expected valid = %t, got %v", test.config, test.valid, err)
		}
	}
}
