// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package wsdg

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dtn7/sst-go/pkg/dgram"
)

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

func TestDialListener(t *testing.T) {
	l := NewListener("test")
	srv := httptest.NewServer(l)
	defer srv.Close()

	accepted := make(chan dgram.Conn, 1)
	go func() {
		accepted <- <-l.Accept()
	}()

	client, err := Dial("ws" + strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatal(err)
	}

	clientChan := make(chan []byte, 16)
	client.SetReceiver(func(b []byte) { clientChan <- b })

	// Sent before the server side is accepted.
	if err := client.Send([]byte("hello")); err != nil {
		t.Fatal(err)
	}

	var server dgram.Conn
	select {
	case server = <-accepted:
	case <-time.After(time.Second):
		t.Fatalf("Listener did not accept the peer")
	}

	serverChan := make(chan []byte, 16)
	server.SetReceiver(func(b []byte) { serverChan <- b })
	expectDatagram(t, serverChan, "hello")

	for _, msg := range []string{"one", "two", "three"} {
		if err := server.Send([]byte(msg)); err != nil {
			t.Fatal(err)
		}
	}
	for _, msg := range []string{"one", "two", "three"} {
		expectDatagram(t, clientChan, msg)
	}

	if err := client.Send(make([]byte, MaxMessageSize+1)); !errors.Is(err, dgram.ErrTooLarge) {
		t.Fatalf("Oversized datagram returned %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatal(err)
	}
	if err := client.Send([]byte("gone")); !errors.Is(err, dgram.ErrClosed) {
		t.Fatalf("Closed conn returned %v", err)
	}

	if err := server.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestListenerClose(t *testing.T) {
	l := NewListener("test")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	if _, ok := <-l.Accept(); ok {
		t.Fatalf("Accept channel is still open")
	}

	srv := httptest.NewServer(l)
	defer srv.Close()

	if _, err := Dial("ws" + strings.TrimPrefix(srv.URL, "http")); err == nil {
		t.Fatalf("Dialing a closed listener succeeded")
	}
}
