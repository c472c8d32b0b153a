// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package httpsst

import (
	"bytes"
	"testing"
	"time"

	"github.com/dtn7/sst-go/pkg/dgram"
	"github.com/dtn7/sst-go/pkg/dgram/simlink"
	"github.com/dtn7/sst-go/pkg/sched"
	"github.com/dtn7/sst-go/pkg/sst"
)

func TestServerResponse(t *testing.T) {
	sim := sched.NewSim(time.Time{})

	link, _ := simlink.New(sim, testLink(), "client", "server")

	serverConf := DefaultServerConfig()
	serverConf.MaxSize = 4096
	server, err := NewServer(serverConf, sim)
	if err != nil {
		t.Fatal(err)
	}
	if err := server.AddConn(link.B()); err != nil {
		t.Fatal(err)
	}
	if err := server.AddConn(link.B()); err == nil {
		t.Fatalf("Registering a peer twice succeeded")
	}

	responses := map[uint16][]byte{}
	var client *sst.Channel
	client, err = sst.NewChannel(sst.DefaultConfig(), sim, link.A(), func(s sst.Status) {
		if s.Kind == sst.StatusStreamData {
			stream, _ := client.Stream(s.StreamID)
			responses[s.StreamID] = stream.Received()
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	client.Congestion().SetCwnd(4)
	link.A().SetReceiver(client.Receiver())

	requests := [][]byte{
		FormatRequest("/small", 10, "example.com", "test"),
		FormatRequest("/huge", 100000, "example.com", "test"),
		[]byte("GET /default HTTP/1.0\r\n\r\n"),
		[]byte("this is no http\r\n\r\n"),
	}
	for _, req := range requests {
		id, _ := client.CreateStream(nil)
		if _, err := client.Send(id, req); err != nil {
			t.Fatal(err)
		}
	}

	sim.Run()

	expected := map[uint16][]byte{
		1: mustResponse(t, 10),
		2: mustResponse(t, 4096),
		3: mustResponse(t, 1024),
	}
	if len(responses) != len(expected) {
		t.Fatalf("Received %d responses", len(responses))
	}
	for id, resp := range expected {
		if !bytes.Equal(responses[id], resp) {
			t.Fatalf("Stream %d received %q", id, responses[id])
		}
	}

	peers := server.Peers()
	if len(peers) != 1 || peers[0].Name != link.B().String() || peers[0].Responses != 3 || peers[0].InFlight != 0 {
		t.Fatalf("Unexpected peers: %v", peers)
	}

	if err := server.RemoveConn(link.B().String()); err != nil {
		t.Fatal(err)
	}
	if err := server.RemoveConn(link.B().String()); err == nil {
		t.Fatalf("Removing a peer twice succeeded")
	}
	if len(server.Peers()) != 0 {
		t.Fatalf("Peer was not removed")
	}
}

func TestServerHugeSize(t *testing.T) {
	sim := sched.NewSim(time.Time{})

	link, _ := simlink.New(sim, testLink(), "client", "server")

	server, err := NewServer(DefaultServerConfig(), sim)
	if err != nil {
		t.Fatal(err)
	}
	if err := server.AddConn(link.B()); err != nil {
		t.Fatal(err)
	}

	responses := map[uint16][]byte{}
	var client *sst.Channel
	client, _ = sst.NewChannel(sst.DefaultConfig(), sim, link.A(), func(s sst.Status) {
		if s.Kind == sst.StatusStreamData {
			stream, _ := client.Stream(s.StreamID)
			responses[s.StreamID] = stream.Received()
		}
	})
	client.Congestion().SetCwnd(4)
	link.A().SetReceiver(client.Receiver())

	requests := []string{
		"GET /?size=18446744073709551615 HTTP/1.0\r\n\r\n",
		"GET /?size=100000000000 HTTP/1.0\r\n\r\n",
	}
	for _, req := range requests {
		id, _ := client.CreateStream(nil)
		if _, err := client.Send(id, []byte(req)); err != nil {
			t.Fatal(err)
		}
	}

	sim.Run()

	expected := mustResponse(t, MaxResponseSize(dgram.MaxDatagramSize))
	if len(responses) != len(requests) {
		t.Fatalf("Received %d responses", len(responses))
	}
	for id, resp := range responses {
		if !bytes.Equal(resp, expected) {
			t.Fatalf("Stream %d received %d bytes, expected %d", id, len(resp), len(expected))
		}
	}
}

func TestServerMultiplePeers(t *testing.T) {
	sim := sched.NewSim(time.Time{})

	server, _ := NewServer(DefaultServerConfig(), sim)

	var clients []*Client
	for _, name := range []string{"alice", "bob", "carol"} {
		link, _ := simlink.New(sim, testLink(), name, "server")
		if err := server.AddConn(link.B()); err != nil {
			t.Fatal(err)
		}

		client, err := NewClient(DefaultClientConfig(), sim, link.A())
		if err != nil {
			t.Fatal(err)
		}
		if err := client.Start(testPages([]uint64{2048, 512, 512}, []uint64{1024})); err != nil {
			t.Fatal(err)
		}
		clients = append(clients, client)
	}

	sim.Run()

	for _, client := range clients {
		for _, pr := range client.Results() {
			if pr.Completed != pr.Requests {
				t.Fatalf("%v: incomplete page %v", client, pr)
			}
		}
	}

	peers := server.Peers()
	if len(peers) != 3 || peers[0].Name != "sim://server->alice" || peers[2].Name != "sim://server->carol" {
		t.Fatalf("Unexpected peers: %v", peers)
	}

	if err := server.Close(); err != nil {
		t.Fatal(err)
	}
	if len(server.Peers()) != 0 {
		t.Fatalf("Closed server has peers")
	}
}

func TestServerConfigCheckValid(t *testing.T) {
	conf := DefaultServerConfig()
	if err := conf.CheckValid(); err != nil {
		t.Fatal(err)
	}

	tests := []func(*ServerConfig){
		func(sc *ServerConfig) { sc.MaxSize = 10 },
		func(sc *ServerConfig) { sc.MaxSize = 0 },
		func(sc *ServerConfig) { sc.MaxSize = MaxBodySize + 1 },
		func(sc *ServerConfig) { sc.SendRetryInterval = 0 },
	}
	for i, modify := range tests {
		conf := DefaultServerConfig()
		modify(&conf)
		if err := conf.CheckValid(); err == nil {
			t.Fatalf("Test %d: invalid config is valid", i)
		}
	}
}
