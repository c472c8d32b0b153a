// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package httpsst

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/sst-go/pkg/congestion"
	"github.com/dtn7/sst-go/pkg/dgram"
	"github.com/dtn7/sst-go/pkg/sched"
	"github.com/dtn7/sst-go/pkg/sst"
)

// ServerConfig configures a Server.
type ServerConfig struct {
	// Channel configures each peer's sst.Channel. Accept is always enabled.
	Channel sst.Config

	// DefaultSize is the response size for requests without a size parameter.
	DefaultSize uint64

	// MaxSize limits the response size. Larger requests are answered with
	// MaxSize bytes. It must not exceed MaxBodySize.
	MaxSize uint64

	// SendRetryInterval delays the next attempt after a rejected datagram if
	// no acknowledgement is to be expected.
	SendRetryInterval time.Duration
}

// DefaultServerConfig returns the reference values.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Channel:           sst.DefaultConfig(),
		DefaultSize:       1024,
		MaxSize:           MaxResponseSize(dgram.MaxDatagramSize),
		SendRetryInterval: 100 * time.Millisecond,
	}
}

// CheckValid returns an error for each invalid field.
func (sc ServerConfig) CheckValid() (errs error) {
	if err := sc.Channel.CheckValid(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if sc.MaxSize == 0 || sc.MaxSize > MaxBodySize {
		errs = multierror.Append(errs, fmt.Errorf("ServerConfig: MaxSize %d not within [1, %d]", sc.MaxSize, MaxBodySize))
	}
	if sc.DefaultSize > sc.MaxSize {
		errs = multierror.Append(errs, fmt.Errorf("ServerConfig: DefaultSize %d exceeds MaxSize %d", sc.DefaultSize, sc.MaxSize))
	}
	if sc.SendRetryInterval <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("ServerConfig: SendRetryInterval must be positive"))
	}
	return
}

// Server answers requests of its peers, each on its own accept mode Channel.
//
// All methods must be called on the Server's Scheduler, except Serve.
type Server struct {
	config ServerConfig
	sched  sched.Scheduler

	peers map[string]*peer
}

// NewServer creates a Server without any peers.
func NewServer(config ServerConfig, s sched.Scheduler) (*Server, error) {
	if err := config.CheckValid(); err != nil {
		return nil, err
	}
	config.Channel.Accept = true

	return &Server{
		config: config,
		sched:  s,
		peers:  make(map[string]*peer),
	}, nil
}

// AddConn registers a new peer, reachable by conn.
func (srv *Server) AddConn(conn dgram.Conn) error {
	name := conn.String()
	if _, exists := srv.peers[name]; exists {
		return fmt.Errorf("Server: peer %s is already known", name)
	}

	p := &peer{server: srv, name: name, conn: conn}

	chConf := srv.config.Channel
	chConf.Name = name
	ch, err := sst.NewChannel(chConf, srv.sched, conn, p.handleStatus)
	if err != nil {
		return err
	}
	p.channel = ch
	conn.SetReceiver(ch.Receiver())

	srv.peers[name] = p

	log.WithField("peer", name).Info("Server registered peer")
	return nil
}

// RemoveConn closes and forgets a peer.
func (srv *Server) RemoveConn(name string) error {
	p, ok := srv.peers[name]
	if !ok {
		return fmt.Errorf("Server: unknown peer %s", name)
	}

	delete(srv.peers, name)
	log.WithField("peer", name).Info("Server removed peer")
	return p.close()
}

// Serve registers every Conn accepted by l. It blocks until l is closed and
// might be called from any goroutine.
func (srv *Server) Serve(l dgram.Listener) {
	for conn := range l.Accept() {
		conn := conn
		srv.sched.Post(func() {
			if err := srv.AddConn(conn); err != nil {
				log.WithFields(log.Fields{
					"listener": l.Addr(),
					"error":    err,
				}).Warn("Server failed to register accepted conn")
				_ = conn.Close()
			}
		})
	}
}

// Close all peers.
func (srv *Server) Close() (errs error) {
	for name, p := range srv.peers {
		delete(srv.peers, name)
		if err := p.close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return
}

// PeerStatus describes one peer of a Server.
type PeerStatus struct {
	Name       string              `json:"name"`
	Congestion congestion.Snapshot `json:"congestion"`
	InFlight   int                 `json:"in_flight"`
	Queued     int                 `json:"queued"`
	Streams    int                 `json:"streams"`
	Responses  uint64              `json:"responses"`
	Stats      sst.Stats           `json:"stats"`
}

// Peers returns the status of each peer, sorted by name.
func (srv *Server) Peers() []PeerStatus {
	status := make([]PeerStatus, 0, len(srv.peers))
	for _, p := range srv.peers {
		status = append(status, PeerStatus{
			Name:       p.name,
			Congestion: p.channel.Congestion().Snapshot(),
			InFlight:   p.channel.PacketsInFlight(),
			Queued:     len(p.queue),
			Streams:    p.channel.Streams(),
			Responses:  p.responses,
			Stats:      p.channel.Stats(),
		})
	}

	sort.Slice(status, func(i, j int) bool { return status[i].Name < status[j].Name })
	return status
}

// reply is a response waiting for the congestion window.
type reply struct {
	streamID uint16
	payload  []byte
}

// replied marks a stream whose request was answered.
type replied struct{}

type peer struct {
	server  *Server
	name    string
	conn    dgram.Conn
	channel *sst.Channel

	queue      []reply
	retryTimer *sched.Timer
	responses  uint64
}

func (p *peer) handleStatus(s sst.Status) {
	switch s.Kind {
	case sst.StatusStreamData:
		p.handleRequest(s.StreamID)

	case sst.StatusAcknowledged:
		for _, id := range s.Streams {
			if stream, ok := p.channel.Stream(id); ok && stream.Request() != nil {
				_ = p.channel.CloseStream(id)
			}
		}
		p.drain()

	case sst.StatusDeliveryFailed:
		log.WithFields(log.Fields{
			"peer":   p.name,
			"stream": s.StreamID,
			"error":  s.Err,
		}).Warn("Server failed to deliver response")

		_ = p.channel.CloseStream(s.StreamID)
		p.drain()
	}
}

func (p *peer) handleRequest(streamID uint16) {
	stream, ok := p.channel.Stream(streamID)
	if !ok || stream.Request() != nil {
		return
	}

	req, complete, err := ParseRequest(stream.Received())
	if !complete {
		return
	}
	if err != nil {
		log.WithFields(log.Fields{
			"peer":   p.name,
			"stream": streamID,
			"error":  err,
		}).Warn("Server dropping malformed request")

		_ = p.channel.CloseStream(streamID)
		return
	}

	size := RequestedSize(req, p.server.config.DefaultSize)
	if max := p.server.config.MaxSize; size > max {
		log.WithFields(log.Fields{
			"peer":      p.name,
			"stream":    streamID,
			"requested": size,
			"max":       max,
		}).Debug("Server limiting response size")

		size = max
	}

	payload, err := FormatResponse(size)
	if err != nil {
		log.WithFields(log.Fields{
			"peer":   p.name,
			"stream": streamID,
			"error":  err,
		}).Warn("Server dropping request")

		_ = p.channel.CloseStream(streamID)
		return
	}

	stream.SetRequest(replied{})
	p.queue = append(p.queue, reply{streamID: streamID, payload: payload})

	log.WithFields(log.Fields{
		"peer":   p.name,
		"stream": streamID,
		"url":    req.URL.String(),
		"size":   size,
	}).Debug("Server received request")

	p.drain()
}

func (p *peer) drain() {
	for len(p.queue) > 0 && p.channel.CanSend() {
		r := p.queue[0]

		_, err := p.channel.Send(r.streamID, r.payload)
		switch {
		case err == nil:
			p.responses++

		case errors.Is(err, sst.ErrUnknownStream), errors.Is(err, sst.ErrStreamClosed):
			log.WithFields(log.Fields{
				"peer":   p.name,
				"stream": r.streamID,
			}).Debug("Server discarding response for vanished stream")

		case errors.Is(err, dgram.ErrTooLarge):
			log.WithFields(log.Fields{
				"peer":   p.name,
				"stream": r.streamID,
				"error":  err,
			}).Warn("Server discarding oversized response")

			_ = p.channel.CloseStream(r.streamID)

		default:
			log.WithFields(log.Fields{
				"peer":   p.name,
				"stream": r.streamID,
				"error":  err,
			}).Warn("Server failed to send response, requeueing")

			if p.channel.PacketsInFlight() == 0 && !p.retryTimer.Active() {
				p.retryTimer = p.server.sched.Schedule(p.server.config.SendRetryInterval, p.drain)
			}
			return
		}

		p.queue = p.queue[1:]
	}
}

func (p *peer) close() error {
	p.retryTimer.Cancel()

	var errs error
	if err := p.channel.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := p.conn.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs
}
