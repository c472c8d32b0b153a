// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package httpsst

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/sst-go/pkg/dgram"
	"github.com/dtn7/sst-go/pkg/sched"
	"github.com/dtn7/sst-go/pkg/sst"
	"github.com/dtn7/sst-go/pkg/workload"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// Channel configures the underlying sst.Channel.
	Channel sst.Config

	// PageTimeout bounds the time spent on one page.
	PageTimeout time.Duration

	// ThinkTime is the pause between two pages.
	ThinkTime time.Duration

	// SendRetryInterval delays the next attempt after a rejected datagram if
	// no acknowledgement is to be expected.
	SendRetryInterval time.Duration

	// Host and UserAgent are sent as request headers.
	Host      string
	UserAgent string
}

// DefaultClientConfig returns the reference values.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Channel:           sst.DefaultConfig(),
		PageTimeout:       30 * time.Second,
		ThinkTime:         10 * time.Microsecond,
		SendRetryInterval: 100 * time.Millisecond,
		Host:              "example.com",
		UserAgent:         "sst-go",
	}
}

// CheckValid returns an error for each invalid field.
func (cc ClientConfig) CheckValid() (errs error) {
	if err := cc.Channel.CheckValid(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if cc.PageTimeout <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("ClientConfig: PageTimeout must be positive"))
	}
	if cc.ThinkTime < 0 {
		errs = multierror.Append(errs, fmt.Errorf("ClientConfig: ThinkTime must not be negative"))
	}
	if cc.SendRetryInterval <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("ClientConfig: SendRetryInterval must be positive"))
	}
	return
}

// Client loads the pages of a workload over one sst.Channel.
//
// Except for Done, all methods must be called on the Client's Scheduler.
type Client struct {
	config  ClientConfig
	sched   sched.Scheduler
	conn    dgram.Conn
	channel *sst.Channel

	pages     [][]*Request
	current   int
	pageStart time.Time
	pageTimer *sched.Timer

	queue      []*Request
	streams    map[uint16]*Request
	retryTimer *sched.Timer

	results []PageResult
	onPage  func(PageResult)

	started  bool
	finished bool
	done     chan struct{}
}

// NewClient creates a Client requesting over conn. The Conn's receiver is
// set to the Client's Channel.
func NewClient(config ClientConfig, s sched.Scheduler, conn dgram.Conn) (*Client, error) {
	if err := config.CheckValid(); err != nil {
		return nil, err
	}

	config.Channel.Accept = false
	if config.Channel.Name == "" {
		config.Channel.Name = conn.String()
	}

	c := &Client{
		config:  config,
		sched:   s,
		conn:    conn,
		streams: make(map[uint16]*Request),
		done:    make(chan struct{}),
	}

	ch, err := sst.NewChannel(config.Channel, s, conn, c.handleStatus)
	if err != nil {
		return nil, err
	}
	c.channel = ch
	conn.SetReceiver(ch.Receiver())

	return c, nil
}

// OnPage registers a callback for each finished page.
func (c *Client) OnPage(f func(PageResult)) {
	c.onPage = f
}

// Start requesting the given pages.
func (c *Client) Start(pages []workload.Page) error {
	if c.started {
		return errors.New("Client: already started")
	}
	c.started = true

	c.pages = make([][]*Request, len(pages))
	for i, page := range pages {
		page = workload.NewPage(page.Requests)
		for _, r := range page.Requests {
			c.pages[i] = append(c.pages[i], &Request{Request: r, Page: i})
		}
	}

	log.WithFields(log.Fields{
		"client": c.String(),
		"pages":  len(c.pages),
	}).Info("Client starts requesting pages")

	c.sched.Post(c.nextPage)
	return nil
}

// Done is closed after the last page was finished. It might be used from any
// goroutine.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Finished reports if all pages were processed.
func (c *Client) Finished() bool {
	return c.finished
}

// Results of all finished pages.
func (c *Client) Results() []PageResult {
	return c.results
}

// Requests of page index.
func (c *Client) Requests(index int) []*Request {
	if index < 0 || index >= len(c.pages) {
		return nil
	}
	return c.pages[index]
}

// Channel used by this Client.
func (c *Client) Channel() *sst.Channel {
	return c.channel
}

// Queued returns the number of requests waiting for the congestion window.
func (c *Client) Queued() int {
	return len(c.queue)
}

// Close the Client, its Channel and Conn.
func (c *Client) Close() error {
	c.pageTimer.Cancel()
	c.retryTimer.Cancel()
	c.finish()

	var errs error
	if err := c.channel.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := c.conn.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs
}

func (c *Client) String() string {
	return fmt.Sprintf("httpsst client %v", c.channel)
}

func (c *Client) finish() {
	if c.finished {
		return
	}
	c.finished = true
	close(c.done)
}

func (c *Client) nextPage() {
	if c.finished {
		return
	}
	if c.current >= len(c.pages) {
		log.WithFields(log.Fields{
			"client": c.String(),
			"pages":  len(c.results),
			"stats":  c.channel.Stats().String(),
		}).Info("Client processed all pages")

		c.finish()
		return
	}

	c.pageStart = c.sched.Now()
	c.queue = c.queue[:0]

	reqs := c.pages[c.current]
	if len(reqs) == 0 {
		log.WithField("page", c.current).Warn("Skipping empty page")
		c.finishPage()
		return
	}

	log.WithFields(log.Fields{
		"client":   c.String(),
		"page":     c.current,
		"requests": len(reqs),
	}).Info("Starting page")

	index := c.current
	c.pageTimer = c.sched.Schedule(c.config.PageTimeout, func() { c.pageTimeout(index) })

	c.enqueue(reqs[0])
	c.drain()
}

func (c *Client) enqueue(reqs ...*Request) {
	for _, r := range reqs {
		r.State = Queued
		c.queue = append(c.queue, r)
	}
}

// drain promotes queued requests to streams while the window allows.
func (c *Client) drain() {
	for len(c.queue) > 0 && c.channel.CanSend() {
		r := c.queue[0]

		id, err := c.channel.CreateStream(r)
		if err != nil {
			log.WithFields(log.Fields{
				"client":  c.String(),
				"request": r.String(),
				"error":   err,
			}).Error("Creating stream failed")
			return
		}

		payload := FormatRequest(r.URL, r.Size, c.config.Host, c.config.UserAgent)
		seq, err := c.channel.Send(id, payload)
		if err != nil {
			_ = c.channel.CloseStream(id)

			log.WithFields(log.Fields{
				"client":  c.String(),
				"request": r.String(),
				"error":   err,
			}).Warn("Sending request failed, requeueing")

			if c.channel.PacketsInFlight() == 0 && !c.retryTimer.Active() {
				c.retryTimer = c.sched.Schedule(c.config.SendRetryInterval, c.drain)
			}
			return
		}

		c.queue = c.queue[1:]
		r.State = Sent
		r.StreamID = id
		r.Seq = seq
		r.StartTime = c.sched.Now()
		c.streams[id] = r

		log.WithFields(log.Fields{
			"client":  c.String(),
			"request": r.String(),
			"seq":     seq,
		}).Debug("Sent request")
	}
}

func (c *Client) handleStatus(s sst.Status) {
	switch s.Kind {
	case sst.StatusStreamData:
		r, ok := c.streams[s.StreamID]
		if !ok {
			return
		}

		stream, _ := c.channel.Stream(s.StreamID)
		r.BytesReceived = stream.BytesReceived()
		if ResponseComplete(stream.Received()) {
			c.finishRequest(r, Completed)
		}

	case sst.StatusAcknowledged:
		for _, id := range s.Streams {
			if r, ok := c.streams[id]; ok && r.State == Sent {
				r.State = AckPending
			}
		}
		c.drain()

	case sst.StatusDeliveryFailed:
		if r, ok := c.streams[s.StreamID]; ok {
			log.WithFields(log.Fields{
				"client":  c.String(),
				"request": r.String(),
				"error":   s.Err,
			}).Warn("Request failed")

			c.finishRequest(r, Failed)
		}
		c.drain()
	}
}

// finishRequest moves r into a final state and advances its page.
func (c *Client) finishRequest(r *Request, state RequestState) {
	r.State = state
	r.CompleteTime = c.sched.Now()

	delete(c.streams, r.StreamID)
	_ = c.channel.CloseStream(r.StreamID)

	log.WithFields(log.Fields{
		"client":  c.String(),
		"request": r.String(),
	}).Debug("Request finished")

	if r.Page != c.current {
		return
	}

	reqs := c.pages[c.current]
	if r.Primary || r == reqs[0] {
		switch state {
		case Completed:
			c.enqueue(reqs[1:]...)
			c.drain()

		case Failed:
			for _, sec := range reqs[1:] {
				sec.State = Failed
				sec.CompleteTime = r.CompleteTime
			}
		}
	}

	for _, req := range reqs {
		if !req.State.Done() {
			return
		}
	}
	c.finishPage()
}

// pageTimeout forces all incomplete requests of page index to TimedOut.
func (c *Client) pageTimeout(index int) {
	if c.finished || index != c.current {
		return
	}

	now := c.sched.Now()
	var timedOut int
	for _, r := range c.pages[index] {
		if r.State.Done() {
			continue
		}

		if r.State != Queued {
			if stream, ok := c.channel.Stream(r.StreamID); ok {
				r.BytesReceived = stream.BytesReceived()
			}
			delete(c.streams, r.StreamID)
			_ = c.channel.CloseStream(r.StreamID)
		}

		r.State = TimedOut
		r.CompleteTime = now
		timedOut++
	}
	c.queue = c.queue[:0]

	log.WithFields(log.Fields{
		"client":    c.String(),
		"page":      index,
		"timed-out": timedOut,
	}).Warn("Page timed out")

	c.finishPage()
}

func (c *Client) finishPage() {
	c.pageTimer.Cancel()

	result := pageResult(c.current, c.pageStart, c.pages[c.current])
	c.results = append(c.results, result)

	log.WithFields(log.Fields{
		"client": c.String(),
		"result": result.String(),
	}).Info("Finished page")

	if c.onPage != nil {
		c.onPage(result)
	}

	c.current++
	c.sched.Schedule(c.config.ThinkTime, c.nextPage)
}
