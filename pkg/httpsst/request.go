// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package httpsst

import (
	"fmt"
	"time"

	"github.com/dtn7/sst-go/pkg/workload"
)

// RequestState of a Request.
type RequestState uint8

const (
	// Queued requests wait for the congestion window.
	Queued RequestState = iota

	// Sent requests were handed to their stream.
	Sent

	// AckPending requests were acknowledged, but the response is not complete.
	AckPending

	// Completed requests received their whole response.
	Completed

	// TimedOut requests were forced to complete by the page timer.
	TimedOut

	// Failed requests were abandoned after their last retransmission or are
	// secondaries of a failed primary request.
	Failed
)

func (rs RequestState) String() string {
	switch rs {
	case Queued:
		return "Queued"
	case Sent:
		return "Sent"
	case AckPending:
		return "AckPending"
	case Completed:
		return "Completed"
	case TimedOut:
		return "TimedOut"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Done reports if the state is final.
func (rs RequestState) Done() bool {
	return rs == Completed || rs == TimedOut || rs == Failed
}

// Request is one workload request on its way through the Client.
type Request struct {
	workload.Request

	Page  int
	State RequestState

	StreamID uint16
	Seq      uint32

	StartTime    time.Time
	CompleteTime time.Time

	BytesReceived uint64
}

// ResponseTime is the duration from start to completion, zero if unfinished
// or never started.
func (r *Request) ResponseTime() time.Duration {
	if r.StartTime.IsZero() || r.CompleteTime.IsZero() {
		return 0
	}
	return r.CompleteTime.Sub(r.StartTime)
}

func (r *Request) String() string {
	return fmt.Sprintf("%s %s (page %d, stream %d, %v)", r.URL, r.State, r.Page, r.StreamID, r.ResponseTime())
}

// PageResult summarizes a finished page.
type PageResult struct {
	Index int

	// Start is the earliest request start, End the latest completion.
	Start    time.Time
	End      time.Time
	LoadTime time.Duration

	// Completed includes the TimedOut requests, which the page timer
	// forced to complete.
	Requests  int
	Completed int
	TimedOut  int
	Failed    int

	Bytes uint64
}

func (pr PageResult) String() string {
	return fmt.Sprintf("Page %d: %v (%d/%d completed, %d timed out, %d failed, %d bytes)",
		pr.Index, pr.LoadTime, pr.Completed, pr.Requests, pr.TimedOut, pr.Failed, pr.Bytes)
}

// pageResult for the requests of a page which started at pageStart.
func pageResult(index int, pageStart time.Time, reqs []*Request) (pr PageResult) {
	pr.Index = index
	pr.Requests = len(reqs)

	for _, r := range reqs {
		if !r.StartTime.IsZero() && (pr.Start.IsZero() || r.StartTime.Before(pr.Start)) {
			pr.Start = r.StartTime
		}
		if !r.CompleteTime.IsZero() && r.CompleteTime.After(pr.End) {
			pr.End = r.CompleteTime
		}

		switch r.State {
		case Completed:
			pr.Completed++
		case TimedOut:
			pr.Completed++
			pr.TimedOut++
		case Failed:
			pr.Failed++
		}

		pr.Bytes += r.BytesReceived
	}

	if pr.Start.IsZero() {
		pr.Start = pageStart
	}
	if pr.End.Before(pr.Start) {
		pr.End = pr.Start
	}
	pr.LoadTime = pr.End.Sub(pr.Start)
	return
}
