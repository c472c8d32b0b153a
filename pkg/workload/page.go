// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package workload

import "fmt"

// DefaultSize is used for requests without a valid size.
const DefaultSize uint64 = 1024

// Request for one object of a Page.
type Request struct {
	// ID is unique within a workload.
	ID int

	URL     string
	Size    uint64
	Primary bool

	// RequestTime and ResponseTime are the trace's recorded timestamps, if any.
	RequestTime  string
	ResponseTime string
}

func (r Request) String() string {
	kind := "secondary"
	if r.Primary {
		kind = "primary"
	}
	return fmt.Sprintf("Request(%d, %s, %d bytes, %s)", r.ID, r.URL, r.Size, kind)
}

// Page groups the requests of one web page. The primary request comes first.
type Page struct {
	Requests []Request
}

// NewPage creates a Page of the given requests, moving the first primary
// request to the front. The secondaries keep their order.
func NewPage(requests []Request) Page {
	reqs := make([]Request, len(requests))
	copy(reqs, requests)

	for i := range reqs {
		if reqs[i].Primary {
			primary := reqs[i]
			copy(reqs[1:i+1], reqs[:i])
			reqs[0] = primary
			break
		}
	}
	return Page{Requests: reqs}
}

// TotalSize sums up all requested object sizes.
func (p Page) TotalSize() (size uint64) {
	for _, r := range p.Requests {
		size += r.Size
	}
	return
}

// Limit returns at most max Pages. A max of zero does not limit.
func Limit(pages []Page, max int) []Page {
	if max > 0 && len(pages) > max {
		return pages[:max]
	}
	return pages
}
