// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package httpsst

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dtn7/sst-go/pkg/wire"
)

// MaxBodySize bounds the body of a response created by FormatResponse.
const MaxBodySize = 1 << 30

// ErrResponseTooLarge is returned for response bodies exceeding MaxBodySize.
var ErrResponseTooLarge = errors.New("response body is too large")

var headerTerminator = []byte("\r\n\r\n")

// RequestPath extracts the path of a workload URL. Besides plain paths, both
// absolute URLs and request lines like "GET /index.html HTTP/1.0" are accepted.
func RequestPath(rawURL string) string {
	if fields := strings.Fields(rawURL); len(fields) == 3 {
		rawURL = fields[1]
	}

	if u, err := url.Parse(rawURL); err == nil && u.IsAbs() {
		rawURL = u.RequestURI()
	}

	if rawURL == "" {
		return "/"
	}
	return rawURL
}

// FormatRequest creates an HTTP/1.0 GET request asking for size bytes.
func FormatRequest(rawURL string, size uint64, host, userAgent string) []byte {
	path := RequestPath(rawURL)
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "GET %s%ssize=%d HTTP/1.0\r\n", path, sep, size)
	fmt.Fprintf(&buf, "Host: %s\r\n", host)
	fmt.Fprintf(&buf, "User-Agent: %s\r\n", userAgent)
	buf.WriteString("\r\n")
	return buf.Bytes()
}

// ParseRequest parses a complete request. It returns false as long as the
// header is incomplete.
func ParseRequest(data []byte) (req *http.Request, complete bool, err error) {
	if !bytes.Contains(data, headerTerminator) {
		return nil, false, nil
	}

	req, err = http.ReadRequest(bufio.NewReader(bytes.NewReader(data)))
	return req, true, err
}

// RequestedSize reads the "size" query parameter, falling back to def.
func RequestedSize(req *http.Request, def uint64) uint64 {
	if req == nil || req.URL == nil {
		return def
	}

	size, err := strconv.ParseUint(req.URL.Query().Get("size"), 10, 64)
	if err != nil {
		return def
	}
	return size
}

func responseHeader(size uint64) []byte {
	var buf bytes.Buffer
	buf.WriteString("HTTP/1.0 200 OK\r\n")
	buf.WriteString("Content-Type: text/html\r\n")
	fmt.Fprintf(&buf, "Content-Length: %d\r\n", size)
	buf.WriteString("\r\n")
	return buf.Bytes()
}

// FormatResponse creates an HTTP/1.0 response with a body of size 'X' bytes.
func FormatResponse(size uint64) ([]byte, error) {
	if size > MaxBodySize {
		return nil, fmt.Errorf("%w: %d bytes exceed %d", ErrResponseTooLarge, size, MaxBodySize)
	}

	resp := responseHeader(size)
	return append(resp, bytes.Repeat([]byte{'X'}, int(size))...), nil
}

// MaxResponseSize is the largest body whose response still fits, framed,
// into a single datagram of datagramSize bytes.
func MaxResponseSize(datagramSize int) uint64 {
	limit := datagramSize - wire.Overhead - len(responseHeader(math.MaxUint64))
	if limit <= 0 {
		return 0
	}
	if limit > MaxBodySize {
		return MaxBodySize
	}
	return uint64(limit)
}

// ResponseComplete checks if data holds a complete response: the header is
// terminated and, if announced, Content-Length body bytes are present. An
// unparsable header counts as complete once terminated.
func ResponseComplete(data []byte) bool {
	idx := bytes.Index(data, headerTerminator)
	if idx < 0 {
		return false
	}

	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(data[:idx+len(headerTerminator)])), nil)
	if err != nil || resp.ContentLength < 0 {
		return true
	}
	_ = resp.Body.Close()

	body := int64(len(data) - idx - len(headerTerminator))
	return body >= resp.ContentLength
}
