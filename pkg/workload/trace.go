// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package workload

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"
)

const endOfPage = "End of Page"

// ReadTrace parses Pages from a trace. Malformed lines are skipped.
func ReadTrace(r io.Reader) (pages []Page, err error) {
	var current []Request
	var id int

	flush := func() {
		if len(current) > 0 {
			pages = append(pages, NewPage(current))
			current = nil
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimRight(scanner.Text(), "\r")

		if line == "" || strings.HasPrefix(line, "#") {
			if strings.Contains(line, endOfPage) {
				flush()
			}
			continue
		}

		fields := strings.SplitN(line, ",", 5)
		if len(fields) != 5 {
			log.WithFields(log.Fields{
				"line":   lineNo,
				"fields": len(fields),
			}).Warn("Skipping malformed trace line")
			continue
		}

		req := Request{
			ID:           id,
			URL:          fields[0],
			Primary:      fields[2] == "1" || fields[2] == "true",
			RequestTime:  fields[3],
			ResponseTime: fields[4],
		}
		id++

		if size, sizeErr := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 32); sizeErr != nil {
			log.WithFields(log.Fields{
				"line": lineNo,
				"size": fields[1],
			}).Warn("Invalid size in trace, using default")
			req.Size = DefaultSize
		} else {
			req.Size = size
		}

		current = append(current, req)
	}

	if err = scanner.Err(); err != nil {
		return
	}

	flush()
	return
}

// OpenTrace reads a trace file. Files ending in ".xz" are decompressed.
func OpenTrace(path string) ([]Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".xz") {
		if r, err = xz.NewReader(r); err != nil {
			return nil, fmt.Errorf("trace %s: %w", path, err)
		}
	}

	pages, err := ReadTrace(r)
	if err != nil {
		return nil, fmt.Errorf("trace %s: %w", path, err)
	}
	return pages, nil
}

// WriteTrace writes Pages in the trace format, readable by ReadTrace.
func WriteTrace(w io.Writer, pages []Page) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, "# url,size,isPrimary,requestTime,responseTime"); err != nil {
		return err
	}

	for i, page := range pages {
		for _, r := range page.Requests {
			primary := "0"
			if r.Primary {
				primary = "1"
			}
			if _, err := fmt.Fprintf(bw, "%s,%d,%s,%s,%s\n", r.URL, r.Size, primary, r.RequestTime, r.ResponseTime); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(bw, "# %s %d\n", endOfPage, i); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// CreateTrace writes Pages into a new trace file, xz compressed for an ".xz" suffix.
func CreateTrace(path string, pages []Page) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	if !strings.HasSuffix(path, ".xz") {
		return WriteTrace(f, pages)
	}

	xw, err := xz.NewWriter(f)
	if err != nil {
		return
	}
	if err = WriteTrace(xw, pages); err != nil {
		return
	}
	return xw.Close()
}
