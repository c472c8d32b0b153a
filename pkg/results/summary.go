// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package results

import (
	"fmt"
	"sort"
	"time"
)

// Summary of the load times of multiple PageRecords.
type Summary struct {
	Pages      int           `json:"pages"`
	Incomplete int           `json:"incomplete"`
	Mean       time.Duration `json:"mean"`
	Median     time.Duration `json:"median"`
	Min        time.Duration `json:"min"`
	Max        time.Duration `json:"max"`
	Bytes      uint64        `json:"bytes"`
}

// Summarize records. The median of an even number of pages is the mean of
// both middle values.
func Summarize(records []PageRecord) (s Summary) {
	s.Pages = len(records)
	if s.Pages == 0 {
		return
	}

	loadTimes := make([]time.Duration, 0, len(records))
	var total time.Duration
	for _, pr := range records {
		loadTimes = append(loadTimes, pr.LoadTime)
		total += pr.LoadTime
		s.Bytes += pr.Bytes

		if !pr.Complete() {
			s.Incomplete++
		}
	}

	sort.Slice(loadTimes, func(i, j int) bool { return loadTimes[i] < loadTimes[j] })

	s.Mean = total / time.Duration(s.Pages)
	s.Min = loadTimes[0]
	s.Max = loadTimes[s.Pages-1]

	if mid := s.Pages / 2; s.Pages%2 == 1 {
		s.Median = loadTimes[mid]
	} else {
		s.Median = (loadTimes[mid-1] + loadTimes[mid]) / 2
	}
	return
}

func (s Summary) String() string {
	return fmt.Sprintf("%d pages (%d incomplete): mean %v, median %v, min %v, max %v, %d bytes",
		s.Pages, s.Incomplete, s.Mean, s.Median, s.Min, s.Max, s.Bytes)
}
