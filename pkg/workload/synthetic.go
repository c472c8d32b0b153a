// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package workload

import (
	"fmt"
	"math"
	"math/rand"
)

// DefaultSeed and DefaultPages configure the reference synthetic workload.
const (
	DefaultSeed  int64 = 12345
	DefaultPages       = 100
)

// Synthetic generates pages resembling recorded web traffic. Primary object
// sizes follow lognormal(9.0, 1.0), embedded object sizes lognormal(6.5, 0.8)
// and the number of embedded objects a negative binomial distribution with
// r=2 and p=0.3.
func Synthetic(seed int64, pages int) []Page {
	rng := rand.New(rand.NewSource(seed))
	result := make([]Page, 0, pages)

	var id int
	for i := 0; i < pages; i++ {
		reqs := []Request{{
			ID:      id,
			URL:     fmt.Sprintf("/page%d/index.html", i),
			Size:    lognormalSize(rng, 9.0, 1.0),
			Primary: true,
		}}
		id++

		embedded := negativeBinomial(rng, 2, 0.3)
		for j := 0; j < embedded; j++ {
			reqs = append(reqs, Request{
				ID:   id,
				URL:  fmt.Sprintf("/page%d/object%d", i, j),
				Size: lognormalSize(rng, 6.5, 0.8),
			})
			id++
		}

		result = append(result, Page{Requests: reqs})
	}

	return result
}

// lognormalSize draws a size of at least one byte.
func lognormalSize(rng *rand.Rand, mu, sigma float64) uint64 {
	size := uint64(math.Exp(mu + sigma*rng.NormFloat64()))
	if size < 1 {
		size = 1
	}
	return size
}

// negativeBinomial counts failures before the r-th success with probability p.
func negativeBinomial(rng *rand.Rand, r int, p float64) (failures int) {
	for successes := 0; successes < r; {
		if rng.Float64() < p {
			successes++
		} else {
			failures++
		}
	}
	return
}
