// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package results persists page load times of simulation runs.
//
// Each finished page of a httpsst.Client becomes a PageRecord, labeled by the
// run's name and its strategy, e.g., "sst". Records are kept in a badgerhold
// backed Store and might be exported and imported as a CBOR array for a later
// evaluation. Summarize condenses records into the usual statistics.
package results
