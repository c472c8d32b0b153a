// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package workload provides web pages to be requested, each with one primary
// object and any number of embedded ones.
//
// Pages are either read from a trace file or generated synthetically. A trace
// is a line based CSV file of the form
//
//	url,size,isPrimary,requestTime,responseTime
//
// where lines starting with '#' are comments. A comment containing "End of
// Page" finishes the current page. Traces might be xz compressed.
package workload
