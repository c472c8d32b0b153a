// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package results

import (
	"bytes"
	"io/ioutil"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/timshannon/badgerhold"

	"github.com/dtn7/sst-go/pkg/httpsst"
)

func setupStoreDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "results")
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func testRecords(run string, loadTimes ...time.Duration) (records []PageRecord) {
	for i, lt := range loadTimes {
		records = append(records, NewPageRecord(run, "sst", httpsst.PageResult{
			Index:     i,
			Start:     time.Unix(int64(2+10*i), 0),
			LoadTime:  lt,
			Requests:  3,
			Completed: 3,
			Bytes:     4096,
		}))
	}
	return
}

func TestPageRecordCbor(t *testing.T) {
	records := testRecords("run", 250*time.Millisecond, 2*time.Second, time.Minute)
	records[1].Completed = 1
	records[1].TimedOut = 1
	records[1].Failed = 1

	var buf bytes.Buffer
	if err := WriteCbor(&buf, records); err != nil {
		t.Fatal(err)
	}

	records2, err := ReadCbor(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if len(records) != len(records2) {
		t.Fatalf("Read %d records instead of %d", len(records2), len(records))
	}
	for i := range records {
		if !records[i].Start.Equal(records2[i].Start) {
			t.Fatalf("Start differs: %v != %v", records[i].Start, records2[i].Start)
		}
		records2[i].Start = records[i].Start

		if !reflect.DeepEqual(records[i], records2[i]) {
			t.Fatalf("Records differ: %v != %v", records[i], records2[i])
		}
	}
}

func TestPageRecordCborInvalid(t *testing.T) {
	var buf bytes.Buffer
	pr := testRecords("run", time.Second)[0]
	if err := pr.MarshalCbor(&buf); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()
	for i := 0; i < len(data); i++ {
		var pr2 PageRecord
		if err := pr2.UnmarshalCbor(bytes.NewReader(data[:i])); err == nil {
			t.Fatalf("Truncated record of %d bytes was parsed", i)
		}
	}

	// An array of nine elements
	data[0] = 0x89
	var pr2 PageRecord
	if err := pr2.UnmarshalCbor(bytes.NewReader(data)); err == nil {
		t.Fatalf("Wrong array length was accepted")
	}
}

func TestStore(t *testing.T) {
	dir := setupStoreDir(t)
	defer os.RemoveAll(dir)

	store, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	runA := testRecords("a", time.Second, 2*time.Second, 3*time.Second)
	runB := testRecords("b", 500*time.Millisecond)

	for _, pr := range append(runA, runB...) {
		if err := store.Push(pr); err != nil {
			t.Fatal(err)
		}
	}

	// Replace the second page of run a.
	runA[1].LoadTime = 10 * time.Second
	if err := store.Push(runA[1]); err != nil {
		t.Fatal(err)
	}

	if prs, err := store.QueryRun("a"); err != nil {
		t.Fatal(err)
	} else if len(prs) != 3 {
		t.Fatalf("Run a has %d records", len(prs))
	} else {
		for i := range prs {
			if prs[i].Page != uint64(i) || prs[i].LoadTime != runA[i].LoadTime {
				t.Fatalf("Unexpected record %d: %v", i, prs[i])
			}
		}
	}

	if runs, err := store.Runs(); err != nil {
		t.Fatal(err)
	} else if !reflect.DeepEqual(runs, []string{"a", "b"}) {
		t.Fatalf("Unexpected runs %v", runs)
	}

	if err := store.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if prs, err := store.QueryRun("a"); err != nil || len(prs) != 0 {
		t.Fatalf("Run a was not deleted: %v, %v", prs, err)
	}
	if _, err := store.QueryPage("a", 0); err != badgerhold.ErrNotFound {
		t.Fatalf("Deleted page was found: %v", err)
	}
	if pr, err := store.QueryPage("b", 0); err != nil || pr.LoadTime != 500*time.Millisecond {
		t.Fatalf("Run b was affected: %v, %v", pr, err)
	}

	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	// Records survive reopening.
	store, err = NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if prs, err := store.QueryRun("b"); err != nil || len(prs) != 1 {
		t.Fatalf("Reopened store lost run b: %v, %v", prs, err)
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		loadTimes []time.Duration
		summary   Summary
	}{
		{nil, Summary{}},
		{
			[]time.Duration{3 * time.Second, time.Second, 2 * time.Second},
			Summary{Pages: 3, Mean: 2 * time.Second, Median: 2 * time.Second, Min: time.Second, Max: 3 * time.Second, Bytes: 3 * 4096},
		},
		{
			[]time.Duration{4 * time.Second, time.Second, 2 * time.Second, time.Second},
			Summary{Pages: 4, Mean: 2 * time.Second, Median: 1500 * time.Millisecond, Min: time.Second, Max: 4 * time.Second, Bytes: 4 * 4096},
		},
	}

	for _, test := range tests {
		if s := Summarize(testRecords("run", test.loadTimes...)); !reflect.DeepEqual(s, test.summary) {
			t.Fatalf("Summary of %v: got %v, expected %v", test.loadTimes, s, test.summary)
		}
	}

	records := testRecords("run", time.Second, time.Second)
	records[0].Completed = 2
	records[1].TimedOut = 1
	if s := Summarize(records); s.Incomplete != 2 {
		t.Fatalf("Summary has %d incomplete pages", s.Incomplete)
	}
}
