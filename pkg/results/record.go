// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package results

import (
	"fmt"
	"io"
	"time"

	"github.com/dtn7/cboring"

	"github.com/dtn7/sst-go/pkg/httpsst"
)

// pageRecordLength is the CBOR array length of a PageRecord.
const pageRecordLength uint64 = 10

// PageRecord is the outcome of one page load within a run.
type PageRecord struct {
	Id string `badgerhold:"key"`

	Run      string `badgerholdIndex:"Run"`
	Strategy string
	Page     uint64

	Start    time.Time
	LoadTime time.Duration

	Requests  uint64
	Completed uint64
	TimedOut  uint64
	Failed    uint64
	Bytes     uint64
}

// recordId is the Store's key of a run's page.
func recordId(run string, page uint64) string {
	return fmt.Sprintf("%s/%08d", run, page)
}

// NewPageRecord from a client's PageResult.
func NewPageRecord(run, strategy string, pr httpsst.PageResult) PageRecord {
	return PageRecord{
		Id:        recordId(run, uint64(pr.Index)),
		Run:       run,
		Strategy:  strategy,
		Page:      uint64(pr.Index),
		Start:     pr.Start,
		LoadTime:  pr.LoadTime,
		Requests:  uint64(pr.Requests),
		Completed: uint64(pr.Completed),
		TimedOut:  uint64(pr.TimedOut),
		Failed:    uint64(pr.Failed),
		Bytes:     pr.Bytes,
	}
}

// Complete checks if each request of the page was answered, without any
// request being forced to complete by the page timer.
func (pr PageRecord) Complete() bool {
	return pr.Completed == pr.Requests && pr.TimedOut == 0
}

func (pr PageRecord) String() string {
	return fmt.Sprintf("%s/%s page %d: %v (%d/%d completed)",
		pr.Run, pr.Strategy, pr.Page, pr.LoadTime, pr.Completed, pr.Requests)
}

// MarshalCbor writes the CBOR representation of a PageRecord. Times are
// nanoseconds since the Unix epoch.
func (pr *PageRecord) MarshalCbor(w io.Writer) error {
	if err := cboring.WriteArrayLength(pageRecordLength, w); err != nil {
		return err
	}

	for _, s := range []string{pr.Run, pr.Strategy} {
		if err := cboring.WriteTextString(s, w); err != nil {
			return err
		}
	}

	fields := []uint64{
		pr.Page,
		uint64(pr.Start.UnixNano()),
		uint64(pr.LoadTime),
		pr.Requests,
		pr.Completed,
		pr.TimedOut,
		pr.Failed,
		pr.Bytes,
	}
	for _, f := range fields {
		if err := cboring.WriteUInt(f, w); err != nil {
			return err
		}
	}

	return nil
}

// UnmarshalCbor creates this PageRecord based on a CBOR representation.
func (pr *PageRecord) UnmarshalCbor(r io.Reader) error {
	if l, err := cboring.ReadArrayLength(r); err != nil {
		return err
	} else if l != pageRecordLength {
		return fmt.Errorf("PageRecord: expected array of %d elements, got %d", pageRecordLength, l)
	}

	for _, s := range []*string{&pr.Run, &pr.Strategy} {
		if v, err := cboring.ReadTextString(r); err != nil {
			return err
		} else {
			*s = v
		}
	}

	var start, loadTime uint64
	fields := []*uint64{
		&pr.Page,
		&start,
		&loadTime,
		&pr.Requests,
		&pr.Completed,
		&pr.TimedOut,
		&pr.Failed,
		&pr.Bytes,
	}
	for _, f := range fields {
		if v, err := cboring.ReadUInt(r); err != nil {
			return err
		} else {
			*f = v
		}
	}

	pr.Start = time.Unix(0, int64(start))
	pr.LoadTime = time.Duration(loadTime)
	pr.Id = recordId(pr.Run, pr.Page)
	return nil
}

// WriteCbor serializes records as a CBOR array.
func WriteCbor(w io.Writer, records []PageRecord) error {
	if err := cboring.WriteArrayLength(uint64(len(records)), w); err != nil {
		return err
	}

	for i := range records {
		if err := cboring.Marshal(&records[i], w); err != nil {
			return fmt.Errorf("PageRecord %d: %w", i, err)
		}
	}
	return nil
}

// ReadCbor parses a CBOR array of records, as written by WriteCbor.
func ReadCbor(r io.Reader) (records []PageRecord, err error) {
	var l uint64
	if l, err = cboring.ReadArrayLength(r); err != nil {
		return
	}

	records = make([]PageRecord, l)
	for i := range records {
		if err = cboring.Unmarshal(&records[i], r); err != nil {
			err = fmt.Errorf("PageRecord %d: %w", i, err)
			return
		}
	}
	return
}
