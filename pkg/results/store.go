// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package results

import (
	"os"
	"path"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/timshannon/badgerhold"
)

const dirBadger string = "db"

// Store keeps PageRecords on disk.
type Store struct {
	bh *badgerhold.Store
}

// NewStore creates a new Store or opens an existing Store from the given path.
func NewStore(dir string) (s *Store, err error) {
	badgerDir := path.Join(dir, dirBadger)

	opts := badgerhold.DefaultOptions
	opts.Dir = badgerDir
	opts.ValueDir = badgerDir
	opts.Logger = log.StandardLogger()
	opts.Options.ValueLogFileSize = 1<<26 - 1

	if dirErr := os.MkdirAll(badgerDir, 0700); dirErr != nil {
		err = dirErr
		return
	}

	if bh, bhErr := badgerhold.Open(opts); bhErr != nil {
		err = bhErr
	} else {
		s = &Store{bh: bh}
	}
	return
}

// Close the Store. It must not be used afterwards.
func (s *Store) Close() error {
	return s.bh.Close()
}

// Push a PageRecord. A record of the same run and page is replaced.
func (s *Store) Push(pr PageRecord) error {
	pr.Id = recordId(pr.Run, pr.Page)

	var known PageRecord
	if err := s.bh.Get(pr.Id, &known); err == badgerhold.ErrNotFound {
		log.WithField("record", pr.Id).Debug("Store inserts PageRecord")
		return s.bh.Insert(pr.Id, pr)
	} else if err != nil {
		return err
	}

	log.WithField("record", pr.Id).Debug("Store replaces PageRecord")
	return s.bh.Update(pr.Id, pr)
}

// QueryPage fetches a single PageRecord.
func (s *Store) QueryPage(run string, page uint64) (pr PageRecord, err error) {
	err = s.bh.Get(recordId(run, page), &pr)
	return
}

// QueryRun fetches all PageRecords of a run, ordered by their page.
func (s *Store) QueryRun(run string) (prs []PageRecord, err error) {
	if err = s.bh.Find(&prs, badgerhold.Where("Run").Eq(run)); err != nil {
		return
	}

	sort.Slice(prs, func(i, j int) bool { return prs[i].Page < prs[j].Page })
	return
}

// Runs lists the names of all stored runs.
func (s *Store) Runs() (runs []string, err error) {
	var prs []PageRecord
	if err = s.bh.Find(&prs, nil); err != nil {
		return
	}

	known := make(map[string]bool)
	for _, pr := range prs {
		if !known[pr.Run] {
			known[pr.Run] = true
			runs = append(runs, pr.Run)
		}
	}

	sort.Strings(runs)
	return
}

// Delete all PageRecords of a run.
func (s *Store) Delete(run string) error {
	prs, err := s.QueryRun(run)
	if err != nil {
		return err
	}

	for _, pr := range prs {
		if err := s.bh.Delete(pr.Id, PageRecord{}); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"run":     run,
		"records": len(prs),
	}).Info("Store deleted run")
	return nil
}
