// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package dgram

import "sync"

// BacklogSize is the number of datagrams a Slot holds back until its
// Receiver is set.
const BacklogSize = 64

// Slot stores a Conn's Receiver for concurrent access by a reading goroutine.
//
// Datagrams delivered before any Receiver was set are held back, up to
// BacklogSize, and passed on by SetReceiver. This covers the first datagrams
// of a freshly accepted peer. The zero value is ready to use.
type Slot struct {
	mutex    sync.Mutex
	receiver Receiver
	backlog  [][]byte
}

// SetReceiver registers r and flushes the backlog into it. The lock is held
// while flushing, so concurrent deliveries stay in order.
func (s *Slot) SetReceiver(r Receiver) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.receiver = r
	if r == nil {
		return
	}

	for _, b := range s.backlog {
		r(b)
	}
	s.backlog = nil
}

// Deliver b to the Receiver. It reports false if b was dropped.
func (s *Slot) Deliver(b []byte) bool {
	s.mutex.Lock()
	r := s.receiver
	if r == nil {
		defer s.mutex.Unlock()
		if len(s.backlog) >= BacklogSize {
			return false
		}
		s.backlog = append(s.backlog, b)
		return true
	}
	s.mutex.Unlock()

	r(b)
	return true
}
