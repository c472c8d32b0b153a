// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sched

import (
	"container/heap"
	"time"
)

// Sim is a discrete event Scheduler with a virtual clock. Time only advances
// when the next event is executed; events at the same point in time run in the
// order of their scheduling.
type Sim struct {
	now    time.Time
	seq    uint64
	events eventHeap
}

// NewSim creates a Sim starting at the given time. A zero start begins at the
// Unix epoch.
func NewSim(start time.Time) *Sim {
	if start.IsZero() {
		start = time.Unix(0, 0)
	}
	return &Sim{now: start}
}

// Now returns the virtual time.
func (s *Sim) Now() time.Time {
	return s.now
}

// Elapsed returns the virtual time passed since start.
func (s *Sim) Elapsed(start time.Time) time.Duration {
	return s.now.Sub(start)
}

// Schedule fn after the virtual duration d. Negative durations are treated as zero.
func (s *Sim) Schedule(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}

	t := &Timer{when: s.now.Add(d), fn: fn}
	s.seq++
	heap.Push(&s.events, &event{timer: t, seq: s.seq})
	return t
}

// Post fn for the current virtual time.
func (s *Sim) Post(fn func()) {
	s.Schedule(0, fn)
}

// Pending returns the number of queued events, cancelled ones included.
func (s *Sim) Pending() int {
	return len(s.events)
}

// Step executes the next event which was not cancelled. It returns false if
// no such event exists.
func (s *Sim) Step() bool {
	for len(s.events) > 0 {
		ev := heap.Pop(&s.events).(*event)
		if !ev.timer.Active() {
			continue
		}

		s.now = ev.timer.when
		ev.timer.fire()
		return true
	}
	return false
}

// Run until no event is left.
func (s *Sim) Run() {
	for s.Step() {
	}
}

// RunUntil executes every event due up to and including t. Afterwards, the
// virtual clock is set to t if it was behind.
func (s *Sim) RunUntil(t time.Time) {
	for {
		next, ok := s.peek()
		if !ok || next.After(t) {
			break
		}
		s.Step()
	}

	if s.now.Before(t) {
		s.now = t
	}
}

// RunFor executes every event within the next d of virtual time.
func (s *Sim) RunFor(d time.Duration) {
	s.RunUntil(s.now.Add(d))
}

// peek returns the due time of the next active event.
func (s *Sim) peek() (time.Time, bool) {
	for len(s.events) > 0 {
		if ev := s.events[0]; ev.timer.Active() {
			return ev.timer.when, true
		}
		heap.Pop(&s.events)
	}
	return time.Time{}, false
}

type event struct {
	timer *Timer
	seq   uint64
}

// eventHeap orders events by their due time and, second, by insertion.
type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if !h[i].timer.when.Equal(h[j].timer.when) {
		return h[i].timer.when.Before(h[j].timer.when)
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(*event))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}
