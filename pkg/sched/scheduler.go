// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sched

import "time"

// Scheduler serializes functions on one timeline.
type Scheduler interface {
	// Now returns the Scheduler's current time.
	Now() time.Time

	// Schedule fn to be executed after d. The returned Timer might cancel it.
	Schedule(d time.Duration, fn func()) *Timer

	// Post fn to be executed as soon as possible, after everything already due.
	Post(fn func())
}

// Timer is a handle for a scheduled function.
type Timer struct {
	when time.Time
	fn   func()

	fired     bool
	cancelled bool

	// stop is set by Loop to release the underlying time.Timer.
	stop func() bool
}

// When returns the point in time this Timer is due.
func (t *Timer) When() time.Time {
	return t.when
}

// Cancel this Timer. It returns false if the Timer has already fired or was
// cancelled before; calling Cancel again is always safe. A nil Timer might be
// cancelled as well.
//
// Cancel must be called from the Scheduler's timeline.
func (t *Timer) Cancel() bool {
	if t == nil || t.fired || t.cancelled {
		return false
	}

	t.cancelled = true
	t.fn = nil
	if t.stop != nil {
		t.stop()
	}
	return true
}

// Active reports if this Timer is still waiting to fire.
func (t *Timer) Active() bool {
	return t != nil && !t.fired && !t.cancelled
}

// fire executes the Timer's function once, unless it was cancelled.
func (t *Timer) fire() {
	if t.fired || t.cancelled {
		return
	}

	t.fired = true
	fn := t.fn
	t.fn = nil
	fn()
}
