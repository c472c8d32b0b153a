// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sched

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Loop is a real time Scheduler. One goroutine executes all posted functions
// and expired timers, one at a time.
//
// Post might be called from any goroutine, including the Loop itself, and
// never blocks. Schedule and Timer.Cancel must be called from within the
// Loop, e.g., from a posted function.
type Loop struct {
	mutex sync.Mutex
	tasks []func()
	wake  chan struct{}

	closeOnce sync.Once
	stopSyn   chan struct{}
	stopAck   chan struct{}
}

// NewLoop creates and starts a new Loop. The queue size is the initial
// capacity of the task queue, which grows on demand.
func NewLoop(queueSize int) *Loop {
	if queueSize < 1 {
		queueSize = 1
	}

	l := &Loop{
		tasks:   make([]func(), 0, queueSize),
		wake:    make(chan struct{}, 1),
		stopSyn: make(chan struct{}),
		stopAck: make(chan struct{}),
	}

	go l.handler()
	return l
}

func (l *Loop) handler() {
	defer close(l.stopAck)

	for {
		select {
		case <-l.stopSyn:
			log.Debug("Loop received closing signal")
			return

		case <-l.wake:
			for fn := l.next(); fn != nil; fn = l.next() {
				select {
				case <-l.stopSyn:
					log.Debug("Loop received closing signal")
					return
				default:
				}

				l.execute(fn)
			}
		}
	}
}

// next pops the oldest task or returns nil.
func (l *Loop) next() func() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if len(l.tasks) == 0 {
		return nil
	}

	fn := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	return fn
}

func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Loop: recovered from panicking task")
		}
	}()

	fn()
}

// Now returns the wall clock time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Post fn for execution within the Loop. After Close, fn is discarded.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.stopSyn:
		return
	default:
	}

	l.mutex.Lock()
	l.tasks = append(l.tasks, fn)
	l.mutex.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Schedule fn after d. The expired timer posts itself into the Loop, so its
// callback runs serialized with everything else.
func (l *Loop) Schedule(d time.Duration, fn func()) *Timer {
	t := &Timer{when: time.Now().Add(d), fn: fn}
	tt := time.AfterFunc(d, func() {
		l.Post(t.fire)
	})
	t.stop = tt.Stop
	return t
}

// Do executes fn within the Loop and waits for its completion. It returns
// false if the Loop was closed before fn could run.
func (l *Loop) Do(fn func()) bool {
	done := make(chan struct{})
	l.Post(func() {
		fn()
		close(done)
	})

	select {
	case <-done:
		return true
	case <-l.stopAck:
		return false
	}
}

// Close stops the Loop and waits for the running task, if any, to finish.
// Outstanding tasks and timers are discarded.
func (l *Loop) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopSyn)
	})
	<-l.stopAck
	return nil
}
