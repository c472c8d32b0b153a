// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sched provides the single logical timeline every channel runs on.
//
// A Scheduler executes posted functions and expired timers strictly one after
// another, never concurrently. Thus, code running on a Scheduler does not need
// any locking. Two implementations exist: Sim, a deterministic discrete event
// simulation with a virtual clock, and Loop, which runs in real time on its own
// goroutine.
package sched
