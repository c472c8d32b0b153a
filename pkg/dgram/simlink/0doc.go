// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package simlink simulates a point to point link on a sched.Sim.
//
// Each direction of a link serializes its datagrams at the configured
// bandwidth, one after another, before they travel for the one-way latency.
// Datagrams might be lost at random, based on a seeded generator, or dropped
// when the transmit queue is full. Everything happens in virtual time, so runs
// are deterministic.
package simlink
