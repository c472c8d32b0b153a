// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package congestion

// State of a Controller.
type State uint8

const (
	// SlowStart grows the window by one packet per acknowledged packet.
	SlowStart State = iota

	// CongestionAvoidance grows the window by roughly one packet per round trip.
	CongestionAvoidance
)

func (s State) String() string {
	switch s {
	case SlowStart:
		return "SlowStart"
	case CongestionAvoidance:
		return "CongestionAvoidance"
	default:
		return "Unknown"
	}
}
