// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !linux
// +build !linux

package udp

import "syscall"

// control is a no-op outside of Linux. The buffer sizes are applied through
// the net.UDPConn afterwards.
func (c Config) control() func(_, _ string, rawConn syscall.RawConn) error {
	return nil
}
