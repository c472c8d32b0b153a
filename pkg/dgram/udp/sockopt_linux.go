// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build linux
// +build linux

package udp

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// control returns a Control function for net.Dialer and net.ListenConfig,
// setting the socket buffer sizes of the Config. Based on socket(7), the
// kernel doubles these values for bookkeeping overhead.
func (c Config) control() func(_, _ string, rawConn syscall.RawConn) error {
	opts := map[int]int{}
	if c.ReadBuffer > 0 {
		opts[unix.SO_RCVBUF] = c.ReadBuffer
	}
	if c.WriteBuffer > 0 {
		opts[unix.SO_SNDBUF] = c.WriteBuffer
	}

	return func(_, _ string, rawConn syscall.RawConn) (err error) {
		ctrlErr := rawConn.Control(func(fd uintptr) {
			for opt, value := range opts {
				err = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, opt, value)
				if err != nil {
					return
				}
			}
		})
		if ctrlErr != nil {
			return ctrlErr
		}
		return
	}
}
