// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

//go:build unix

package platform

import (
	"runtime"

	"golang.org/x/sys/unix"
)

func hostUname() (string, string) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return runtime.GOARCH, "unknown"
	}

	return unix.ByteSliceToString(uts.Machine[:]), unix.ByteSliceToString(uts.Release[:])
}
