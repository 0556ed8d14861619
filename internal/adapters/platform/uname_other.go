// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

//go:build !unix

package platform

import "runtime"

func hostUname() (string, string) {
	return runtime.GOARCH, "unknown"
}
