// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

// Package system holds host-wide constants shared by the adapters.
package system

import "os"

// File permission constants for consistent file creation.
const (
	// FilePermDefault is the default file permission (0644).
	FilePermDefault os.FileMode = 0o644

	// FilePermUserRW is used for staging files (0600).
	FilePermUserRW os.FileMode = 0o600

	// DirPermDefault is the default directory permission (0755).
	DirPermDefault os.FileMode = 0o755
)

// LockFileName is the advisory lock that serialises runs on one host.
const LockFileName = "clawdhost.lock"
