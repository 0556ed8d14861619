// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package platform

import (
	"os"
	"path/filepath"
	"strings"
)

const appName = "clawdhost"

// GetXDGConfigHome returns XDG config directory.
func GetXDGConfigHome() string {
	return GetXDGConfigHomeWithEnv(os.Getenv("XDG_CONFIG_HOME"))
}

// GetXDGConfigHomeWithEnv returns XDG config directory with custom environment override for testing.
func GetXDGConfigHomeWithEnv(xdgConfigHome string) string {
	if xdgConfigHome != "" {
		return xdgConfigHome
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config")
	}

	return ""
}

// GetXDGStateHome returns XDG state directory.
func GetXDGStateHome() string {
	return GetXDGStateHomeWithEnv(os.Getenv("XDG_STATE_HOME"))
}

// GetXDGStateHomeWithEnv returns XDG state directory with custom environment override for testing.
func GetXDGStateHomeWithEnv(xdgStateHome string) string {
	if xdgStateHome != "" {
		return xdgStateHome
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state")
	}

	return ""
}

// DefaultConfigPath returns the config file looked up when --config is not given.
func DefaultConfigPath() string {
	return filepath.Join(GetXDGConfigHome(), appName, "config.toml")
}

// DefaultLogPath returns the run log location for the current privilege level.
func DefaultLogPath(privileged bool) string {
	if privileged {
		return filepath.Join("/var/log", appName+".log")
	}

	return filepath.Join(GetXDGStateHome(), appName, appName+".log")
}

// DefaultSourceDir returns the checkout directory of the source-build strategy.
func DefaultSourceDir(dirName string) string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, dirName)
	}

	return filepath.Join(os.TempDir(), dirName)
}

// ExpandPath expands a leading ~/ to the home directory.
func ExpandPath(path string) string {
	if after, found := strings.CutPrefix(path, "~/"); found {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, after)
		}
	}

	return path
}
