// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

// Package logging configures the structured run log.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ConsoleTarget sends the run log to stderr instead of a file.
const ConsoleTarget = "console"

// Init parses the level and points the standard logger at logPath.
// The returned function flushes and closes the log file.
func Init(logLevel, logPath string) (func() error, error) {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("failed parsing log-level %s: %w", logLevel, err)
	}

	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		DisableColors:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	if logPath == "" || logPath == ConsoleTarget {
		log.SetOutput(os.Stderr)

		return func() error { return nil }, nil
	}

	// #nosec G301 - Standard directory permissions for log directories
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		log.SetOutput(io.Discard)

		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lumberjackLogger := &lumberjack.Logger{
		// Log file absolute path, os agnostic
		Filename:   filepath.ToSlash(logPath),
		MaxSize:    5, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	log.SetOutput(io.Writer(lumberjackLogger))

	return lumberjackLogger.Close, nil
}

// Discard silences the standard logger; used by tests and subcommands that
// do not provision.
func Discard() {
	log.SetOutput(io.Discard)
}
