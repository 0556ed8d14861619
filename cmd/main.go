// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

// Package main provides the CLI entry point for clawdhost.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/janderssonse/clawdhost/internal/cli"
	"github.com/janderssonse/clawdhost/internal/system"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Two concurrent runs would race on the package manager and proxy config.
	lockPath := filepath.Join(os.TempDir(), system.LockFileName)
	lock := flock.New(lockPath)

	locked, err := lock.TryLock()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to acquire process lock: %v\n", err)

		return cli.ExitSystemError
	}

	if !locked {
		fmt.Fprintf(os.Stderr, "Another clawdhost run is in progress (%s)\n", lockPath)

		return cli.ExitLockedError
	}

	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to release process lock: %v\n", unlockErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewCLI().Run(ctx, os.Args); err != nil {
		// The CLI has already reported the failure in the selected output mode.
		exitErr := &cli.ExitError{}
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		fmt.Fprintf(os.Stderr, "Unexpected error: %v\n", err)

		return cli.ExitGeneralError
	}

	return cli.ExitSuccess
}
