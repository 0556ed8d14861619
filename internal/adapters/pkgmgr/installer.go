// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

// Package pkgmgr implements the package-manager abstraction, one backend per
// supported manager family.
package pkgmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/janderssonse/clawdhost/internal/domain"
	log "github.com/sirupsen/logrus"
)

// driver is the per-manager half of an Installer.
type driver interface {
	manager() domain.PackageManager
	refresh(ctx context.Context) error
	install(ctx context.Context, names []string) error
	isInstalled(ctx context.Context, name string) bool
}

// Installer implements the PackageInstaller port on top of one driver.
// The index is refreshed lazily, at most once per run, before the first
// install that actually has something to do.
type Installer struct {
	driver    driver
	refreshed bool
}

var _ domain.PackageInstaller = (*Installer)(nil)

// Name returns the backing manager.
func (i *Installer) Name() domain.PackageManager {
	return i.driver.manager()
}

// RefreshIndex updates the package index.
func (i *Installer) RefreshIndex(ctx context.Context) error {
	if err := i.driver.refresh(ctx); err != nil {
		return fmt.Errorf("failed to refresh %s index: %w", i.driver.manager(), err)
	}

	i.refreshed = true

	return nil
}

// EnsurePackages installs every package that is not present yet.
func (i *Installer) EnsurePackages(ctx context.Context, names ...string) error {
	missing := make([]string, 0, len(names))

	for _, name := range names {
		if i.driver.isInstalled(ctx, name) {
			log.WithFields(log.Fields{"manager": i.driver.manager(), "package": name}).Debug("package already installed")

			continue
		}

		missing = append(missing, name)
	}

	if len(missing) == 0 {
		return nil
	}

	if !i.refreshed {
		if err := i.RefreshIndex(ctx); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{"manager": i.driver.manager(), "packages": strings.Join(missing, " ")}).Info("installing packages")

	if err := i.driver.install(ctx, missing); err != nil {
		return fmt.Errorf("failed to install %s: %w", strings.Join(missing, " "), err)
	}

	return nil
}

// queryInstalled reports success when the query command exits cleanly with output.
func queryInstalled(ctx context.Context, runner domain.CommandRunner, name string, args ...string) bool {
	output, err := runner.ExecuteWithOutput(ctx, name, args...)

	return err == nil && strings.TrimSpace(output) != ""
}
