// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package proxy

import (
	"context"
	"fmt"

	"github.com/janderssonse/clawdhost/internal/domain"
)

// services starts proxy daemons with systemd, or brew services on macOS.
type services struct {
	profile *domain.PlatformProfile
	runner  domain.CommandRunner
}

// Restart enables name at boot and restarts it.
func (s services) Restart(ctx context.Context, name string) error {
	if s.profile.IsDarwin() {
		return s.brew(ctx, "restart", name)
	}

	if err := s.runner.RunPrivileged(ctx, false, "systemctl", "enable", name); err != nil {
		return fmt.Errorf("failed to enable %s: %w", name, err)
	}

	if err := s.runner.RunPrivileged(ctx, false, "systemctl", "restart", name); err != nil {
		return fmt.Errorf("failed to restart %s: %w", name, err)
	}

	return nil
}

// Start enables and starts name without interrupting a running instance.
func (s services) Start(ctx context.Context, name string) error {
	if s.profile.IsDarwin() {
		return s.brew(ctx, "start", name)
	}

	if err := s.runner.RunPrivileged(ctx, false, "systemctl", "enable", "--now", name); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}

	return nil
}

// Reload makes a running name pick up new configuration, starting it first.
func (s services) Reload(ctx context.Context, name string) error {
	if s.profile.IsDarwin() {
		return s.brew(ctx, "restart", name)
	}

	if err := s.Start(ctx, name); err != nil {
		return err
	}

	if err := s.runner.RunPrivileged(ctx, false, "systemctl", "reload", name); err != nil {
		return fmt.Errorf("failed to reload %s: %w", name, err)
	}

	return nil
}

func (s services) brew(ctx context.Context, action, name string) error {
	if err := s.runner.Execute(ctx, "brew", "services", action, name); err != nil {
		return fmt.Errorf("failed to %s %s: %w", action, name, err)
	}

	return nil
}
