// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package firewall

import (
	"context"
	"fmt"
	"strings"

	"github.com/janderssonse/clawdhost/internal/domain"
)

// UFW configures the Uncomplicated Firewall on apt-based hosts.
type UFW struct {
	deps Deps
}

var _ domain.FirewallConfigurator = (*UFW)(nil)

// NewUFW creates the UFW backend.
func NewUFW(deps Deps) *UFW {
	return &UFW{deps: deps}
}

// Name returns the firewall name.
func (u *UFW) Name() string {
	return "ufw"
}

// Configure allows each port, sets the default policy and enables UFW when inactive.
func (u *UFW) Configure(ctx context.Context, ports []int) error {
	runner := u.deps.Runner

	if err := u.deps.Packages.EnsurePackages(ctx, "ufw"); err != nil {
		return err
	}

	for _, port := range ports {
		if err := runner.RunPrivileged(ctx, false, "ufw", "allow", tcpPort(port)); err != nil {
			return fmt.Errorf("failed to allow %s: %w", tcpPort(port), err)
		}
	}

	if err := runner.RunPrivileged(ctx, false, "ufw", "default", "deny", "incoming"); err != nil {
		return err
	}

	if err := runner.RunPrivileged(ctx, false, "ufw", "default", "allow", "outgoing"); err != nil {
		return err
	}

	status, err := runner.RunPrivilegedWithOutput(ctx, "ufw", "status")
	if err != nil {
		return fmt.Errorf("failed to read ufw status: %w", err)
	}

	if strings.Contains(status, "Status: active") {
		return nil
	}

	return runner.RunPrivileged(ctx, false, "ufw", "--force", "enable")
}
