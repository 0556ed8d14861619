// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package firewall

import (
	"context"
	"fmt"

	"github.com/janderssonse/clawdhost/internal/domain"
)

// Firewalld configures firewalld on dnf/yum and zypper hosts.
type Firewalld struct {
	deps Deps
}

var _ domain.FirewallConfigurator = (*Firewalld)(nil)

// NewFirewalld creates the firewalld backend.
func NewFirewalld(deps Deps) *Firewalld {
	return &Firewalld{deps: deps}
}

// Name returns the firewall name.
func (f *Firewalld) Name() string {
	return "firewalld"
}

// Configure starts firewalld and opens each port permanently.
func (f *Firewalld) Configure(ctx context.Context, ports []int) error {
	runner := f.deps.Runner

	if err := f.deps.Packages.EnsurePackages(ctx, "firewalld"); err != nil {
		return err
	}

	if err := runner.RunPrivileged(ctx, false, "systemctl", "enable", "--now", "firewalld"); err != nil {
		return fmt.Errorf("failed to start firewalld: %w", err)
	}

	for _, port := range ports {
		if err := runner.RunPrivileged(ctx, false, "firewall-cmd", "--permanent", "--add-port="+tcpPort(port)); err != nil {
			return fmt.Errorf("failed to open %s: %w", tcpPort(port), err)
		}
	}

	return runner.RunPrivileged(ctx, false, "firewall-cmd", "--reload")
}
