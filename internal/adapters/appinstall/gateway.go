// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package appinstall

import (
	"context"
	"strings"

	"github.com/janderssonse/clawdhost/internal/domain"
)

// Gateway drives the installed gateway through its own CLI.
type Gateway struct {
	runner domain.CommandRunner
}

// NewGateway creates a gateway CLI client.
func NewGateway(runner domain.CommandRunner) *Gateway {
	return &Gateway{runner: runner}
}

// Onboard runs the gateway's onboarding and installs its daemon.
func (g *Gateway) Onboard(ctx context.Context) error {
	if err := g.runner.ExecuteInteractive(ctx, domain.GatewayBinary, "onboard", "--install-daemon"); err != nil {
		return domain.NewProvisioningError("onboard", err)
	}

	return nil
}

// TrustLocalProxy makes the gateway trust the local reverse proxy. It
// reports whether the setting had to be changed.
func (g *Gateway) TrustLocalProxy(ctx context.Context) (bool, error) {
	current, err := g.runner.ExecuteWithOutput(ctx, domain.GatewayBinary, "config", "get", domain.TrustedProxyKey)
	if err == nil && strings.TrimSpace(current) == domain.GatewayHost {
		return false, nil
	}

	if err := g.runner.Execute(ctx, domain.GatewayBinary, "config", "set", domain.TrustedProxyKey, domain.GatewayHost); err != nil {
		return false, domain.NewProvisioningError("configure trusted proxy", err)
	}

	return true, nil
}

// Version returns the `--version` output, or "" when unavailable.
func (g *Gateway) Version(ctx context.Context) string {
	output, err := g.runner.ExecuteWithOutput(ctx, domain.GatewayBinary, "--version")
	if err != nil {
		return ""
	}

	return strings.TrimSpace(output)
}

// Status returns the `gateway status` output; failures are returned as text.
func (g *Gateway) Status(ctx context.Context) string {
	output, err := g.runner.ExecuteWithOutput(ctx, domain.GatewayBinary, "gateway", "status")
	if err != nil {
		return "unavailable: " + err.Error()
	}

	return strings.TrimSpace(output)
}
