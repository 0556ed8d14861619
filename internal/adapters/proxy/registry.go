// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

// Package proxy configures the reverse proxy that terminates TLS in front of
// the gateway.
package proxy

import (
	"context"
	"fmt"
	"strings"

	"github.com/janderssonse/clawdhost/internal/domain"
)

// Deps are the collaborators every proxy backend needs.
type Deps struct {
	Profile  *domain.PlatformProfile
	Runner   domain.CommandRunner
	Files    domain.FileManager
	Packages domain.PackageInstaller
	DryRun   bool
}

// backends holds one configurator per proxy kind.
var backends = map[domain.ProxyKind]func(Deps) domain.ProxyConfigurator{
	domain.ProxyCaddy: func(d Deps) domain.ProxyConfigurator { return NewCaddy(d) },
	domain.ProxyNginx: func(d Deps) domain.ProxyConfigurator { return NewNginx(d) },
}

// New returns the backend registered for kind.
func New(kind domain.ProxyKind, deps Deps) (domain.ProxyConfigurator, error) {
	build, ok := backends[kind]
	if !ok {
		return nil, domain.NewPreconditionError("proxy", fmt.Errorf("%w: %q", domain.ErrUnsupportedProxy, kind))
	}

	return build(deps), nil
}

// brewPrefix returns the Homebrew installation prefix. A dry run, which
// captures no output, assumes the default prefix for the architecture.
func brewPrefix(ctx context.Context, deps Deps) (string, error) {
	output, err := deps.Runner.ExecuteWithOutput(ctx, "brew", "--prefix")
	if err != nil {
		return "", fmt.Errorf("failed to resolve homebrew prefix: %w", err)
	}

	prefix := strings.TrimSpace(output)

	switch {
	case prefix != "":
		return prefix, nil
	case deps.DryRun:
		return defaultBrewPrefix(deps.Profile.Architecture), nil
	default:
		return "", fmt.Errorf("%w: empty homebrew prefix", domain.ErrHomebrewMissing)
	}
}

func defaultBrewPrefix(arch string) string {
	if arch == "arm64" || arch == "aarch64" {
		return "/opt/homebrew"
	}

	return "/usr/local"
}
