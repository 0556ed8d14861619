// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

// Package firewall opens the gateway's port set with the firewall native to
// each platform.
package firewall

import (
	"fmt"
	"strconv"

	"github.com/janderssonse/clawdhost/internal/domain"
)

// Deps are the collaborators every firewall backend needs.
type Deps struct {
	Profile  *domain.PlatformProfile
	Runner   domain.CommandRunner
	Files    domain.FileManager
	Packages domain.PackageInstaller
	DryRun   bool
}

// backends holds one configurator per package-manager family.
var backends = map[domain.ManagerFamily]func(Deps) domain.FirewallConfigurator{
	domain.ManagerFamilyAPTLike:  func(d Deps) domain.FirewallConfigurator { return NewUFW(d) },
	domain.ManagerFamilyDNFYum:   func(d Deps) domain.FirewallConfigurator { return NewFirewalld(d) },
	domain.ManagerFamilyZypper:   func(d Deps) domain.FirewallConfigurator { return NewFirewalld(d) },
	domain.ManagerFamilyPacman:   func(d Deps) domain.FirewallConfigurator { return NewIPTables(d) },
	domain.ManagerFamilyHomebrew: func(Deps) domain.FirewallConfigurator { return Noop{} },
}

// New returns the firewall backend for the profile's package manager.
func New(deps Deps) (domain.FirewallConfigurator, error) {
	build, ok := backends[deps.Profile.PackageManager.Family()]
	if !ok {
		return nil, domain.NewPreconditionError("firewall",
			fmt.Errorf("%w: %q", domain.ErrUnsupportedDistribution, deps.Profile.PackageManager))
	}

	return build(deps), nil
}

func tcpPort(port int) string {
	return strconv.Itoa(port) + "/tcp"
}
