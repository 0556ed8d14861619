// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package appinstall

import (
	"context"

	"github.com/janderssonse/clawdhost/internal/domain"
	log "github.com/sirupsen/logrus"
)

// PublishedPackage installs the gateway from the npm registry. The npm and
// npm-alt methods differ only in the package name.
type PublishedPackage struct {
	method domain.InstallMethod
	name   string
	runner domain.CommandRunner
}

// NewPublishedPackage creates a registry install strategy for package name.
func NewPublishedPackage(method domain.InstallMethod, name string, runner domain.CommandRunner) *PublishedPackage {
	return &PublishedPackage{method: method, name: name, runner: runner}
}

// Method returns the install method this strategy serves.
func (p *PublishedPackage) Method() domain.InstallMethod {
	return p.method
}

// Install runs a global npm install of the pinned package.
func (p *PublishedPackage) Install(ctx context.Context, cfg domain.RunConfiguration) error {
	spec := cfg.PackageSpec(p.name)

	log.WithFields(log.Fields{"method": p.method, "package": spec}).Info("installing gateway from npm")

	if err := p.runner.RunPrivileged(ctx, false, "npm", "install", "-g", spec); err != nil {
		return domain.NewProvisioningError("install "+spec, err)
	}

	return nil
}
