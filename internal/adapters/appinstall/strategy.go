// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

// Package appinstall implements the installation strategies of the gateway
// application. Exactly one strategy runs per invocation; there is no
// fallback between them.
package appinstall

import (
	"fmt"

	"github.com/janderssonse/clawdhost/internal/domain"
)

type factory func(runner domain.CommandRunner, files domain.FileManager) domain.AppInstaller

// strategies holds one installer per install method.
var strategies = map[domain.InstallMethod]factory{
	domain.MethodNPM: func(r domain.CommandRunner, _ domain.FileManager) domain.AppInstaller {
		return NewPublishedPackage(domain.MethodNPM, domain.PublishedPackage, r)
	},
	domain.MethodNPMAlt: func(r domain.CommandRunner, _ domain.FileManager) domain.AppInstaller {
		return NewPublishedPackage(domain.MethodNPMAlt, domain.PublishedAltPackage, r)
	},
	domain.MethodGit: func(r domain.CommandRunner, f domain.FileManager) domain.AppInstaller {
		return NewSourceBuild(r, f)
	},
}

// New returns the strategy registered for method.
func New(method domain.InstallMethod, runner domain.CommandRunner, files domain.FileManager) (domain.AppInstaller, error) {
	build, ok := strategies[method]
	if !ok {
		return nil, domain.NewPreconditionError("install", fmt.Errorf("%w: %q", domain.ErrUnsupportedInstallMethod, method))
	}

	return build(runner, files), nil
}
