// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package pkgmgr

import (
	"fmt"

	"github.com/janderssonse/clawdhost/internal/domain"
)

type factory func(manager domain.PackageManager, runner domain.CommandRunner) (driver, error)

// registry holds one backend per manager family.
var registry = map[domain.ManagerFamily]factory{
	domain.ManagerFamilyAPTLike: func(_ domain.PackageManager, r domain.CommandRunner) (driver, error) {
		return &aptDriver{runner: r}, nil
	},
	domain.ManagerFamilyDNFYum: func(m domain.PackageManager, r domain.CommandRunner) (driver, error) {
		return &rpmDriver{runner: r, command: string(m)}, nil
	},
	domain.ManagerFamilyPacman: func(_ domain.PackageManager, r domain.CommandRunner) (driver, error) {
		return &pacmanDriver{runner: r}, nil
	},
	domain.ManagerFamilyZypper: func(_ domain.PackageManager, r domain.CommandRunner) (driver, error) {
		return &zypperDriver{runner: r}, nil
	},
	domain.ManagerFamilyHomebrew: func(_ domain.PackageManager, r domain.CommandRunner) (driver, error) {
		if !r.CommandExists("brew") {
			return nil, domain.NewPreconditionError("package manager", domain.ErrHomebrewMissing)
		}

		return &brewDriver{runner: r}, nil
	},
}

// New returns the installer backing the profile's package manager.
func New(profile *domain.PlatformProfile, runner domain.CommandRunner) (*Installer, error) {
	build, ok := registry[profile.PackageManager.Family()]
	if !ok {
		return nil, domain.NewPreconditionError("package manager",
			fmt.Errorf("%w: %q", domain.ErrUnsupportedDistribution, profile.PackageManager))
	}

	drv, err := build(profile.PackageManager, runner)
	if err != nil {
		return nil, err
	}

	return &Installer{driver: drv}, nil
}
