// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package pkgmgr_test

import (
	"context"
	"strings"
	"testing"

	"github.com/janderssonse/clawdhost/internal/adapters/pkgmgr"
	"github.com/janderssonse/clawdhost/internal/adapters/platform"
	"github.com/janderssonse/clawdhost/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileFor(manager domain.PackageManager) *domain.PlatformProfile {
	return &domain.PlatformProfile{PackageManager: manager}
}

func TestNew_SelectsBackendPerManager(t *testing.T) {
	t.Parallel()

	for _, manager := range []domain.PackageManager{
		domain.ManagerAPT, domain.ManagerDNF, domain.ManagerYum,
		domain.ManagerPacman, domain.ManagerZypper, domain.ManagerHomebrew,
	} {
		t.Run(string(manager), func(t *testing.T) {
			t.Parallel()

			installer, err := pkgmgr.New(profileFor(manager), platform.NewMockCommandRunner(false))
			require.NoError(t, err)
			assert.Equal(t, manager, installer.Name())
		})
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	_, err := pkgmgr.New(profileFor("portage"), platform.NewMockCommandRunner(false))
	require.ErrorIs(t, err, domain.ErrUnsupportedDistribution)

	runner := platform.NewMockCommandRunner(false)
	runner.SetCommandMissing("brew", true)

	_, err = pkgmgr.New(profileFor(domain.ManagerHomebrew), runner)
	require.ErrorIs(t, err, domain.ErrHomebrewMissing)
	assert.Equal(t, domain.KindPrecondition, domain.KindOf(err))
}

func TestEnsurePackages_Commands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		manager     domain.PackageManager
		wantRefresh string
		wantInstall string
	}{
		{domain.ManagerDNF, "sudo dnf makecache", "sudo dnf install -y curl git"},
		{domain.ManagerYum, "sudo yum makecache", "sudo yum install -y curl git"},
		{domain.ManagerPacman, "sudo pacman -Sy --noconfirm", "sudo pacman -S --noconfirm --needed curl git"},
		{domain.ManagerZypper, "sudo zypper --non-interactive refresh", "sudo zypper --non-interactive install curl git"},
		{domain.ManagerHomebrew, "brew update", "brew install curl git"},
	}

	for _, tt := range tests {
		t.Run(string(tt.manager), func(t *testing.T) {
			t.Parallel()

			runner := platform.NewMockCommandRunner(false)

			installer, err := pkgmgr.New(profileFor(tt.manager), runner)
			require.NoError(t, err)
			require.NoError(t, installer.EnsurePackages(context.Background(), "curl", "git"))

			calls := mutations(runner.Calls())
			assert.Equal(t, []string{tt.wantRefresh, tt.wantInstall}, calls)
		})
	}
}

func TestEnsurePackages_APT(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockCommandRunner(false)
	runner.SetMockOutput("dpkg-query -W -f=${Status} curl", "install ok installed")

	installer, err := pkgmgr.New(profileFor(domain.ManagerAPT), runner)
	require.NoError(t, err)
	require.NoError(t, installer.EnsurePackages(context.Background(), "curl", "git", "ca-certificates"))

	calls := mutations(runner.Calls())
	require.Len(t, calls, 2)
	assert.True(t, strings.HasPrefix(calls[0], "sudo apt-get"))
	assert.True(t, strings.HasSuffix(calls[0], "update"))
	assert.True(t, strings.HasPrefix(calls[1], "sudo -E env DEBIAN_FRONTEND=noninteractive apt-get"))
	assert.True(t, strings.HasSuffix(calls[1], "install -y git ca-certificates"), calls[1])
}

func TestEnsurePackages_PresentPackagesAreNoOps(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockCommandRunner(false)
	runner.SetMockOutput("pacman -Q nginx", "nginx 1.26.2-1")
	runner.SetMockOutput("pacman -Q certbot", "certbot 2.11.0-1")

	installer, err := pkgmgr.New(profileFor(domain.ManagerPacman), runner)
	require.NoError(t, err)
	require.NoError(t, installer.EnsurePackages(context.Background(), "nginx", "certbot"))

	assert.Empty(t, mutations(runner.Calls()))
}

func TestEnsurePackages_RefreshesOnce(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockCommandRunner(false)

	installer, err := pkgmgr.New(profileFor(domain.ManagerZypper), runner)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, installer.EnsurePackages(ctx, "curl"))
	require.NoError(t, installer.EnsurePackages(ctx, "nginx"))

	assert.Equal(t, []string{
		"sudo zypper --non-interactive refresh",
		"sudo zypper --non-interactive install curl",
		"sudo zypper --non-interactive install nginx",
	}, mutations(runner.Calls()))
}

func TestEnsurePackages_FailureWrapsToolError(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockCommandRunner(false)
	runner.SetMockError("install -y", domain.ErrCommandFailed)

	installer, err := pkgmgr.New(profileFor(domain.ManagerDNF), runner)
	require.NoError(t, err)

	err = installer.EnsurePackages(context.Background(), "nodejs")
	require.ErrorIs(t, err, domain.ErrCommandFailed)
	assert.Contains(t, err.Error(), "failed to install nodejs")
}

// mutations drops the read-only presence queries from a call log.
func mutations(calls []string) []string {
	var out []string

	for _, call := range calls {
		if strings.HasPrefix(call, "dpkg-query") || strings.HasPrefix(call, "rpm -q") ||
			strings.HasPrefix(call, "pacman -Q") || strings.HasPrefix(call, "brew list") {
			continue
		}

		out = append(out, call)
	}

	return out
}
