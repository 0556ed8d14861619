// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package runtime_test

import (
	"context"
	"testing"

	"github.com/janderssonse/clawdhost/internal/adapters/platform"
	"github.com/janderssonse/clawdhost/internal/adapters/runtime"
	"github.com/janderssonse/clawdhost/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeetsMinimum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    bool
		wantErr bool
	}{
		{raw: "v22.11.0", want: true},
		{raw: "v22.0.0\n", want: true},
		{raw: "v23.1.0", want: true},
		{raw: "v21.7.3", want: false},
		{raw: "v18.19.0", want: false},
		{raw: "v22.0.0-nightly2024", want: true},
		{raw: "not-a-version", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			got, err := runtime.MeetsMinimum(tt.raw, domain.MinRuntimeMajor)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnsureRuntime_AlreadySatisfied(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockCommandRunner(false)
	runner.SetMockOutput("node --version", "v22.11.0\n")

	installer := runtime.NewNodeInstaller(&domain.PlatformProfile{PackageManager: domain.ManagerAPT},
		runner, platform.NewMockNetworkClient())

	require.NoError(t, installer.EnsureRuntime(context.Background(), 22))
	assert.Equal(t, []string{"node --version"}, runner.Calls())
}

func TestEnsureRuntime_InstallsPerManager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		manager   domain.PackageManager
		wantCalls []string
		wantURL   string
	}{
		{
			name:    "apt uses nodesource deb",
			manager: domain.ManagerAPT,
			wantCalls: []string{
				"sudo -E bash SCRIPT",
				"sudo -E env DEBIAN_FRONTEND=noninteractive apt-get install -y nodejs",
			},
			wantURL: "https://deb.nodesource.com/setup_22.x",
		},
		{
			name:    "yum uses nodesource rpm",
			manager: domain.ManagerYum,
			wantCalls: []string{
				"sudo -E bash SCRIPT",
				"sudo -E yum install -y nodejs",
			},
			wantURL: "https://rpm.nodesource.com/setup_22.x",
		},
		{
			name:      "pacman",
			manager:   domain.ManagerPacman,
			wantCalls: []string{"sudo pacman -S --noconfirm nodejs npm"},
		},
		{
			name:      "zypper uses versioned packages",
			manager:   domain.ManagerZypper,
			wantCalls: []string{"sudo zypper --non-interactive install nodejs22 npm22"},
		},
		{
			name:    "homebrew",
			manager: domain.ManagerHomebrew,
			wantCalls: []string{
				"brew install node@22",
				"brew link --overwrite --force node@22",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := platform.NewMockCommandRunner(false)
			runner.SetMockOutput("node --version", "v18.19.0", "v22.11.0")

			network := platform.NewMockNetworkClient()
			installer := runtime.NewNodeInstaller(&domain.PlatformProfile{PackageManager: tt.manager}, runner, network)

			require.NoError(t, installer.EnsureRuntime(context.Background(), 22))

			calls := runner.Calls()
			require.Equal(t, "node --version", calls[0])
			require.Equal(t, "node --version", calls[len(calls)-1])
			assert.Equal(t, tt.wantCalls, normalizeScript(calls[1:len(calls)-1]))

			if tt.wantURL != "" {
				assert.Equal(t, []string{tt.wantURL}, network.Downloads)
			}
		})
	}
}

func TestEnsureRuntime_StillTooOld(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockCommandRunner(false)
	runner.SetMockOutput("node --version", "v20.18.0")

	installer := runtime.NewNodeInstaller(&domain.PlatformProfile{PackageManager: domain.ManagerPacman},
		runner, platform.NewMockNetworkClient())

	err := installer.EnsureRuntime(context.Background(), 22)
	require.ErrorIs(t, err, domain.ErrRuntimeTooOld)
	assert.Equal(t, domain.KindProvisioning, domain.KindOf(err))
	assert.Contains(t, err.Error(), "v20.18.0")
}

func TestEnsureRuntime_DryRunSkipsReprobe(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockCommandRunner(false)
	runner.SetMockOutput("node --version", "v20.18.0")

	installer := runtime.NewNodeInstaller(&domain.PlatformProfile{PackageManager: domain.ManagerPacman},
		runner, platform.NewMockNetworkClient())
	installer.DryRun = true

	require.NoError(t, installer.EnsureRuntime(context.Background(), 22))
	assert.Equal(t, []string{
		"node --version",
		"sudo pacman -S --noconfirm nodejs npm",
	}, runner.Calls())
}

func TestEnsureRuntime_DarwinWithoutHomebrew(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockCommandRunner(false)
	runner.SetCommandMissing("brew", true)
	runner.SetMockOutput("node --version", "", "v22.11.0")

	network := platform.NewMockNetworkClient()
	network.Pages["https://nodejs.org/dist/latest-v22.x/"] = `<html><body><pre>
<a href="../">../</a>
<a href="node-v22.11.0-darwin-arm64.tar.gz">node-v22.11.0-darwin-arm64.tar.gz</a>
<a href="node-v22.11.0-darwin-x64.tar.gz">node-v22.11.0-darwin-x64.tar.gz</a>
</pre></body></html>`

	profile := &domain.PlatformProfile{
		OSFamily:       domain.OSAppleDesktop,
		PackageManager: domain.ManagerHomebrew,
		Architecture:   "x86_64",
	}

	require.NoError(t, runtime.NewNodeInstaller(profile, runner, network).EnsureRuntime(context.Background(), 22))
	assert.Equal(t, []string{"https://nodejs.org/dist/latest-v22.x/node-v22.11.0-darwin-x64.tar.gz"}, network.Downloads)

	calls := runner.Calls()
	assert.Contains(t, calls[1], "sudo tar -xzf ")
	assert.Contains(t, calls[1], "node-v22.11.0-darwin-x64.tar.gz -C /usr/local --strip-components=1")
}

func normalizeScript(calls []string) []string {
	out := make([]string, len(calls))

	for i, call := range calls {
		if len(call) > len("sudo -E bash ") && call[:len("sudo -E bash ")] == "sudo -E bash " {
			call = "sudo -E bash SCRIPT"
		}

		out[i] = call
	}

	return out
}
