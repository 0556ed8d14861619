// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package appinstall_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/janderssonse/clawdhost/internal/adapters/appinstall"
	"github.com/janderssonse/clawdhost/internal/adapters/platform"
	"github.com/janderssonse/clawdhost/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig(method domain.InstallMethod) domain.RunConfiguration {
	return domain.RunConfiguration{
		Domain:        "example.com",
		Proxy:         domain.ProxyCaddy,
		InstallMethod: method,
		AppVersion:    "latest",
		SourceRepo:    domain.DefaultSourceRepo,
		SourceDir:     "/home/ops/clawdbot",
	}
}

func TestNew_RegistryCoversEveryMethod(t *testing.T) {
	t.Parallel()

	for _, method := range []domain.InstallMethod{domain.MethodNPM, domain.MethodNPMAlt, domain.MethodGit} {
		strategy, err := appinstall.New(method, platform.NewMockCommandRunner(false), platform.NewMockFileManager(false))
		require.NoError(t, err)
		assert.Equal(t, method, strategy.Method())
	}

	_, err := appinstall.New("pip", platform.NewMockCommandRunner(false), platform.NewMockFileManager(false))
	require.ErrorIs(t, err, domain.ErrUnsupportedInstallMethod)
}

func TestPublishedPackage_NPMAndAltDifferByPackageToken(t *testing.T) {
	t.Parallel()

	run := func(method domain.InstallMethod) []string {
		runner := platform.NewMockCommandRunner(false)

		strategy, err := appinstall.New(method, runner, platform.NewMockFileManager(false))
		require.NoError(t, err)
		require.NoError(t, strategy.Install(context.Background(), baseConfig(method)))

		return runner.Calls()
	}

	npm := run(domain.MethodNPM)
	alt := run(domain.MethodNPMAlt)

	assert.Equal(t, []string{"sudo npm install -g clawdbot@latest"}, npm)
	assert.Equal(t, []string{"sudo npm install -g moltbot@latest"}, alt)

	npmTokens := strings.Fields(npm[0])
	altTokens := strings.Fields(alt[0])
	require.Len(t, altTokens, len(npmTokens))

	differing := 0

	for i := range npmTokens {
		if npmTokens[i] != altTokens[i] {
			differing++
		}
	}

	assert.Equal(t, 1, differing)
}

func TestPublishedPackage_PinnedVersion(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockCommandRunner(false)
	runner.SetPrivileged(true)

	cfg := baseConfig(domain.MethodNPM)
	cfg.AppVersion = "2026.1.24"

	require.NoError(t, appinstall.NewPublishedPackage(domain.MethodNPM, domain.PublishedPackage, runner).Install(context.Background(), cfg))
	assert.Equal(t, []string{"npm install -g clawdbot@2026.1.24"}, runner.Calls())
}

func TestPublishedPackage_FailureIsFatal(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockCommandRunner(false)
	runner.SetMockError("npm install", errors.New("npm ERR! 404 Not Found"))

	err := appinstall.NewPublishedPackage(domain.MethodNPM, domain.PublishedPackage, runner).
		Install(context.Background(), baseConfig(domain.MethodNPM))
	require.Error(t, err)
	assert.Equal(t, domain.KindProvisioning, domain.KindOf(err))
	assert.Contains(t, err.Error(), "npm ERR! 404")
}

func TestSourceBuild_FreshClone(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockCommandRunner(false)

	strategy := appinstall.NewSourceBuild(runner, platform.NewMockFileManager(false))
	require.NoError(t, strategy.Install(context.Background(), baseConfig(domain.MethodGit)))

	assert.Equal(t, []string{
		"git clone https://github.com/clawdbot/clawdbot.git /home/ops/clawdbot",
		"pnpm -C /home/ops/clawdbot install",
		"pnpm -C /home/ops/clawdbot ui:build",
		"pnpm -C /home/ops/clawdbot build",
		"sudo npm install -g /home/ops/clawdbot",
	}, runner.Calls())
}

func TestSourceBuild_ExistingCheckoutIsReset(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockCommandRunner(false)
	runner.SetMockOutput("git -C /home/ops/clawdbot symbolic-ref --short refs/remotes/origin/HEAD", "origin/trunk\n")
	runner.SetCommandMissing("pnpm", true)

	files := platform.NewMockFileManager(false)
	files.SetMockFile("/home/ops/clawdbot/.git", nil)

	strategy := appinstall.NewSourceBuild(runner, files)
	require.NoError(t, strategy.Install(context.Background(), baseConfig(domain.MethodGit)))

	calls := runner.Calls()
	assert.Equal(t, []string{
		"git -C /home/ops/clawdbot fetch origin",
		"git -C /home/ops/clawdbot symbolic-ref --short refs/remotes/origin/HEAD",
		"git -C /home/ops/clawdbot checkout trunk",
		"git -C /home/ops/clawdbot reset --hard origin/trunk",
		"sudo npm install -g pnpm",
	}, calls[:5])

	for _, call := range calls {
		assert.NotContains(t, call, "git clone")
	}
}

func TestSourceBuild_DefaultBranchFallback(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockCommandRunner(false)
	runner.SetMockError("symbolic-ref", errors.New("fatal: ref refs/remotes/origin/HEAD is not a symbolic ref"))

	files := platform.NewMockFileManager(false)
	files.SetMockFile("/home/ops/clawdbot/.git", nil)

	require.NoError(t, appinstall.NewSourceBuild(runner, files).Install(context.Background(), baseConfig(domain.MethodGit)))
	assert.Contains(t, runner.Calls(), "git -C /home/ops/clawdbot reset --hard origin/main")
}

func TestSourceBuild_BuildFailureStops(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockCommandRunner(false)
	runner.SetMockError("ui:build", errors.New("vite: build failed"))

	err := appinstall.NewSourceBuild(runner, platform.NewMockFileManager(false)).
		Install(context.Background(), baseConfig(domain.MethodGit))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pnpm ui:build")

	for _, call := range runner.Calls() {
		assert.NotEqual(t, "pnpm -C /home/ops/clawdbot build", call)
		assert.NotContains(t, call, "npm install -g /home/ops/clawdbot")
	}
}
