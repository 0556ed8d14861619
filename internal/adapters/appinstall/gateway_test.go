// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package appinstall_test

import (
	"context"
	"errors"
	"testing"

	"github.com/janderssonse/clawdhost/internal/adapters/appinstall"
	"github.com/janderssonse/clawdhost/internal/adapters/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateway_TrustLocalProxy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		current     string
		wantChanged bool
		wantSet     bool
	}{
		{name: "unset", current: "", wantChanged: true, wantSet: true},
		{name: "foreign value", current: "10.0.0.1", wantChanged: true, wantSet: true},
		{name: "already trusted", current: "127.0.0.1\n", wantChanged: false, wantSet: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := platform.NewMockCommandRunner(false)
			runner.SetMockOutput("clawdbot config get gateway.trustedProxies.0", tt.current)

			changed, err := appinstall.NewGateway(runner).TrustLocalProxy(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, changed)

			const set = "clawdbot config set gateway.trustedProxies.0 127.0.0.1"
			if tt.wantSet {
				assert.Contains(t, runner.Calls(), set)
			} else {
				assert.NotContains(t, runner.Calls(), set)
			}
		})
	}
}

func TestGateway_OnboardVersionStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	runner := platform.NewMockCommandRunner(false)
	runner.SetMockOutput("clawdbot --version", "2026.1.24\n")
	runner.SetMockError("gateway status", errors.New("daemon not running"))

	gateway := appinstall.NewGateway(runner)

	require.NoError(t, gateway.Onboard(ctx))
	assert.Equal(t, "2026.1.24", gateway.Version(ctx))
	assert.Contains(t, gateway.Status(ctx), "daemon not running")
	assert.Equal(t, "clawdbot onboard --install-daemon", runner.Calls()[0])
	assert.Equal(t, []string{"clawdbot onboard --install-daemon"}, runner.InteractiveCalls(),
		"onboarding prompts must reach the terminal")
}
