// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package proxy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/janderssonse/clawdhost/internal/adapters/proxy"
	"github.com/janderssonse/clawdhost/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNginx_Layouts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		profile   *domain.PlatformProfile
		wantPath  string
		wantLink  string
		overwrite bool
	}{
		{
			name:     "debian uses sites-available",
			profile:  ubuntu(),
			wantPath: "/etc/nginx/sites-available/clawdbot",
			wantLink: "/etc/nginx/sites-enabled/clawdbot",
		},
		{
			name:     "suse uses sites-available",
			profile:  &domain.PlatformProfile{OSFamily: domain.OSUnixLike, Family: domain.FamilySUSE, PackageManager: domain.ManagerZypper},
			wantPath: "/etc/nginx/sites-available/clawdbot",
			wantLink: "/etc/nginx/sites-enabled/clawdbot",
		},
		{
			name:      "rhel uses conf.d",
			profile:   &domain.PlatformProfile{OSFamily: domain.OSUnixLike, Family: domain.FamilyRHEL, PackageManager: domain.ManagerDNF},
			wantPath:  "/etc/nginx/conf.d/clawdbot.conf",
			overwrite: true,
		},
		{
			name:      "arch uses conf.d",
			profile:   &domain.PlatformProfile{OSFamily: domain.OSUnixLike, Family: domain.FamilyArch, PackageManager: domain.ManagerPacman},
			wantPath:  "/etc/nginx/conf.d/clawdbot.conf",
			overwrite: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fx := newFixture(t, tt.profile)
			nginx := proxy.NewNginx(fx.deps)
			ctx := context.Background()

			first, err := nginx.Configure(ctx, exampleConfig(domain.ProxyNginx))
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, first.Artifact.Path)
			assert.Contains(t, first.Artifact.Content, "server_name example.com;")
			assert.Contains(t, first.Artifact.Content, "proxy_pass http://127.0.0.1:18789;")
			assert.Contains(t, first.Artifact.Content, "proxy_set_header Upgrade $http_upgrade;")

			second, err := nginx.Configure(ctx, exampleConfig(domain.ProxyNginx))
			require.NoError(t, err)
			assert.Equal(t, tt.overwrite, second.Artifact.Written)

			if tt.wantLink != "" {
				target, ok := fx.files.LinkTarget(tt.wantLink)
				require.True(t, ok)
				assert.Equal(t, tt.wantPath, target)
			}

			calls := fx.runner.Calls()
			assert.Contains(t, calls, "sudo nginx -t")
			assert.Contains(t, calls, "sudo systemctl reload nginx")
		})
	}
}

func TestNginx_CertbotFailureIsWarning(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, ubuntu())
	fx.runner.SetMockError("certbot --nginx", errors.New("Challenge failed for domain example.com"))

	result, err := proxy.NewNginx(fx.deps).Configure(context.Background(), exampleConfig(domain.ProxyNginx))
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Challenge failed")
}

func TestNginx_ConfigTestFailureIsFatal(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, ubuntu())
	fx.runner.SetMockError("nginx -t", errors.New("nginx: [emerg] unknown directive"))

	_, err := proxy.NewNginx(fx.deps).Configure(context.Background(), exampleConfig(domain.ProxyNginx))
	require.Error(t, err)
	assert.Equal(t, domain.KindProvisioning, domain.KindOf(err))
	assert.NotContains(t, fx.runner.Calls(), "sudo systemctl reload nginx")
}

func TestCertbotArgs(t *testing.T) {
	t.Parallel()

	cfg := exampleConfig(domain.ProxyNginx)
	assert.Equal(t, []string{
		"--nginx", "-d", "example.com", "--non-interactive", "--agree-tos", "--redirect",
		"--register-unsafely-without-email",
	}, proxy.CertbotArgs(cfg))

	cfg.CertbotEmail = "ops@example.com"
	assert.Equal(t, []string{
		"--nginx", "-d", "example.com", "--non-interactive", "--agree-tos", "--redirect",
		"-m", "ops@example.com",
	}, proxy.CertbotArgs(cfg))
}
