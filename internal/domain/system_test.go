// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackageManager_Family(t *testing.T) {
	t.Parallel()

	tests := []struct {
		manager PackageManager
		want    ManagerFamily
	}{
		{ManagerAPT, ManagerFamilyAPTLike},
		{ManagerDNF, ManagerFamilyDNFYum},
		{ManagerYum, ManagerFamilyDNFYum},
		{ManagerPacman, ManagerFamilyPacman},
		{ManagerZypper, ManagerFamilyZypper},
		{ManagerHomebrew, ManagerFamilyHomebrew},
		{"emerge", ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.manager), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.manager.Family())
		})
	}
}

func TestPlatformProfile_FamilyChecks(t *testing.T) {
	t.Parallel()

	debian := &PlatformProfile{OSFamily: OSUnixLike, Family: FamilyDebian}
	assert.True(t, debian.IsDebianBased())
	assert.False(t, debian.IsRHEL())
	assert.False(t, debian.IsDarwin())

	assert.True(t, (&PlatformProfile{Family: FamilyRHEL}).IsRHEL())
	assert.True(t, (&PlatformProfile{Family: FamilyArch}).IsArch())
	assert.True(t, (&PlatformProfile{Family: FamilySUSE}).IsSUSE())
	assert.True(t, (&PlatformProfile{OSFamily: OSAppleDesktop}).IsDarwin())
}

func TestPlatformProfile_NodeArch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		arch string
		want string
	}{
		{"x86_64", "x64"},
		{"amd64", "x64"},
		{"aarch64", "arm64"},
		{"arm64", "arm64"},
		{"armv7l", "armv7l"},
	}

	for _, tt := range tests {
		t.Run(tt.arch, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, (&PlatformProfile{Architecture: tt.arch}).NodeArch())
		})
	}
}

func TestProvisionReport_Healthy(t *testing.T) {
	t.Parallel()

	report := &ProvisionReport{}
	assert.True(t, report.Healthy(), "nothing probed is healthy")

	report.Health = []HealthResult{{URL: "http://127.0.0.1:18789", Reachable: true}}
	assert.True(t, report.Healthy())

	report.Health = append(report.Health, HealthResult{URL: "https://example.com"})
	assert.False(t, report.Healthy())

	report.AddWarning("https://example.com is not reachable")
	assert.Equal(t, []string{"https://example.com is not reachable"}, report.Warnings)
}
