// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

// Package testutil holds testify mocks of the domain ports.
package testutil

import (
	"context"

	"github.com/janderssonse/clawdhost/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockHealthChecker mocks the HealthChecker port for testing.
type MockHealthChecker struct {
	mock.Mock
}

var _ domain.HealthChecker = (*MockHealthChecker)(nil)

// CheckReachable mocks an endpoint probe.
func (m *MockHealthChecker) CheckReachable(ctx context.Context, url string) bool {
	args := m.Called(ctx, url)

	return args.Bool(0)
}

// MockSystemDetector mocks the SystemDetector port for testing.
type MockSystemDetector struct {
	mock.Mock
}

var _ domain.SystemDetector = (*MockSystemDetector)(nil)

// Detect mocks platform detection.
func (m *MockSystemDetector) Detect(ctx context.Context) (*domain.PlatformProfile, error) {
	args := m.Called(ctx)
	if result := args.Get(0); result != nil {
		profile, ok := result.(*domain.PlatformProfile)
		if !ok {
			return nil, args.Error(1)
		}

		return profile, args.Error(1)
	}

	return nil, args.Error(1)
}
