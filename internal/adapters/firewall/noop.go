// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package firewall

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Noop leaves the macOS application firewall alone.
type Noop struct{}

// Name returns the firewall name.
func (Noop) Name() string {
	return "none"
}

// Configure logs that no rules are managed on this platform.
func (Noop) Configure(_ context.Context, ports []int) error {
	log.WithField("ports", ports).Info("firewall is not managed on macOS; allow the ports in System Settings if needed")

	return nil
}
