// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProvisionError(t *testing.T) {
	t.Parallel()

	err := NewProvisioningError("firewall", ErrCommandFailed)

	assert.Equal(t, "firewall: command failed", err.Error())
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Equal(t, "command failed", (&ProvisionError{Err: ErrCommandFailed}).Error())
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"precondition", NewPreconditionError("detect", ErrUnsupportedOS), KindPrecondition},
		{"provisioning", NewProvisioningError("install application", ErrCommandFailed), KindProvisioning},
		{"best effort", NewBestEffortError("verify", errors.New("timeout")), KindBestEffort},
		{"wrapped", fmt.Errorf("run: %w", NewPreconditionError("configuration", ErrMissingDomain)), KindPrecondition},
		{"foreign", errors.New("boom"), KindProvisioning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "precondition", KindPrecondition.String())
	assert.Equal(t, "provisioning", KindProvisioning.String())
	assert.Equal(t, "best-effort", KindBestEffort.String())
	assert.Equal(t, "unknown", ErrorKind(42).String())
}

func TestHint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"sudo", errors.New("sudo: a password is required"), HintPermission},
		{"dns", errors.New("dial tcp: lookup nodejs.org: no such host"), "check outbound network access and DNS"},
		{"apt", errors.New("E: Unable to locate package nodejs"), "refresh the package index or enable the distribution's extra repositories"},
		{"dpkg lock", errors.New("E: Could not get lock /var/lib/dpkg/lock-frontend"), "another package manager is running; wait for it and re-run"},
		{"nginx", errors.New("nginx: [emerg] unknown directive"), "inspect the generated proxy configuration and run `nginx -t`"},
		{"no match", errors.New("exit status 1"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, Hint(tt.err))
		})
	}
}
