// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Precondition errors. All of these are detected before the host is mutated.
var (
	ErrUnsupportedOS            = errors.New("unsupported operating system")
	ErrUnsupportedDistribution  = errors.New("unsupported distribution")
	ErrMissingOSRelease         = errors.New("/etc/os-release not found")
	ErrUnsupportedProxy         = errors.New("unsupported proxy")
	ErrUnsupportedInstallMethod = errors.New("unsupported install method")
	ErrMissingDomain            = errors.New("no domain given and the hostname does not resolve")
	ErrInvalidDomain            = errors.New("invalid domain")
	ErrInvalidConfig            = errors.New("invalid configuration")
	ErrHomebrewMissing          = errors.New("homebrew is not installed")
)

// Provisioning errors.
var (
	ErrNoInstallerForArch = errors.New("no runtime installer published for this architecture")
	ErrRuntimeTooOld      = errors.New("runtime version is below the required minimum")
	ErrCommandFailed      = errors.New("command failed")
	ErrDownloadFailed     = errors.New("download failed")
)

// ErrorKind classifies how a failure affects the run.
type ErrorKind int

const (
	// KindPrecondition aborts before any mutation.
	KindPrecondition ErrorKind = iota
	// KindProvisioning aborts the remaining steps; nothing is rolled back.
	KindProvisioning
	// KindBestEffort is reported as a warning and the run completes.
	KindBestEffort
)

func (k ErrorKind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindProvisioning:
		return "provisioning"
	case KindBestEffort:
		return "best-effort"
	default:
		return "unknown"
	}
}

// ProvisionError ties a failure to the step that produced it.
type ProvisionError struct {
	Kind ErrorKind
	Step string
	Err  error
}

// NewPreconditionError wraps err as a precondition failure of step.
func NewPreconditionError(step string, err error) *ProvisionError {
	return &ProvisionError{Kind: KindPrecondition, Step: step, Err: err}
}

// NewProvisioningError wraps err as a fatal provisioning failure of step.
func NewProvisioningError(step string, err error) *ProvisionError {
	return &ProvisionError{Kind: KindProvisioning, Step: step, Err: err}
}

// NewBestEffortError wraps err as a warning-level failure of step.
func NewBestEffortError(step string, err error) *ProvisionError {
	return &ProvisionError{Kind: KindBestEffort, Step: step, Err: err}
}

func (e *ProvisionError) Error() string {
	if e.Step == "" {
		return e.Err.Error()
	}

	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, defaulting to provisioning for foreign errors.
func KindOf(err error) ErrorKind {
	var perr *ProvisionError
	if errors.As(err, &perr) {
		return perr.Kind
	}

	return KindProvisioning
}

// HintPermission is the hint given when privilege escalation failed.
const HintPermission = "run as root or as a user with sudo rights"

// getHintMatchers returns error patterns and the operator hint for each.
func getHintMatchers() []struct {
	patterns []string
	hint     string
} {
	return []struct {
		patterns []string
		hint     string
	}{
		{
			patterns: []string{"permission denied", "not in the sudoers", "a password is required"},
			hint:     HintPermission,
		},
		{
			patterns: []string{"could not resolve", "no such host", "connection refused", "timeout", "network is unreachable"},
			hint:     "check outbound network access and DNS",
		},
		{
			patterns: []string{"unable to locate package", "no match for argument", "target not found", "not found in package names"},
			hint:     "refresh the package index or enable the distribution's extra repositories",
		},
		{
			patterns: []string{"could not get lock", "unable to lock", "is locked", "another process"},
			hint:     "another package manager is running; wait for it and re-run",
		},
		{
			patterns: []string{"nginx: [emerg]", "configuration file", "test failed"},
			hint:     "inspect the generated proxy configuration and run `nginx -t`",
		},
	}
}

// Hint returns an operator-facing suggestion for err, or "" when none applies.
func Hint(err error) string {
	if err == nil {
		return ""
	}

	errStr := strings.ToLower(err.Error())

	for _, matcher := range getHintMatchers() {
		for _, pattern := range matcher.patterns {
			if strings.Contains(errStr, pattern) {
				return matcher.hint
			}
		}
	}

	return ""
}
