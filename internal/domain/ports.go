// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import (
	"context"
)

// SystemDetector resolves the platform profile of the host.
type SystemDetector interface {
	// Detect returns the immutable profile for this run.
	Detect(ctx context.Context) (*PlatformProfile, error)
}

// CommandRunner defines the interface for executing system commands.
type CommandRunner interface {
	// Execute runs a command as the invoking user.
	Execute(ctx context.Context, name string, args ...string) error

	// ExecuteInteractive runs a command as the invoking user with its output
	// on the operator's terminal, for tools that prompt.
	ExecuteInteractive(ctx context.Context, name string, args ...string) error

	// ExecuteWithOutput runs a command as the invoking user and returns stdout.
	ExecuteWithOutput(ctx context.Context, name string, args ...string) (string, error)

	// RunPrivileged runs a command with elevated privilege. Escalation is a
	// no-op when already privileged; preserveEnv keeps the caller's environment.
	RunPrivileged(ctx context.Context, preserveEnv bool, name string, args ...string) error

	// RunPrivilegedWithOutput runs a privileged command and returns stdout.
	RunPrivilegedWithOutput(ctx context.Context, name string, args ...string) (string, error)

	// CommandExists checks if a command is available on the system.
	CommandExists(name string) bool

	// IsPrivileged reports whether the process already runs with elevated privilege.
	IsPrivileged() bool
}

// FileManager defines the interface for file operations on system paths.
// Writes escalate through the command runner when the process lacks permission.
type FileManager interface {
	// FileExists checks if a file or symlink exists.
	FileExists(path string) bool

	// ReadFile reads data from a file.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating parent directories.
	WriteFile(ctx context.Context, path string, data []byte) error

	// CopyFile copies a file from source to destination.
	CopyFile(ctx context.Context, src, dest string) error

	// Symlink points link at target, replacing any existing link.
	Symlink(ctx context.Context, target, link string) error

	// EnsureDir creates a directory and all parent directories if they don't exist.
	EnsureDir(ctx context.Context, path string) error
}

// NetworkClient defines the interface for network operations.
type NetworkClient interface {
	// DownloadFile downloads a file from a URL to a destination path.
	DownloadFile(ctx context.Context, url, destPath string) error

	// FetchPage returns the body of a text resource such as an index listing.
	FetchPage(ctx context.Context, url string) (string, error)
}

// PackageInstaller is the uniform package-manager surface.
type PackageInstaller interface {
	// Name returns the backing manager.
	Name() PackageManager

	// RefreshIndex updates the package index.
	RefreshIndex(ctx context.Context) error

	// EnsurePackages installs every missing package; present ones are no-ops.
	EnsurePackages(ctx context.Context, names ...string) error
}

// RuntimeInstaller guarantees a minimum language runtime.
type RuntimeInstaller interface {
	EnsureRuntime(ctx context.Context, minMajor int) error
}

// FirewallConfigurator opens the fixed port set and sets the default policy.
type FirewallConfigurator interface {
	Name() string
	Configure(ctx context.Context, ports []int) error
}

// AppInstaller is one installation strategy for the gateway application.
type AppInstaller interface {
	Method() InstallMethod
	Install(ctx context.Context, cfg RunConfiguration) error
}

// ProxyConfigurator writes the proxy configuration and (re)starts the proxy.
type ProxyConfigurator interface {
	Kind() ProxyKind
	Configure(ctx context.Context, cfg RunConfiguration) (*ProxyResult, error)
}

// ProxyConfigArtifact is the generated configuration file of a proxy backend.
type ProxyConfigArtifact struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Written bool   `json:"written"`
}

// ProxyResult reports what a proxy backend did.
type ProxyResult struct {
	Artifact ProxyConfigArtifact `json:"artifact"`
	// Warnings are best-effort failures such as certificate issuance.
	Warnings []string `json:"warnings,omitempty"`
}

// HealthChecker probes an HTTP endpoint with bounded retries.
type HealthChecker interface {
	CheckReachable(ctx context.Context, url string) bool
}
