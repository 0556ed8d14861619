// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import (
	"fmt"
	"strings"
)

// Gateway network contract.
const (
	GatewayHost     = "127.0.0.1"
	GatewayPort     = 18789
	GatewayUpstream = "127.0.0.1:18789"
	GatewayBinary   = "clawdbot"

	// TrustedProxyKey is the only gateway setting the orchestrator owns.
	TrustedProxyKey = "gateway.trustedProxies.0"
)

// Run defaults.
const (
	DefaultAppVersion   = "latest"
	DefaultSourceRepo   = "https://github.com/clawdbot/clawdbot.git"
	DefaultSourceDir    = "clawdbot"
	MinRuntimeMajor     = 22
	PublishedPackage    = "clawdbot"
	PublishedAltPackage = "moltbot"
)

// FirewallPorts are opened over TCP on every supported platform.
var FirewallPorts = []int{22, 80, 443, GatewayPort} //nolint:gochecknoglobals

// ProxyKind selects the reverse proxy backend.
type ProxyKind string

// Reverse proxy backends.
const (
	ProxyCaddy ProxyKind = "caddy" // automatic TLS
	ProxyNginx ProxyKind = "nginx" // reverse proxy + certbot
)

// InstallMethod selects how the gateway application is obtained.
type InstallMethod string

// Installation strategies. Exactly one runs per invocation.
const (
	MethodNPM    InstallMethod = "npm"
	MethodNPMAlt InstallMethod = "npm-alt"
	MethodGit    InstallMethod = "git"
)

// ParseProxyKind validates a proxy selector.
func ParseProxyKind(value string) (ProxyKind, error) {
	switch kind := ProxyKind(strings.ToLower(strings.TrimSpace(value))); kind {
	case ProxyCaddy, ProxyNginx:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %q (expected caddy or nginx)", ErrUnsupportedProxy, value)
	}
}

// ParseInstallMethod validates an install method selector.
func ParseInstallMethod(value string) (InstallMethod, error) {
	switch method := InstallMethod(strings.ToLower(strings.TrimSpace(value))); method {
	case MethodNPM, MethodNPMAlt, MethodGit:
		return method, nil
	default:
		return "", fmt.Errorf("%w: %q (expected npm, npm-alt or git)", ErrUnsupportedInstallMethod, value)
	}
}

// RunConfiguration is built once at startup and passed by value to every
// component.
type RunConfiguration struct {
	Domain        string        `json:"domain"`
	Proxy         ProxyKind     `json:"proxy"`
	InstallMethod InstallMethod `json:"install_method"`
	AppVersion    string        `json:"app_version"`
	CertbotEmail  string        `json:"certbot_email,omitempty"`
	SourceRepo    string        `json:"source_repo"`
	SourceDir     string        `json:"source_dir"`
	DryRun        bool          `json:"dry_run"`
	Verbose       bool          `json:"verbose"`
}

// Validate checks the configuration before any side-effecting step.
func (c RunConfiguration) Validate() error {
	if strings.TrimSpace(c.Domain) == "" {
		return ErrMissingDomain
	}

	if strings.ContainsAny(c.Domain, " \t/{};") {
		return fmt.Errorf("%w: %q", ErrInvalidDomain, c.Domain)
	}

	if _, err := ParseProxyKind(string(c.Proxy)); err != nil {
		return err
	}

	if _, err := ParseInstallMethod(string(c.InstallMethod)); err != nil {
		return err
	}

	if c.InstallMethod == MethodGit && strings.TrimSpace(c.SourceDir) == "" {
		return fmt.Errorf("%w: source directory is required for git installs", ErrInvalidConfig)
	}

	return nil
}

// PackageSpec returns the npm install argument for the requested version.
func (c RunConfiguration) PackageSpec(name string) string {
	version := c.AppVersion
	if version == "" {
		version = DefaultAppVersion
	}

	return name + "@" + version
}
