// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

// Package config loads the optional configuration file and builds the run
// configuration. Precedence is flag/environment over file over defaults.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/janderssonse/clawdhost/internal/domain"
	"github.com/janderssonse/clawdhost/internal/platform"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// File is the optional configuration file. Empty values keep the defaults.
type File struct {
	Domain        string `toml:"domain"         yaml:"domain"`
	Proxy         string `toml:"proxy"          yaml:"proxy"`
	InstallMethod string `toml:"install_method" yaml:"install_method"`
	AppVersion    string `toml:"app_version"    yaml:"app_version"`
	CertbotEmail  string `toml:"certbot_email"  yaml:"certbot_email"`
	SourceRepo    string `toml:"source_repo"    yaml:"source_repo"`
	SourceDir     string `toml:"source_dir"     yaml:"source_dir"`
	LogLevel      string `toml:"log_level"      yaml:"log_level"`
	LogFile       string `toml:"log_file"       yaml:"log_file"`
}

// Defaults returns the run configuration used when nothing is given.
func Defaults() domain.RunConfiguration {
	return domain.RunConfiguration{
		Proxy:         domain.ProxyCaddy,
		InstallMethod: domain.MethodNPM,
		AppVersion:    domain.DefaultAppVersion,
		SourceRepo:    domain.DefaultSourceRepo,
		SourceDir:     platform.DefaultSourceDir(domain.DefaultSourceDir),
	}
}

// Load reads a TOML file, or YAML for .yaml/.yml paths. Unknown keys are
// rejected.
func Load(path string) (*File, error) {
	// #nosec G304 - Path is given by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var file File

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)

		// An empty document decodes to io.EOF.
		if err := decoder.Decode(&file); err != nil && len(bytes.TrimSpace(data)) > 0 {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, path, err)
		}
	default:
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()

		if err := decoder.Decode(&file); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, path, err)
		}
	}

	return &file, nil
}

// LoadOptional is Load, except that a missing file yields an empty File.
func LoadOptional(path string) (*File, error) {
	file, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &File{}, nil
	}

	return file, err
}

// Merge overlays the non-empty file values on base.
func (f *File) Merge(base domain.RunConfiguration) domain.RunConfiguration {
	merged := base

	set := func(dst *string, value string) {
		if value = strings.TrimSpace(value); value != "" {
			*dst = value
		}
	}

	set(&merged.Domain, f.Domain)
	set(&merged.AppVersion, f.AppVersion)
	set(&merged.CertbotEmail, f.CertbotEmail)
	set(&merged.SourceRepo, f.SourceRepo)

	if dir := strings.TrimSpace(f.SourceDir); dir != "" {
		merged.SourceDir = platform.ExpandPath(dir)
	}

	if proxy := strings.TrimSpace(f.Proxy); proxy != "" {
		merged.Proxy = domain.ProxyKind(strings.ToLower(proxy))
	}

	if method := strings.TrimSpace(f.InstallMethod); method != "" {
		merged.InstallMethod = domain.InstallMethod(strings.ToLower(method))
	}

	return merged
}

// Resolver is the part of net.Resolver used to qualify the hostname.
type Resolver interface {
	LookupCNAME(ctx context.Context, host string) (string, error)
}

// HostDomain returns the fully qualified name of this host, used when no
// domain is given. A hostname that does not resolve is an error.
func HostDomain(ctx context.Context, hostname func() (string, error), resolver Resolver) (string, error) {
	name, err := hostname()
	if err != nil || strings.TrimSpace(name) == "" {
		return "", domain.ErrMissingDomain
	}

	canonical, err := resolver.LookupCNAME(ctx, name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrMissingDomain, name, err)
	}

	fqdn := strings.TrimSuffix(canonical, ".")
	if fqdn == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrMissingDomain, name)
	}

	return strings.ToLower(fqdn), nil
}

// SystemHostDomain is HostDomain with the host's own name and resolver.
func SystemHostDomain(ctx context.Context) (string, error) {
	return HostDomain(ctx, os.Hostname, net.DefaultResolver)
}
