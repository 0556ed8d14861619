// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package proxy

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/janderssonse/clawdhost/internal/domain"
	log "github.com/sirupsen/logrus"
)

// Upstream Caddy apt repository.
const (
	caddyAptKeyURL   = "https://dl.cloudsmith.io/public/caddy/stable/gpg.key"
	caddyAptListURL  = "https://dl.cloudsmith.io/public/caddy/stable/debian.deb.txt"
	caddyAptKeyring  = "/usr/share/keyrings/caddy-stable-archive-keyring.gpg"
	caddyAptList     = "/etc/apt/sources.list.d/caddy-stable.list"
	caddyCopr        = "@caddy/caddy"
	caddyLinuxConfig = "/etc/caddy/Caddyfile"
)

// Caddy is the automatic-TLS proxy backend.
type Caddy struct {
	deps     Deps
	services services
}

// NewCaddy creates the Caddy backend.
func NewCaddy(deps Deps) *Caddy {
	return &Caddy{deps: deps, services: services{profile: deps.Profile, runner: deps.Runner}}
}

// Kind returns the proxy kind.
func (c *Caddy) Kind() domain.ProxyKind {
	return domain.ProxyCaddy
}

// Configure installs Caddy, writes the site block and (re)starts the service.
func (c *Caddy) Configure(ctx context.Context, cfg domain.RunConfiguration) (*domain.ProxyResult, error) {
	if err := c.ensureInstalled(ctx); err != nil {
		return nil, domain.NewProvisioningError("install caddy", err)
	}

	path, err := c.configPath(ctx)
	if err != nil {
		return nil, domain.NewProvisioningError("caddy", err)
	}

	content, err := render(caddyTemplate, cfg.Domain)
	if err != nil {
		return nil, domain.NewProvisioningError("caddy", err)
	}

	artifact := domain.ProxyConfigArtifact{Path: path, Content: content}

	written, err := c.writeConfig(ctx, path, content, cfg.Domain)
	if err != nil {
		return nil, domain.NewProvisioningError("write "+path, err)
	}

	artifact.Written = written

	if written {
		err = c.services.Restart(ctx, "caddy")
	} else {
		err = c.services.Start(ctx, "caddy")
	}

	if err != nil {
		return nil, domain.NewProvisioningError("caddy service", err)
	}

	return &domain.ProxyResult{Artifact: artifact}, nil
}

func (c *Caddy) configPath(ctx context.Context) (string, error) {
	if !c.deps.Profile.IsDarwin() {
		return caddyLinuxConfig, nil
	}

	prefix, err := brewPrefix(ctx, c.deps)
	if err != nil {
		return "", err
	}

	return filepath.Join(prefix, "etc", "Caddyfile"), nil
}

// writeConfig leaves a Caddyfile that already serves the domain alone.
// Any other Caddyfile is kept once as Caddyfile.orig and replaced.
func (c *Caddy) writeConfig(ctx context.Context, path, content, domainName string) (bool, error) {
	files := c.deps.Files

	if files.FileExists(path) {
		existing, err := files.ReadFile(path)
		if err != nil {
			return false, fmt.Errorf("failed to read %s: %w", path, err)
		}

		if HasSiteBlock(string(existing), domainName) {
			log.WithFields(log.Fields{"path": path, "domain": domainName}).Info("caddyfile already serves domain, leaving it untouched")

			return false, nil
		}

		backup := path + ".orig"
		if !files.FileExists(backup) {
			if err := files.CopyFile(ctx, path, backup); err != nil {
				return false, fmt.Errorf("failed to back up %s: %w", path, err)
			}
		}
	}

	if err := files.WriteFile(ctx, path, []byte(content)); err != nil {
		return false, err
	}

	return true, nil
}

func (c *Caddy) ensureInstalled(ctx context.Context) error {
	if c.deps.Runner.CommandExists("caddy") {
		return nil
	}

	switch c.deps.Profile.PackageManager.Family() {
	case domain.ManagerFamilyAPTLike:
		if err := c.addAptRepository(ctx); err != nil {
			return err
		}
	case domain.ManagerFamilyDNFYum:
		if err := c.enableCopr(ctx); err != nil {
			return err
		}
	case domain.ManagerFamilyPacman, domain.ManagerFamilyZypper, domain.ManagerFamilyHomebrew:
	}

	return c.deps.Packages.EnsurePackages(ctx, "caddy")
}

func (c *Caddy) addAptRepository(ctx context.Context) error {
	runner := c.deps.Runner

	if err := c.deps.Packages.EnsurePackages(ctx, "debian-keyring", "debian-archive-keyring", "apt-transport-https", "gnupg"); err != nil {
		return err
	}

	steps := [][]string{
		{"sh", "-c", fmt.Sprintf("curl -1sLf '%s' | gpg --dearmor --yes -o %s", caddyAptKeyURL, caddyAptKeyring)},
		{"sh", "-c", fmt.Sprintf("curl -1sLf '%s' > %s", caddyAptListURL, caddyAptList)},
		{"chmod", "o+r", caddyAptKeyring, caddyAptList},
	}

	for _, step := range steps {
		if err := runner.RunPrivileged(ctx, true, step[0], step[1:]...); err != nil {
			return fmt.Errorf("failed to add caddy apt repository: %w", err)
		}
	}

	return c.deps.Packages.RefreshIndex(ctx)
}

func (c *Caddy) enableCopr(ctx context.Context) error {
	manager := string(c.deps.Profile.PackageManager)

	plugin := "dnf-plugins-core"
	if c.deps.Profile.PackageManager == domain.ManagerYum {
		plugin = "yum-plugin-copr"
	}

	if err := c.deps.Packages.EnsurePackages(ctx, plugin); err != nil {
		return err
	}

	if err := c.deps.Runner.RunPrivileged(ctx, false, manager, "copr", "enable", "-y", caddyCopr); err != nil {
		return fmt.Errorf("failed to enable %s copr: %w", caddyCopr, err)
	}

	return nil
}

// HasSiteBlock reports whether a Caddyfile opens a site block addressed to domainName.
func HasSiteBlock(content, domainName string) bool {
	want := strings.ToLower(domainName)

	for line := range strings.SplitSeq(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || !strings.HasSuffix(line, "{") {
			continue
		}

		addresses := strings.FieldsFunc(strings.TrimSuffix(line, "{"), func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})

		for _, address := range addresses {
			if siteHost(address) == want {
				return true
			}
		}
	}

	return false
}

// siteHost strips scheme and port from a Caddy site address.
func siteHost(address string) string {
	address = strings.ToLower(address)
	if _, rest, ok := strings.Cut(address, "://"); ok {
		address = rest
	}

	if host, _, ok := strings.Cut(address, ":"); ok {
		address = host
	}

	return strings.TrimSuffix(address, "/")
}
