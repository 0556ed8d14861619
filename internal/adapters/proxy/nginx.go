// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package proxy

import (
	"context"
	"path/filepath"

	"github.com/janderssonse/clawdhost/internal/domain"
	log "github.com/sirupsen/logrus"
)

const nginxSiteName = "clawdbot"

// nginxLayout is where a platform keeps its server blocks.
type nginxLayout struct {
	path string
	// link is set when the platform enables sites through a symlink.
	link string
	// overwrite rewrites the file on every run instead of creating it once.
	overwrite bool
}

// Nginx is the reverse proxy backend with certificates from certbot.
type Nginx struct {
	deps     Deps
	services services
}

// NewNginx creates the nginx backend.
func NewNginx(deps Deps) *Nginx {
	return &Nginx{deps: deps, services: services{profile: deps.Profile, runner: deps.Runner}}
}

// Kind returns the proxy kind.
func (n *Nginx) Kind() domain.ProxyKind {
	return domain.ProxyNginx
}

// Configure installs nginx and certbot, writes the server block, validates
// and reloads nginx, then requests a certificate. Certificate failures are
// returned as warnings.
func (n *Nginx) Configure(ctx context.Context, cfg domain.RunConfiguration) (*domain.ProxyResult, error) {
	if err := n.deps.Packages.EnsurePackages(ctx, n.packages()...); err != nil {
		return nil, domain.NewProvisioningError("install nginx", err)
	}

	layout, err := n.layout(ctx)
	if err != nil {
		return nil, domain.NewProvisioningError("nginx", err)
	}

	content, err := render(nginxTemplate, cfg.Domain)
	if err != nil {
		return nil, domain.NewProvisioningError("nginx", err)
	}

	artifact := domain.ProxyConfigArtifact{Path: layout.path, Content: content}

	if layout.overwrite || !n.deps.Files.FileExists(layout.path) {
		if err := n.deps.Files.WriteFile(ctx, layout.path, []byte(content)); err != nil {
			return nil, domain.NewProvisioningError("write "+layout.path, err)
		}

		artifact.Written = true
	} else {
		log.WithField("path", layout.path).Info("nginx server block exists, leaving it untouched")
	}

	if layout.link != "" {
		if err := n.deps.Files.Symlink(ctx, layout.path, layout.link); err != nil {
			return nil, domain.NewProvisioningError("enable site", err)
		}
	}

	if err := n.validate(ctx); err != nil {
		return nil, domain.NewProvisioningError("nginx -t", err)
	}

	if err := n.services.Reload(ctx, "nginx"); err != nil {
		return nil, domain.NewProvisioningError("nginx service", err)
	}

	result := &domain.ProxyResult{Artifact: artifact}

	if err := n.runCertbot(ctx, cfg); err != nil {
		warning := domain.NewBestEffortError("certbot", err)
		log.WithError(err).Warn("certificate issuance failed")
		result.Warnings = append(result.Warnings, warning.Error())
	}

	return result, nil
}

func (n *Nginx) packages() []string {
	switch n.deps.Profile.PackageManager.Family() {
	case domain.ManagerFamilyPacman:
		return []string{"nginx", "certbot", "certbot-nginx"}
	case domain.ManagerFamilyHomebrew:
		return []string{"nginx", "certbot"}
	case domain.ManagerFamilyAPTLike, domain.ManagerFamilyDNFYum, domain.ManagerFamilyZypper:
		return []string{"nginx", "certbot", "python3-certbot-nginx"}
	default:
		return []string{"nginx", "certbot"}
	}
}

func (n *Nginx) layout(ctx context.Context) (nginxLayout, error) {
	profile := n.deps.Profile

	switch {
	case profile.IsDarwin():
		prefix, err := brewPrefix(ctx, n.deps)
		if err != nil {
			return nginxLayout{}, err
		}

		return nginxLayout{path: filepath.Join(prefix, "etc", "nginx", "servers", nginxSiteName+".conf")}, nil
	case profile.IsDebianBased(), profile.IsSUSE():
		return nginxLayout{
			path: filepath.Join("/etc/nginx/sites-available", nginxSiteName),
			link: filepath.Join("/etc/nginx/sites-enabled", nginxSiteName),
		}, nil
	default:
		return nginxLayout{
			path:      filepath.Join("/etc/nginx/conf.d", nginxSiteName+".conf"),
			overwrite: true,
		}, nil
	}
}

func (n *Nginx) validate(ctx context.Context) error {
	if n.deps.Profile.IsDarwin() {
		return n.deps.Runner.Execute(ctx, "nginx", "-t")
	}

	return n.deps.Runner.RunPrivileged(ctx, false, "nginx", "-t")
}

func (n *Nginx) runCertbot(ctx context.Context, cfg domain.RunConfiguration) error {
	args := CertbotArgs(cfg)

	if n.deps.Profile.IsDarwin() {
		return n.deps.Runner.Execute(ctx, "certbot", args...)
	}

	return n.deps.Runner.RunPrivileged(ctx, false, "certbot", args...)
}

// CertbotArgs builds the certbot invocation for the configured domain.
func CertbotArgs(cfg domain.RunConfiguration) []string {
	args := []string{"--nginx", "-d", cfg.Domain, "--non-interactive", "--agree-tos", "--redirect"}

	if cfg.CertbotEmail == "" {
		return append(args, "--register-unsafely-without-email")
	}

	return append(args, "-m", cfg.CertbotEmail)
}
