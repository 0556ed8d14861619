// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

// Package runtime ensures the Node.js runtime the gateway needs.
package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/janderssonse/clawdhost/internal/domain"
	log "github.com/sirupsen/logrus"
)

// Upstream locations. Overridable in tests.
const (
	DefaultNodeSourceDeb = "https://deb.nodesource.com"
	DefaultNodeSourceRPM = "https://rpm.nodesource.com"
	DefaultNodeDist      = "https://nodejs.org/dist"
	darwinInstallPrefix  = "/usr/local"
)

// NodeInstaller implements the RuntimeInstaller port for Node.js.
type NodeInstaller struct {
	profile *domain.PlatformProfile
	runner  domain.CommandRunner
	network domain.NetworkClient

	NodeSourceDeb string
	NodeSourceRPM string
	DistBase      string

	// DryRun skips the post-install version check, which cannot pass when
	// no command actually ran.
	DryRun bool
}

var _ domain.RuntimeInstaller = (*NodeInstaller)(nil)

// NewNodeInstaller creates a Node.js installer for the given platform.
func NewNodeInstaller(profile *domain.PlatformProfile, runner domain.CommandRunner, network domain.NetworkClient) *NodeInstaller {
	return &NodeInstaller{
		profile:       profile,
		runner:        runner,
		network:       network,
		NodeSourceDeb: DefaultNodeSourceDeb,
		NodeSourceRPM: DefaultNodeSourceRPM,
		DistBase:      DefaultNodeDist,
	}
}

// EnsureRuntime installs Node.js when the present version is below minMajor.
func (n *NodeInstaller) EnsureRuntime(ctx context.Context, minMajor int) error {
	current, ok := n.satisfied(ctx, minMajor)
	if ok {
		log.WithField("version", current).Info("node.js already satisfies the minimum version")

		return nil
	}

	log.WithFields(log.Fields{"found": current, "required": minMajor}).Info("installing node.js")

	if err := n.install(ctx, minMajor); err != nil {
		return domain.NewProvisioningError("runtime", err)
	}

	if n.DryRun {
		return nil
	}

	current, ok = n.satisfied(ctx, minMajor)
	if !ok {
		return domain.NewProvisioningError("runtime",
			fmt.Errorf("%w: node %s after install, need >= %d", domain.ErrRuntimeTooOld, displayVersion(current), minMajor))
	}

	return nil
}

// Version returns the installed Node.js version, or "" when absent.
func (n *NodeInstaller) Version(ctx context.Context) string {
	if !n.runner.CommandExists("node") {
		return ""
	}

	output, err := n.runner.ExecuteWithOutput(ctx, "node", "--version")
	if err != nil {
		return ""
	}

	return strings.TrimSpace(output)
}

func (n *NodeInstaller) satisfied(ctx context.Context, minMajor int) (string, bool) {
	current := n.Version(ctx)
	if current == "" {
		return "", false
	}

	ok, err := MeetsMinimum(current, minMajor)
	if err != nil {
		log.WithError(err).WithField("version", current).Warn("unparsable node.js version")

		return current, false
	}

	return current, ok
}

// MeetsMinimum reports whether a `node --version` string is at least minMajor.
func MeetsMinimum(raw string, minMajor int) (bool, error) {
	v, err := version.NewVersion(strings.TrimPrefix(strings.TrimSpace(raw), "v"))
	if err != nil {
		return false, fmt.Errorf("failed to parse version %q: %w", raw, err)
	}

	constraint, err := version.NewConstraint(">= " + strconv.Itoa(minMajor))
	if err != nil {
		return false, fmt.Errorf("invalid minimum version %d: %w", minMajor, err)
	}

	// Pre-releases never satisfy a plain constraint; compare the core version.
	return constraint.Check(v.Core()), nil
}

func (n *NodeInstaller) install(ctx context.Context, major int) error {
	switch n.profile.PackageManager.Family() {
	case domain.ManagerFamilyAPTLike:
		return n.installNodeSource(ctx, n.NodeSourceDeb, major,
			"env", "DEBIAN_FRONTEND=noninteractive", "apt-get", "install", "-y", "nodejs")
	case domain.ManagerFamilyDNFYum:
		return n.installNodeSource(ctx, n.NodeSourceRPM, major,
			string(n.profile.PackageManager), "install", "-y", "nodejs")
	case domain.ManagerFamilyPacman:
		return n.runner.RunPrivileged(ctx, false, "pacman", "-S", "--noconfirm", "nodejs", "npm")
	case domain.ManagerFamilyZypper:
		suffix := strconv.Itoa(major)

		return n.runner.RunPrivileged(ctx, false, "zypper", "--non-interactive", "install", "nodejs"+suffix, "npm"+suffix)
	case domain.ManagerFamilyHomebrew:
		if n.runner.CommandExists("brew") {
			return n.installBrew(ctx, major)
		}

		return n.installDarwinTarball(ctx, major)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedDistribution, n.profile.PackageManager)
	}
}

// installNodeSource runs the NodeSource setup script, which registers the
// repository for the requested major, then installs the nodejs package.
func (n *NodeInstaller) installNodeSource(ctx context.Context, base string, major int, install ...string) error {
	tmpDir, err := os.MkdirTemp("", "clawdhost-node-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}

	defer func() { _ = os.RemoveAll(tmpDir) }()

	script := filepath.Join(tmpDir, "setup.sh")
	url := fmt.Sprintf("%s/setup_%d.x", base, major)

	if err := n.network.DownloadFile(ctx, url, script); err != nil {
		return fmt.Errorf("failed to download NodeSource setup script: %w", err)
	}

	if err := n.runner.RunPrivileged(ctx, true, "bash", script); err != nil {
		return fmt.Errorf("NodeSource setup failed: %w", err)
	}

	return n.runner.RunPrivileged(ctx, true, install[0], install[1:]...)
}

func (n *NodeInstaller) installBrew(ctx context.Context, major int) error {
	formula := fmt.Sprintf("node@%d", major)

	if err := n.runner.Execute(ctx, "brew", "install", formula); err != nil {
		return err
	}

	return n.runner.Execute(ctx, "brew", "link", "--overwrite", "--force", formula)
}

func (n *NodeInstaller) installDarwinTarball(ctx context.Context, major int) error {
	indexURL := fmt.Sprintf("%s/latest-v%d.x/", n.DistBase, major)

	page, err := n.network.FetchPage(ctx, indexURL)
	if err != nil {
		return fmt.Errorf("failed to fetch Node.js index: %w", err)
	}

	artifact, err := SelectDarwinArtifact(page, major, n.profile.NodeArch())
	if err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "clawdhost-node-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}

	defer func() { _ = os.RemoveAll(tmpDir) }()

	archive := filepath.Join(tmpDir, artifact)
	if err := n.network.DownloadFile(ctx, indexURL+artifact, archive); err != nil {
		return err
	}

	return n.runner.RunPrivileged(ctx, false, "tar", "-xzf", archive, "-C", darwinInstallPrefix, "--strip-components=1")
}

func displayVersion(v string) string {
	if v == "" {
		return "(not installed)"
	}

	return v
}
