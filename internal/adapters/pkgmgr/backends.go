// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package pkgmgr

import (
	"context"
	"strings"

	"github.com/janderssonse/clawdhost/internal/domain"
	hostplatform "github.com/janderssonse/clawdhost/internal/platform"
)

type aptDriver struct {
	runner domain.CommandRunner
}

func (d *aptDriver) manager() domain.PackageManager { return domain.ManagerAPT }

func (d *aptDriver) refresh(ctx context.Context) error {
	args := append(hostplatform.ConfigureAPTProxy(), "update")

	return d.runner.RunPrivileged(ctx, false, "apt-get", args...)
}

func (d *aptDriver) install(ctx context.Context, names []string) error {
	args := []string{"DEBIAN_FRONTEND=noninteractive", "apt-get"}
	args = append(args, hostplatform.ConfigureAPTProxy()...)
	args = append(args, "install", "-y")
	args = append(args, names...)

	return d.runner.RunPrivileged(ctx, true, "env", args...)
}

func (d *aptDriver) isInstalled(ctx context.Context, name string) bool {
	// dpkg-query exits 1 for unknown packages, which is not an error here.
	output, err := d.runner.ExecuteWithOutput(ctx, "dpkg-query", "-W", "-f=${Status}", name)

	return err == nil && strings.Contains(output, "install ok installed")
}

// rpmDriver serves both dnf and yum; command is the spelling found at detection.
type rpmDriver struct {
	runner  domain.CommandRunner
	command string
}

func (d *rpmDriver) manager() domain.PackageManager { return domain.PackageManager(d.command) }

func (d *rpmDriver) refresh(ctx context.Context) error {
	return d.runner.RunPrivileged(ctx, false, d.command, "makecache")
}

func (d *rpmDriver) install(ctx context.Context, names []string) error {
	return d.runner.RunPrivileged(ctx, false, d.command, append([]string{"install", "-y"}, names...)...)
}

func (d *rpmDriver) isInstalled(ctx context.Context, name string) bool {
	return queryInstalled(ctx, d.runner, "rpm", "-q", "--qf", "%{NAME}\n", name)
}

type pacmanDriver struct {
	runner domain.CommandRunner
}

func (d *pacmanDriver) manager() domain.PackageManager { return domain.ManagerPacman }

func (d *pacmanDriver) refresh(ctx context.Context) error {
	return d.runner.RunPrivileged(ctx, false, "pacman", "-Sy", "--noconfirm")
}

func (d *pacmanDriver) install(ctx context.Context, names []string) error {
	return d.runner.RunPrivileged(ctx, false, "pacman", append([]string{"-S", "--noconfirm", "--needed"}, names...)...)
}

func (d *pacmanDriver) isInstalled(ctx context.Context, name string) bool {
	return queryInstalled(ctx, d.runner, "pacman", "-Q", name)
}

type zypperDriver struct {
	runner domain.CommandRunner
}

func (d *zypperDriver) manager() domain.PackageManager { return domain.ManagerZypper }

func (d *zypperDriver) refresh(ctx context.Context) error {
	return d.runner.RunPrivileged(ctx, false, "zypper", "--non-interactive", "refresh")
}

func (d *zypperDriver) install(ctx context.Context, names []string) error {
	return d.runner.RunPrivileged(ctx, false, "zypper", append([]string{"--non-interactive", "install"}, names...)...)
}

func (d *zypperDriver) isInstalled(ctx context.Context, name string) bool {
	return queryInstalled(ctx, d.runner, "rpm", "-q", "--qf", "%{NAME}\n", name)
}

// brewDriver never escalates; Homebrew refuses to run as root.
type brewDriver struct {
	runner domain.CommandRunner
}

func (d *brewDriver) manager() domain.PackageManager { return domain.ManagerHomebrew }

func (d *brewDriver) refresh(ctx context.Context) error {
	return d.runner.Execute(ctx, "brew", "update")
}

func (d *brewDriver) install(ctx context.Context, names []string) error {
	return d.runner.Execute(ctx, "brew", append([]string{"install"}, names...)...)
}

func (d *brewDriver) isInstalled(ctx context.Context, name string) bool {
	return queryInstalled(ctx, d.runner, "brew", "list", "--versions", name)
}
