// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/janderssonse/clawdhost/internal/domain"
)

const osReleasePath = "/etc/os-release"

// distributionTable maps os-release IDs onto their family and manager.
// The rhel family resolves to yum at detection time when dnf is absent.
var distributionTable = map[string]struct {
	family  string
	manager domain.PackageManager
}{
	"ubuntu":              {domain.FamilyDebian, domain.ManagerAPT},
	"debian":              {domain.FamilyDebian, domain.ManagerAPT},
	"linuxmint":           {domain.FamilyDebian, domain.ManagerAPT},
	"pop":                 {domain.FamilyDebian, domain.ManagerAPT},
	"raspbian":            {domain.FamilyDebian, domain.ManagerAPT},
	"elementary":          {domain.FamilyDebian, domain.ManagerAPT},
	"kali":                {domain.FamilyDebian, domain.ManagerAPT},
	"fedora":              {domain.FamilyRHEL, domain.ManagerDNF},
	"rhel":                {domain.FamilyRHEL, domain.ManagerDNF},
	"centos":              {domain.FamilyRHEL, domain.ManagerDNF},
	"rocky":               {domain.FamilyRHEL, domain.ManagerDNF},
	"almalinux":           {domain.FamilyRHEL, domain.ManagerDNF},
	"ol":                  {domain.FamilyRHEL, domain.ManagerDNF},
	"amzn":                {domain.FamilyRHEL, domain.ManagerDNF},
	"arch":                {domain.FamilyArch, domain.ManagerPacman},
	"manjaro":             {domain.FamilyArch, domain.ManagerPacman},
	"endeavouros":         {domain.FamilyArch, domain.ManagerPacman},
	"opensuse-leap":       {domain.FamilySUSE, domain.ManagerZypper},
	"opensuse-tumbleweed": {domain.FamilySUSE, domain.ManagerZypper},
	"opensuse":            {domain.FamilySUSE, domain.ManagerZypper},
	"sles":                {domain.FamilySUSE, domain.ManagerZypper},
	"suse":                {domain.FamilySUSE, domain.ManagerZypper},
}

// managerCommands holds the update and install command line of each manager.
var managerCommands = map[domain.PackageManager][2]string{
	domain.ManagerAPT:      {"apt-get update", "apt-get install -y"},
	domain.ManagerDNF:      {"dnf makecache", "dnf install -y"},
	domain.ManagerYum:      {"yum makecache", "yum install -y"},
	domain.ManagerPacman:   {"pacman -Sy --noconfirm", "pacman -S --noconfirm --needed"},
	domain.ManagerZypper:   {"zypper --non-interactive refresh", "zypper --non-interactive install"},
	domain.ManagerHomebrew: {"brew update", "brew install"},
}

// SystemDetector implements the SystemDetector port.
type SystemDetector struct {
	commandRunner domain.CommandRunner
	fileManager   domain.FileManager
	goos          string
	uname         func() (machine, release string)
}

// NewSystemDetector creates a new system detector.
func NewSystemDetector(commandRunner domain.CommandRunner, fileManager domain.FileManager) *SystemDetector {
	return &SystemDetector{
		commandRunner: commandRunner,
		fileManager:   fileManager,
		goos:          runtime.GOOS,
		uname:         hostUname,
	}
}

// NewSystemDetectorFor creates a detector for a given GOOS and uname source.
func NewSystemDetectorFor(commandRunner domain.CommandRunner, fileManager domain.FileManager,
	goos string, uname func() (string, string),
) *SystemDetector {
	return &SystemDetector{
		commandRunner: commandRunner,
		fileManager:   fileManager,
		goos:          goos,
		uname:         uname,
	}
}

// Detect resolves the platform profile of this host.
func (d *SystemDetector) Detect(ctx context.Context) (*domain.PlatformProfile, error) {
	var (
		profile *domain.PlatformProfile
		err     error
	)

	switch d.goos {
	case "darwin":
		profile = d.darwinProfile()
	case "linux", "freebsd", "netbsd", "openbsd", "dragonfly", "solaris", "illumos":
		profile, err = d.unixProfile(ctx)
	default:
		return nil, domain.NewPreconditionError("detect", fmt.Errorf("%w: %s", domain.ErrUnsupportedOS, d.goos))
	}

	if err != nil {
		return nil, domain.NewPreconditionError("detect", err)
	}

	commands := managerCommands[profile.PackageManager]
	profile.UpdateCommand = commands[0]
	profile.InstallCommand = commands[1]
	profile.Architecture, profile.Kernel = d.uname()

	return profile, nil
}

func (d *SystemDetector) darwinProfile() *domain.PlatformProfile {
	return &domain.PlatformProfile{
		OSFamily:         domain.OSAppleDesktop,
		DistributionID:   "macos",
		DistributionName: "macOS",
		Family:           domain.FamilyDarwin,
		PackageManager:   domain.ManagerHomebrew,
	}
}

func (d *SystemDetector) unixProfile(_ context.Context) (*domain.PlatformProfile, error) {
	if !d.fileManager.FileExists(osReleasePath) {
		return nil, domain.ErrMissingOSRelease
	}

	data, err := d.fileManager.ReadFile(osReleasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", osReleasePath, err)
	}

	fields := parseOSRelease(string(data))

	id := strings.ToLower(fields["ID"])
	candidates := append([]string{id}, strings.Fields(strings.ToLower(fields["ID_LIKE"]))...)

	for _, candidate := range candidates {
		entry, ok := distributionTable[candidate]
		if !ok {
			continue
		}

		manager := entry.manager
		if manager == domain.ManagerDNF && !d.commandRunner.CommandExists("dnf") {
			manager = domain.ManagerYum
		}

		return &domain.PlatformProfile{
			OSFamily:         domain.OSUnixLike,
			DistributionID:   id,
			DistributionName: fields["NAME"],
			Version:          fields["VERSION_ID"],
			Family:           entry.family,
			PackageManager:   manager,
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedDistribution, id)
}

func parseOSRelease(content string) map[string]string {
	fields := make(map[string]string)

	for line := range strings.SplitSeq(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		fields[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"'`)
	}

	return fields
}
