// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

// OSFamily is the coarse operating system family of the target host.
type OSFamily string

// Supported OS families.
const (
	OSUnixLike     OSFamily = "unix-like"
	OSAppleDesktop OSFamily = "apple-desktop"
)

// Distribution families as resolved from /etc/os-release.
const (
	FamilyDebian = "debian"
	FamilyRHEL   = "rhel"
	FamilyArch   = "arch"
	FamilySUSE   = "suse"
	FamilyDarwin = "darwin"
)

// PackageManager identifies the package manager a host is driven with.
// DNF and Yum are the two execution-time spellings of one family.
type PackageManager string

// Package managers, one per supported distribution family.
const (
	ManagerAPT      PackageManager = "apt"
	ManagerDNF      PackageManager = "dnf"
	ManagerYum      PackageManager = "yum"
	ManagerPacman   PackageManager = "pacman"
	ManagerZypper   PackageManager = "zypper"
	ManagerHomebrew PackageManager = "homebrew"
)

// ManagerFamily is the closed set of package-manager families.
type ManagerFamily string

// Package-manager families.
const (
	ManagerFamilyAPTLike  ManagerFamily = "apt-like"
	ManagerFamilyDNFYum   ManagerFamily = "dnf-yum"
	ManagerFamilyPacman   ManagerFamily = "pacman"
	ManagerFamilyZypper   ManagerFamily = "zypper"
	ManagerFamilyHomebrew ManagerFamily = "homebrew"
)

// Family maps a package manager onto its family.
func (m PackageManager) Family() ManagerFamily {
	switch m {
	case ManagerAPT:
		return ManagerFamilyAPTLike
	case ManagerDNF, ManagerYum:
		return ManagerFamilyDNFYum
	case ManagerPacman:
		return ManagerFamilyPacman
	case ManagerZypper:
		return ManagerFamilyZypper
	case ManagerHomebrew:
		return ManagerFamilyHomebrew
	default:
		return ""
	}
}

// PlatformProfile holds the facts resolved once at the start of a run.
// Every later branch is decided from it; it is never mutated.
type PlatformProfile struct {
	OSFamily         OSFamily       `json:"os_family"`
	DistributionID   string         `json:"distribution_id"`
	DistributionName string         `json:"distribution_name,omitempty"`
	Version          string         `json:"version,omitempty"`
	Family           string         `json:"family"` // debian, rhel, arch, suse, darwin
	PackageManager   PackageManager `json:"package_manager"`
	UpdateCommand    string         `json:"update_command"`
	InstallCommand   string         `json:"install_command"`
	Architecture     string         `json:"architecture"`
	Kernel           string         `json:"kernel"`
}

// IsDebianBased checks if the host is Debian/Ubuntu-based.
func (p *PlatformProfile) IsDebianBased() bool {
	return p.Family == FamilyDebian
}

// IsRHEL checks if the host is Fedora/RHEL-based.
func (p *PlatformProfile) IsRHEL() bool {
	return p.Family == FamilyRHEL
}

// IsArch checks if the host is Arch-based.
func (p *PlatformProfile) IsArch() bool {
	return p.Family == FamilyArch
}

// IsSUSE checks if the host is openSUSE/SLES.
func (p *PlatformProfile) IsSUSE() bool {
	return p.Family == FamilySUSE
}

// IsDarwin checks if the host is a macOS desktop.
func (p *PlatformProfile) IsDarwin() bool {
	return p.OSFamily == OSAppleDesktop
}

// NodeArch returns the architecture token used by Node.js release artifacts.
func (p *PlatformProfile) NodeArch() string {
	switch p.Architecture {
	case "arm64", "aarch64":
		return "arm64"
	case "x86_64", "amd64":
		return "x64"
	default:
		return p.Architecture
	}
}
