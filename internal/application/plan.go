// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/janderssonse/clawdhost/internal/domain"
	"github.com/janderssonse/clawdhost/internal/health"
)

// PlannedStep describes what a run would do in one step.
type PlannedStep struct {
	Name   string `json:"name"`
	Action string `json:"action"`
}

// Plan validates cfg, detects the platform and lists the steps a run would
// execute. Nothing on the host is changed.
func (s *ProvisionService) Plan(ctx context.Context, cfg domain.RunConfiguration) (*domain.PlatformProfile, []PlannedStep, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, domain.NewPreconditionError("configuration", err)
	}

	profile, err := s.detector.Detect(ctx)
	if err != nil {
		return nil, nil, err
	}

	parts, err := s.selectComponents(profile, cfg)
	if err != nil {
		return profile, nil, err
	}

	ports := make([]string, 0, len(domain.FirewallPorts))
	for _, p := range domain.FirewallPorts {
		ports = append(ports, fmt.Sprintf("%d/tcp", p))
	}

	steps := []PlannedStep{
		{StepDetect, fmt.Sprintf("%s (%s) via %s", profile.DistributionID, profile.Architecture, profile.PackageManager)},
		{StepPrerequisites, fmt.Sprintf("%s %s; node >= %d",
			profile.InstallCommand, strings.Join(BasePackages(profile.PackageManager), " "), domain.MinRuntimeMajor)},
		{StepFirewall, fmt.Sprintf("%s: allow %s", parts.firewall.Name(), strings.Join(ports, " "))},
		{StepInstallApp, installAction(cfg)},
		{StepConfigureApp, fmt.Sprintf("%s onboard --install-daemon; %s = %s",
			domain.GatewayBinary, domain.TrustedProxyKey, domain.GatewayHost)},
		{StepProxy, fmt.Sprintf("%s for %s -> %s", parts.proxy.Kind(), cfg.Domain, domain.GatewayUpstream)},
		{StepVerify, strings.Join(health.Endpoints(cfg), " ")},
	}

	return profile, steps, nil
}

func installAction(cfg domain.RunConfiguration) string {
	switch cfg.InstallMethod {
	case domain.MethodGit:
		return fmt.Sprintf("git %s into %s (existing checkouts are hard-reset), pnpm build, npm install -g",
			cfg.SourceRepo, cfg.SourceDir)
	case domain.MethodNPMAlt:
		return "npm install -g " + cfg.PackageSpec(domain.PublishedAltPackage)
	default:
		return "npm install -g " + cfg.PackageSpec(domain.PublishedPackage)
	}
}
