// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

// Package application sequences the provisioning workflow.
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/janderssonse/clawdhost/internal/adapters/appinstall"
	"github.com/janderssonse/clawdhost/internal/adapters/firewall"
	"github.com/janderssonse/clawdhost/internal/adapters/pkgmgr"
	"github.com/janderssonse/clawdhost/internal/adapters/proxy"
	"github.com/janderssonse/clawdhost/internal/adapters/runtime"
	"github.com/janderssonse/clawdhost/internal/console"
	"github.com/janderssonse/clawdhost/internal/domain"
	"github.com/janderssonse/clawdhost/internal/health"
	log "github.com/sirupsen/logrus"
)

// Step names, in execution order.
const (
	StepDetect        = "detect platform"
	StepPrerequisites = "prerequisites"
	StepFirewall      = "firewall"
	StepInstallApp    = "install application"
	StepConfigureApp  = "configure application"
	StepProxy         = "configure proxy"
	StepVerify        = "verify"
)

// basePackages are ensured before the runtime; the build tools let npm
// compile native modules.
var basePackages = map[domain.ManagerFamily][]string{ //nolint:gochecknoglobals
	domain.ManagerFamilyAPTLike:  {"curl", "git", "ca-certificates", "build-essential"},
	domain.ManagerFamilyDNFYum:   {"curl", "git", "ca-certificates", "gcc-c++", "make"},
	domain.ManagerFamilyPacman:   {"curl", "git", "ca-certificates", "base-devel"},
	domain.ManagerFamilyZypper:   {"curl", "git", "ca-certificates", "gcc-c++", "make"},
	domain.ManagerFamilyHomebrew: {"git"},
}

// BasePackages returns the prerequisite packages for a manager.
func BasePackages(manager domain.PackageManager) []string {
	return basePackages[manager.Family()]
}

// gatewayCLI is the part of the gateway's own CLI the workflow drives.
type gatewayCLI interface {
	Onboard(ctx context.Context) error
	TrustLocalProxy(ctx context.Context) (bool, error)
	Version(ctx context.Context) string
	Status(ctx context.Context) string
}

// attemptNotifier is implemented by checkers that report their polls.
type attemptNotifier interface {
	OnAttempt(fn func(attempt uint64, url string))
}

// ProvisionService runs detect -> prerequisites -> firewall -> install
// application -> configure application -> configure proxy -> verify.
type ProvisionService struct {
	detector domain.SystemDetector
	runner   domain.CommandRunner
	files    domain.FileManager
	network  domain.NetworkClient
	checker  domain.HealthChecker
	output   *console.OutputState
	gateway  gatewayCLI
	dryRun   bool
}

// NewProvisionService wires the workflow to its ports.
func NewProvisionService(
	detector domain.SystemDetector,
	runner domain.CommandRunner,
	files domain.FileManager,
	network domain.NetworkClient,
	checker domain.HealthChecker,
	output *console.OutputState,
) *ProvisionService {
	return &ProvisionService{
		detector: detector,
		runner:   runner,
		files:    files,
		network:  network,
		checker:  checker,
		output:   output,
		gateway:  appinstall.NewGateway(runner),
	}
}

// SetDryRun skips the checks that cannot succeed without real side
// effects: the post-install runtime probe and the health verification.
func (s *ProvisionService) SetDryRun(dryRun bool) {
	s.dryRun = dryRun
}

// stepFunc runs one step and describes its outcome. A zero Status means done.
type stepFunc func(ctx context.Context) (domain.StepResult, error)

func done(detail string) domain.StepResult {
	return domain.StepResult{Status: domain.StepDone, Detail: detail}
}

// components are the adapters selected for one run. All of them are built
// before the first mutation so that selection failures stay preconditions.
type components struct {
	profile  *domain.PlatformProfile
	packages domain.PackageInstaller
	runtime  domain.RuntimeInstaller
	firewall domain.FirewallConfigurator
	app      domain.AppInstaller
	proxy    domain.ProxyConfigurator
}

func (s *ProvisionService) selectComponents(profile *domain.PlatformProfile, cfg domain.RunConfiguration) (*components, error) {
	packages, err := pkgmgr.New(profile, s.runner)
	if err != nil {
		return nil, err
	}

	fw, err := firewall.New(firewall.Deps{
		Profile:  profile,
		Runner:   s.runner,
		Files:    s.files,
		Packages: packages,
		DryRun:   s.dryRun,
	})
	if err != nil {
		return nil, err
	}

	app, err := appinstall.New(cfg.InstallMethod, s.runner, s.files)
	if err != nil {
		return nil, err
	}

	px, err := proxy.New(cfg.Proxy, proxy.Deps{
		Profile:  profile,
		Runner:   s.runner,
		Files:    s.files,
		Packages: packages,
		DryRun:   s.dryRun,
	})
	if err != nil {
		return nil, err
	}

	node := runtime.NewNodeInstaller(profile, s.runner, s.network)
	node.DryRun = s.dryRun

	return &components{
		profile:  profile,
		packages: packages,
		runtime:  node,
		firewall: fw,
		app:      app,
		proxy:    px,
	}, nil
}

// Run provisions the host. The report is returned even on failure and
// holds every step that ran.
func (s *ProvisionService) Run(ctx context.Context, cfg domain.RunConfiguration) (*domain.ProvisionReport, error) {
	report := &domain.ProvisionReport{Config: cfg, Started: time.Now()}
	defer func() { report.Duration = time.Since(report.Started) }()

	if err := cfg.Validate(); err != nil {
		return report, domain.NewPreconditionError("configuration", err)
	}

	var profile *domain.PlatformProfile

	err := s.step(ctx, report, StepDetect, func(ctx context.Context) (domain.StepResult, error) {
		var err error

		profile, err = s.detector.Detect(ctx)
		if err != nil {
			return domain.StepResult{}, err
		}

		return done(fmt.Sprintf("%s via %s", profile.DistributionID, profile.PackageManager)), nil
	})
	if err != nil {
		return report, err
	}

	report.Platform = profile

	parts, err := s.selectComponents(profile, cfg)
	if err != nil {
		return report, err
	}

	steps := []struct {
		name string
		run  stepFunc
	}{
		{StepPrerequisites, func(ctx context.Context) (domain.StepResult, error) { return s.prerequisites(ctx, parts) }},
		{StepFirewall, func(ctx context.Context) (domain.StepResult, error) {
			return done(parts.firewall.Name()), parts.firewall.Configure(ctx, domain.FirewallPorts)
		}},
		{StepInstallApp, func(ctx context.Context) (domain.StepResult, error) {
			return done(string(parts.app.Method())), parts.app.Install(ctx, cfg)
		}},
		{StepConfigureApp, s.configureApp},
		{StepProxy, func(ctx context.Context) (domain.StepResult, error) {
			return s.configureProxy(ctx, report, parts, cfg)
		}},
	}

	for _, st := range steps {
		if err := s.step(ctx, report, st.name, st.run); err != nil {
			return report, err
		}
	}

	s.verify(ctx, report, cfg)

	report.AppVersion = s.gateway.Version(ctx)
	report.Gateway = s.gateway.Status(ctx)

	return report, nil
}

// step runs one named step and records its outcome.
func (s *ProvisionService) step(ctx context.Context, report *domain.ProvisionReport, name string, run stepFunc) error {
	s.output.Stepf("%s", name)

	start := time.Now()
	result, err := run(ctx)

	result.Name = name
	result.Duration = time.Since(start)

	if result.Status == "" {
		result.Status = domain.StepDone
	}

	entry := log.WithFields(log.Fields{"step": name, "duration": result.Duration.Round(time.Millisecond).String()})

	if err != nil {
		result.Status = domain.StepFailed
		result.Detail = firstLine(err.Error())
	}

	report.Steps = append(report.Steps, result)
	s.output.StepFinished(result)

	if err == nil {
		entry.WithField("status", result.Status).Info("step finished")

		return nil
	}

	entry.WithError(err).Error("step failed")

	var perr *domain.ProvisionError
	if errors.As(err, &perr) {
		return err
	}

	return domain.NewProvisioningError(name, err)
}

func (s *ProvisionService) prerequisites(ctx context.Context, parts *components) (domain.StepResult, error) {
	base := BasePackages(parts.profile.PackageManager)
	if err := parts.packages.EnsurePackages(ctx, base...); err != nil {
		return domain.StepResult{}, err
	}

	if err := parts.runtime.EnsureRuntime(ctx, domain.MinRuntimeMajor); err != nil {
		return domain.StepResult{}, err
	}

	return done(fmt.Sprintf("%s, node >= %d", strings.Join(base, " "), domain.MinRuntimeMajor)), nil
}

func (s *ProvisionService) configureApp(ctx context.Context) (domain.StepResult, error) {
	if err := s.gateway.Onboard(ctx); err != nil {
		return domain.StepResult{}, err
	}

	changed, err := s.gateway.TrustLocalProxy(ctx)
	if err != nil {
		return domain.StepResult{}, err
	}

	if !changed {
		return done("trusted proxy already set"), nil
	}

	return done("trusted proxy set to " + domain.GatewayHost), nil
}

func (s *ProvisionService) configureProxy(ctx context.Context, report *domain.ProvisionReport, parts *components, cfg domain.RunConfiguration) (domain.StepResult, error) {
	result, err := parts.proxy.Configure(ctx, cfg)
	if err != nil {
		return domain.StepResult{}, err
	}

	report.Proxy = result

	outcome := done(result.Artifact.Path)
	if !result.Artifact.Written {
		outcome.Detail += " (unchanged)"
	}

	for _, w := range result.Warnings {
		report.AddWarning(w)
		s.output.Warningf("%s", w)

		outcome.Status = domain.StepWarning
	}

	return outcome, nil
}

// verify probes both endpoints. Unreachable endpoints are warnings only.
func (s *ProvisionService) verify(ctx context.Context, report *domain.ProvisionReport, cfg domain.RunConfiguration) {
	if s.dryRun {
		result := domain.StepResult{Name: StepVerify, Status: domain.StepSkipped, Detail: "dry run"}
		report.Steps = append(report.Steps, result)
		s.output.StepFinished(result)

		return
	}

	s.output.Stepf("%s", StepVerify)

	start := time.Now()
	report.Health = s.Verify(ctx, cfg)

	result := domain.StepResult{Name: StepVerify, Status: domain.StepDone, Duration: time.Since(start)}

	var down []string

	for _, h := range report.Health {
		if !h.Reachable {
			down = append(down, h.URL)
			report.AddWarning(h.URL + " is not reachable")
		}
	}

	if len(down) > 0 {
		result.Status = domain.StepWarning
		result.Detail = fmt.Sprintf("%d of %d endpoints unreachable", len(down), len(report.Health))
	}

	report.Steps = append(report.Steps, result)
	s.output.StepFinished(result)
	log.WithFields(log.Fields{"step": StepVerify, "unreachable": down}).Info("verification finished")
}

// Verify probes the gateway and the public endpoint of cfg.
func (s *ProvisionService) Verify(ctx context.Context, cfg domain.RunConfiguration) []domain.HealthResult {
	var results []domain.HealthResult

	s.output.Poll(ctx, "waiting for the gateway", func(status func(string)) {
		if n, ok := s.checker.(attemptNotifier); ok {
			n.OnAttempt(func(attempt uint64, url string) {
				status(fmt.Sprintf("checking %s (attempt %d/%d)", url, attempt, health.DefaultAttempts))
			})
			defer n.OnAttempt(nil)
		}

		results = health.VerifyAll(ctx, s.checker, cfg)
	})

	return results
}

// Detect resolves the platform profile without touching the host.
func (s *ProvisionService) Detect(ctx context.Context) (*domain.PlatformProfile, error) {
	return s.detector.Detect(ctx)
}

// EnsureRuntime installs only the Node.js runtime and returns its version.
func (s *ProvisionService) EnsureRuntime(ctx context.Context) (string, error) {
	profile, err := s.detector.Detect(ctx)
	if err != nil {
		return "", err
	}

	node := runtime.NewNodeInstaller(profile, s.runner, s.network)
	node.DryRun = s.dryRun

	if err := node.EnsureRuntime(ctx, domain.MinRuntimeMajor); err != nil {
		return "", err
	}

	return node.Version(ctx), nil
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")

	return line
}
