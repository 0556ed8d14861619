// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

// Package cli provides the clawdhost command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/janderssonse/clawdhost/internal/adapters/platform"
	"github.com/janderssonse/clawdhost/internal/application"
	"github.com/janderssonse/clawdhost/internal/config"
	"github.com/janderssonse/clawdhost/internal/console"
	"github.com/janderssonse/clawdhost/internal/domain"
	"github.com/janderssonse/clawdhost/internal/health"
	"github.com/janderssonse/clawdhost/internal/logging"
	hostplatform "github.com/janderssonse/clawdhost/internal/platform"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

// Version is set at build time.
var Version = "dev" //nolint:gochecknoglobals

const defaultTimeout = 30 * time.Minute

// Environment bundles the host adapters a command works against.
type Environment struct {
	Detector domain.SystemDetector
	Runner   domain.CommandRunner
	Files    domain.FileManager
	Network  domain.NetworkClient
	Checker  domain.HealthChecker
}

// EnvironmentFactory builds the adapters for one invocation.
type EnvironmentFactory func(verbose, dryRun bool) *Environment

func systemEnvironment(verbose, dryRun bool) *Environment {
	runner := platform.NewCommandRunner(verbose, dryRun)
	files := platform.NewFileManager(runner, verbose, dryRun)

	network := platform.NewNetworkAdapter()
	network.SetDryRun(dryRun)

	return &Environment{
		Detector: platform.NewSystemDetector(runner, files),
		Runner:   runner,
		Files:    files,
		Network:  network,
		Checker:  health.NewVerifier(),
	}
}

// CLI wires the command tree to the provisioning service.
type CLI struct {
	app         *cli.Command
	output      *console.OutputState
	environment EnvironmentFactory
	prompt      Prompter
	hostDomain  func(ctx context.Context) (string, error)
	closeLog    func() error
	file        *config.File

	verbose     bool
	json        bool
	plain       bool
	dryRun      bool
	interactive bool
	configPath  string
	logFile     string
	logLevel    string
	timeout     time.Duration
}

// NewCLI creates the CLI against the real host.
func NewCLI() *CLI {
	return newCLI(console.DefaultOutput, systemEnvironment)
}

func newCLI(output *console.OutputState, environment EnvironmentFactory) *CLI {
	app := &CLI{
		output:      output,
		environment: environment,
		prompt:      promptConfiguration,
		hostDomain:  config.SystemHostDomain,
		file:        &config.File{},
	}

	app.app = &cli.Command{
		Name:      "clawdhost",
		Usage:     "Provision a host to run the clawdbot gateway behind a TLS reverse proxy",
		Version:   Version,
		ArgsUsage: "[domain]",
		Suggest:   true,
		Description: `Installs the Node.js runtime and clawdbot, registers the gateway daemon on
127.0.0.1:18789 and publishes it through Caddy or nginx with certbot. The
firewall is opened for 22, 80, 443 and 18789 over TCP.

The domain defaults to the fully qualified hostname. Runs are idempotent:
re-running converges the host and leaves existing proxy configuration alone.

The git install method hard-resets an existing checkout in --source-dir to
the remote default branch. Local changes in that directory are discarded.

EXAMPLES:
  clawdhost example.com                         # npm install, Caddy
  clawdhost --proxy nginx --certbot-email ops@example.com example.com
  clawdhost --install-method git --dry-run example.com
  clawdhost plan example.com                    # show what a run would do
  clawdhost verify example.com                  # probe the endpoints`,
		Flags:  app.flags(),
		Before: app.initConfig,
		After: func(_ context.Context, _ *cli.Command) error {
			if app.closeLog != nil {
				return app.closeLog()
			}

			return nil
		},
		Action: app.runProvision,
		Commands: []*cli.Command{
			app.createProvisionCommand(),
			app.createPlanCommand(),
			app.createDetectCommand(),
			app.createVerifyCommand(),
			app.createRuntimeCommand(),
		},
	}

	return app
}

func (app *CLI) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "proxy",
			Usage:   "reverse proxy: caddy or nginx",
			Sources: cli.EnvVars("PROXY"),
		},
		&cli.StringFlag{
			Name:    "install-method",
			Usage:   "how to install clawdbot: npm, npm-alt or git",
			Sources: cli.EnvVars("INSTALL_METHOD"),
		},
		&cli.StringFlag{
			Name:    "app-version",
			Usage:   "clawdbot version or dist-tag for npm installs",
			Sources: cli.EnvVars("CLAWDBOT_VERSION"),
		},
		&cli.StringFlag{
			Name:    "certbot-email",
			Usage:   "e-mail registered with Let's Encrypt (nginx only)",
			Sources: cli.EnvVars("CERTBOT_EMAIL"),
		},
		&cli.StringFlag{
			Name:    "source-repo",
			Usage:   "git repository for the git install method",
			Sources: cli.EnvVars("SOURCE_REPO"),
		},
		&cli.StringFlag{
			Name:  "source-dir",
			Usage: "checkout directory for the git install method (hard-reset on re-runs)",
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "configuration file (TOML or YAML)",
			Sources:     cli.EnvVars("CLAWDHOST_CONFIG"),
			Destination: &app.configPath,
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "print privileged commands and downloads instead of running them",
			Destination: &app.dryRun,
		},
		&cli.BoolFlag{
			Name:        "interactive",
			Aliases:     []string{"i"},
			Usage:       "prompt for the domain, proxy and install method",
			Destination: &app.interactive,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Usage:       "show progress messages and command lines on stderr",
			Destination: &app.verbose,
		},
		&cli.BoolFlag{
			Name:        "json",
			Aliases:     []string{"j"},
			Usage:       "output structured JSON results",
			Destination: &app.json,
		},
		&cli.BoolFlag{
			Name:        "plain",
			Usage:       "output plain text without formatting for scripts",
			Destination: &app.plain,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "abort the run after this long (0 = no timeout)",
			Value:       defaultTimeout,
			Destination: &app.timeout,
		},
		&cli.StringFlag{
			Name:        "log-file",
			Usage:       `run log path, or "console" for stderr`,
			Destination: &app.logFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "run log level: debug, info, warn or error",
			Value:       "info",
			Destination: &app.logLevel,
		},
	}
}

// Run executes the command line and prints failures in the selected mode.
func (app *CLI) Run(ctx context.Context, args []string) error {
	err := app.app.Run(ctx, args)
	if err == nil {
		return nil
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		exitErr = NewExitError(ExitUsageError, err.Error(), err)
	}

	if app.output.JSON {
		app.output.JSONResult("error", map[string]any{
			"error": exitErr.Message,
			"code":  exitErr.Code,
		})
	} else {
		app.output.Errorf("%s", exitErr.Message)
	}

	return exitErr
}

// initConfig validates output flags, loads the configuration file and opens
// the run log.
func (app *CLI) initConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if app.json && app.plain {
		return ctx, NewExitError(ExitUsageError, "cannot use both --json and --plain flags simultaneously", nil)
	}

	app.output.SetMode(app.verbose, app.json, app.plain)

	file, err := app.loadConfigFile()
	if err != nil {
		return ctx, NewExitError(ExitConfigError, err.Error(), err)
	}

	app.file = file

	level := app.logLevel
	if !cmd.IsSet("log-level") && file.LogLevel != "" {
		level = file.LogLevel
	}

	path := app.logFile
	if path == "" {
		path = file.LogFile
	}

	if path == "" {
		path = hostplatform.DefaultLogPath(os.Geteuid() == 0)
	}

	if _, err := log.ParseLevel(level); err != nil {
		return ctx, NewExitError(ExitUsageError, fmt.Sprintf("invalid log level %q", level), err)
	}

	closeLog, err := logging.Init(level, path)
	if err != nil {
		// An unwritable log directory must not block provisioning.
		app.output.Warningf("run log disabled: %v", err)
	}

	app.closeLog = closeLog

	log.WithFields(log.Fields{
		"version": Version,
		"args":    strings.Join(os.Args[1:], " "),
	}).Debug("clawdhost started")

	return ctx, nil
}

func (app *CLI) loadConfigFile() (*config.File, error) {
	if app.configPath != "" {
		return config.Load(hostplatform.ExpandPath(app.configPath))
	}

	return config.LoadOptional(hostplatform.DefaultConfigPath())
}

// buildConfig resolves the run configuration: flags and environment over the
// configuration file over defaults. The domain argument wins over everything.
func (app *CLI) buildConfig(ctx context.Context, cmd *cli.Command, resolveDomain bool) (domain.RunConfiguration, error) {
	cfg := app.file.Merge(config.Defaults())

	normalize := func(value string) string {
		return strings.ToLower(strings.TrimSpace(value))
	}

	if cmd.IsSet("proxy") {
		cfg.Proxy = domain.ProxyKind(normalize(cmd.String("proxy")))
	}

	if cmd.IsSet("install-method") {
		cfg.InstallMethod = domain.InstallMethod(normalize(cmd.String("install-method")))
	}

	overrides := map[string]*string{
		"app-version":   &cfg.AppVersion,
		"certbot-email": &cfg.CertbotEmail,
		"source-repo":   &cfg.SourceRepo,
	}
	for name, dst := range overrides {
		if cmd.IsSet(name) {
			*dst = strings.TrimSpace(cmd.String(name))
		}
	}

	if cmd.IsSet("source-dir") {
		cfg.SourceDir = hostplatform.ExpandPath(strings.TrimSpace(cmd.String("source-dir")))
	}

	if arg := strings.TrimSpace(cmd.Args().First()); arg != "" {
		cfg.Domain = arg
	}

	cfg.DryRun = app.dryRun
	cfg.Verbose = app.verbose

	if app.interactive {
		if err := app.prompt(ctx, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.Domain == "" && resolveDomain {
		fqdn, err := app.hostDomain(ctx)
		if err != nil {
			return cfg, domain.NewPreconditionError("configuration", err)
		}

		app.output.Stepf("no domain given, using %s", fqdn)
		log.WithField("domain", fqdn).Info("domain taken from hostname")

		cfg.Domain = fqdn
	}

	return cfg, nil
}

func (app *CLI) newService() *application.ProvisionService {
	env := app.environment(app.verbose, app.dryRun)

	service := application.NewProvisionService(env.Detector, env.Runner, env.Files, env.Network, env.Checker, app.output)
	service.SetDryRun(app.dryRun)

	return service
}

func (app *CLI) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if app.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, app.timeout)
}

// runProvision performs a full run. Unreachable endpoints are warnings; the
// exit code reflects only precondition and provisioning failures.
func (app *CLI) runProvision(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() > 1 {
		return NewExitError(ExitUsageError, "expected at most one domain argument", nil)
	}

	cfg, err := app.buildConfig(ctx, cmd, true)
	if err != nil {
		return exitErrorFor(err)
	}

	ctx, cancel := app.withTimeout(ctx)
	defer cancel()

	if app.dryRun {
		app.output.Warningf("dry run: privileged commands are printed, not executed")
	}

	report, err := app.newService().Run(ctx, cfg)
	if exitErr := exitErrorForRun(ctx, err); exitErr != nil {
		log.WithError(exitErr).Error("provisioning failed")

		return exitErr
	}

	app.output.Summary(report)

	if !report.Healthy() {
		log.WithField("warnings", len(report.Warnings)).Warn("run finished with unreachable endpoints")
	}

	return nil
}

func (app *CLI) createProvisionCommand() *cli.Command {
	return &cli.Command{
		Name:      "provision",
		Usage:     "Provision this host (the default command)",
		ArgsUsage: "[domain]",
		Action:    app.runProvision,
	}
}
