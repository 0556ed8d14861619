// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/janderssonse/clawdhost/internal/domain"
	"github.com/urfave/cli/v3"
)

func (app *CLI) createPlanCommand() *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "Show the steps a run would execute without changing the host",
		ArgsUsage: "[domain]",
		Action:    app.runPlan,
	}
}

func (app *CLI) runPlan(ctx context.Context, cmd *cli.Command) error {
	cfg, err := app.buildConfig(ctx, cmd, true)
	if err != nil {
		return exitErrorFor(err)
	}

	profile, steps, err := app.newService().Plan(ctx, cfg)
	if err != nil {
		return exitErrorFor(err)
	}

	switch {
	case app.output.JSON:
		app.output.JSONResult("success", map[string]any{
			"platform": profile,
			"config":   cfg,
			"steps":    steps,
		})
	case app.output.Plain:
		for _, step := range steps {
			app.output.PlainKeyValue(step.Name, step.Action)
		}
	default:
		app.output.Result(app.output.Header(fmt.Sprintf("Plan for %s", cfg.Domain)))

		for i, step := range steps {
			app.output.Result(fmt.Sprintf("%d. %s\n   %s", i+1, app.output.Bold(step.Name), step.Action))
		}
	}

	return nil
}

func (app *CLI) createDetectCommand() *cli.Command {
	return &cli.Command{
		Name:   "detect",
		Usage:  "Print the detected platform profile",
		Action: app.runDetect,
	}
}

func (app *CLI) runDetect(ctx context.Context, _ *cli.Command) error {
	profile, err := app.newService().Detect(ctx)
	if err != nil {
		return exitErrorFor(err)
	}

	if app.output.JSON {
		app.output.JSONResult("success", map[string]any{"platform": profile})

		return nil
	}

	fields := [][2]string{
		{"os", string(profile.OSFamily)},
		{"distribution", profile.DistributionID},
		{"version", profile.Version},
		{"family", profile.Family},
		{"package_manager", string(profile.PackageManager)},
		{"update", profile.UpdateCommand},
		{"install", profile.InstallCommand},
		{"architecture", profile.Architecture},
		{"kernel", profile.Kernel},
	}

	for _, field := range fields {
		if app.output.Plain {
			app.output.PlainKeyValue(field[0], field[1])

			continue
		}

		app.output.Result(fmt.Sprintf("%-16s %s", field[0]+":", field[1]))
	}

	return nil
}

func (app *CLI) createVerifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Probe the local gateway and the public HTTPS endpoint",
		ArgsUsage: "[domain]",
		Action:    app.runVerify,
	}
}

// runVerify exits non-zero when an endpoint is down so it can gate scripts;
// a full run only warns.
func (app *CLI) runVerify(ctx context.Context, cmd *cli.Command) error {
	cfg, err := app.buildConfig(ctx, cmd, true)
	if err != nil {
		return exitErrorFor(err)
	}

	results := app.newService().Verify(ctx, cfg)
	if exitErr := exitErrorForRun(ctx, nil); exitErr != nil {
		return exitErr
	}

	down := 0

	for _, result := range results {
		if !result.Reachable {
			down++
		}
	}

	switch {
	case app.output.JSON:
		app.output.JSONResult("success", map[string]any{"health": results})
	case app.output.Plain:
		for _, result := range results {
			app.output.PlainKeyValue(result.URL, fmt.Sprint(result.Reachable))
		}
	default:
		for _, result := range results {
			if result.Reachable {
				app.output.Successf("%s reachable", result.URL)
			} else {
				app.output.Warningf("%s not reachable", result.URL)
			}
		}
	}

	if down > 0 {
		return NewExitError(ExitGeneralError, fmt.Sprintf("%d of %d endpoints unreachable", down, len(results)), nil)
	}

	return nil
}

func (app *CLI) createRuntimeCommand() *cli.Command {
	return &cli.Command{
		Name:   "runtime",
		Usage:  fmt.Sprintf("Install or upgrade Node.js to %d or newer", domain.MinRuntimeMajor),
		Action: app.runRuntime,
	}
}

func (app *CLI) runRuntime(ctx context.Context, _ *cli.Command) error {
	ctx, cancel := app.withTimeout(ctx)
	defer cancel()

	version, err := app.newService().EnsureRuntime(ctx)
	if exitErr := exitErrorForRun(ctx, err); exitErr != nil {
		return exitErr
	}

	version = strings.TrimSpace(version)

	switch {
	case app.output.JSON:
		app.output.JSONResult("success", map[string]any{"node": version})
	case app.output.Plain:
		app.output.PlainKeyValue("node", version)
	default:
		app.output.Successf("node %s", version)
	}

	return nil
}
