// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/janderssonse/clawdhost/internal/domain"
)

// ErrSetupDeclined is returned when the operator does not confirm the run.
var ErrSetupDeclined = errors.New("setup declined")

// Prompter completes the run configuration interactively.
type Prompter func(ctx context.Context, cfg *domain.RunConfiguration) error

func getTitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7aa2f7")).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#565f89")).
		Padding(0, 1).
		MarginBottom(1)
}

// InteractiveSetup holds the operator's answers.
type InteractiveSetup struct {
	Domain       string
	Proxy        string
	Method       string
	CertbotEmail string
	Confirmed    bool
}

func newInteractiveSetup(cfg domain.RunConfiguration) *InteractiveSetup {
	return &InteractiveSetup{
		Domain:       cfg.Domain,
		Proxy:        string(cfg.Proxy),
		Method:       string(cfg.InstallMethod),
		CertbotEmail: cfg.CertbotEmail,
		Confirmed:    true,
	}
}

// apply copies the answers into cfg.
func (s *InteractiveSetup) apply(cfg *domain.RunConfiguration) error {
	if !s.Confirmed {
		return domain.NewPreconditionError("configuration", ErrSetupDeclined)
	}

	cfg.Domain = strings.TrimSpace(s.Domain)
	cfg.Proxy = domain.ProxyKind(s.Proxy)
	cfg.InstallMethod = domain.InstallMethod(s.Method)
	cfg.CertbotEmail = strings.TrimSpace(s.CertbotEmail)

	return nil
}

func validateDomain(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return domain.ErrMissingDomain
	}

	if strings.ContainsAny(value, " \t/{};") {
		return fmt.Errorf("%w: %q", domain.ErrInvalidDomain, value)
	}

	return nil
}

func setupForm(setup *InteractiveSetup, sourceDir string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Domain").
				Description("Public name the reverse proxy serves; its DNS record must point here").
				Value(&setup.Domain).
				Validate(validateDomain),
			huh.NewSelect[string]().
				Title("Reverse proxy").
				Options(
					huh.NewOption("Caddy (automatic TLS)", string(domain.ProxyCaddy)),
					huh.NewOption("nginx + certbot", string(domain.ProxyNginx)),
				).
				Value(&setup.Proxy),
			huh.NewSelect[string]().
				Title("Install method").
				Options(
					huh.NewOption("npm (published package)", string(domain.MethodNPM)),
					huh.NewOption("npm-alt (alternate package name)", string(domain.MethodNPMAlt)),
					huh.NewOption("git (build from source)", string(domain.MethodGit)),
				).
				Value(&setup.Method),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Certbot e-mail").
				Description("Leave empty to register without an e-mail address").
				Value(&setup.CertbotEmail),
		).WithHideFunc(func() bool {
			return setup.Proxy != string(domain.ProxyNginx)
		}),
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Hard-reset %s?", sourceDir)).
				Description("An existing checkout is reset to the remote default branch; local changes are lost").
				Affirmative("Continue").
				Negative("Abort").
				Value(&setup.Confirmed),
		).WithHideFunc(func() bool {
			return setup.Method != string(domain.MethodGit)
		}),
	)
}

// promptConfiguration asks for the run settings on the terminal.
func promptConfiguration(ctx context.Context, cfg *domain.RunConfiguration) error {
	fmt.Fprintln(os.Stderr, getTitleStyle().Render("◈ clawdhost setup ◈"))

	setup := newInteractiveSetup(*cfg)

	if err := setupForm(setup, cfg.SourceDir).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return context.Canceled
		}

		return fmt.Errorf("interactive setup: %w", err)
	}

	return setup.apply(cfg)
}
