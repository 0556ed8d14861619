// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/janderssonse/clawdhost/internal/domain"
	"github.com/mattn/go-runewidth"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tokyo Night palette shared by headers and status markers.
var (
	primary   = lipgloss.Color("#7aa2f7") //nolint:gochecknoglobals
	success   = lipgloss.Color("#9ece6a") //nolint:gochecknoglobals
	warning   = lipgloss.Color("#e0af68") //nolint:gochecknoglobals
	errorTint = lipgloss.Color("#f7768e") //nolint:gochecknoglobals
	muted     = lipgloss.Color("#565f89") //nolint:gochecknoglobals
)

const summaryWrap = 80

func bannerStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(primary).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primary).
		Padding(0, 2)
}

// SummaryMarkdown renders report as a Markdown document.
func SummaryMarkdown(report *domain.ProvisionReport) string {
	var b strings.Builder

	title := cases.Title(language.English)

	fmt.Fprintf(&b, "# Clawdbot gateway on %s\n\n", report.Config.Domain)

	if report.Platform != nil {
		fmt.Fprintf(&b, "Platform: **%s** (%s, %s)\n\n",
			report.Platform.DistributionID, report.Platform.PackageManager, report.Platform.Architecture)
	}

	writeStepTable(&b, report.Steps, title)

	if report.Proxy != nil {
		state := "unchanged"
		if report.Proxy.Artifact.Written {
			state = "written"
		}

		b.WriteString("## Reverse proxy\n\n")
		fmt.Fprintf(&b, "- %s config: `%s` (%s)\n\n", title.String(string(report.Config.Proxy)), report.Proxy.Artifact.Path, state)
	}

	if report.AppVersion != "" || report.Gateway != "" {
		b.WriteString("## Gateway\n\n")

		if report.AppVersion != "" {
			fmt.Fprintf(&b, "- Version: `%s`\n", report.AppVersion)
		}

		fmt.Fprintf(&b, "- Listening on: `%s`\n\n", domain.GatewayUpstream)

		if report.Gateway != "" {
			fmt.Fprintf(&b, "```\n%s\n```\n\n", strings.TrimSpace(report.Gateway))
		}
	}

	if len(report.Health) > 0 {
		b.WriteString("## Endpoints\n\n")

		for _, h := range report.Health {
			state := "reachable"
			if !h.Reachable {
				state = "not reachable"
			}

			fmt.Fprintf(&b, "- %s: %s\n", h.URL, state)
		}

		b.WriteString("\n")
	}

	if len(report.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")

		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}

		b.WriteString("\n")
	}

	b.WriteString("## Next steps\n\n")
	fmt.Fprintf(&b, "- Point the DNS record of `%s` at this host\n", report.Config.Domain)
	fmt.Fprintf(&b, "- Check the daemon with `%s gateway status`\n", domain.GatewayBinary)

	return b.String()
}

// writeStepTable pads every column so the table also reads well unrendered.
func writeStepTable(b *strings.Builder, steps []domain.StepResult, title cases.Caser) {
	if len(steps) == 0 {
		return
	}

	headers := []string{"Step", "Status", "Duration"}
	rows := make([][]string, 0, len(steps))

	for _, step := range steps {
		rows = append(rows, []string{
			title.String(step.Name),
			string(step.Status),
			step.Duration.Round(time.Millisecond).String(),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	writeRow := func(cells []string) {
		b.WriteString("|")

		for i, cell := range cells {
			b.WriteString(" " + runewidth.FillRight(cell, widths[i]) + " |")
		}

		b.WriteString("\n")
	}

	writeRow(headers)

	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}

	writeRow(rule)

	for _, row := range rows {
		writeRow(row)
	}

	b.WriteString("\n")
}

// StatusMarker returns the marker for a step outcome, coloured when styled.
func StatusMarker(status domain.StepStatus, styled bool) string {
	marker, tint := "✗", errorTint

	switch status {
	case domain.StepDone:
		marker, tint = "✓", success
	case domain.StepSkipped:
		marker, tint = "-", muted
	case domain.StepWarning:
		marker, tint = "⚠", warning
	case domain.StepFailed:
	}

	if !styled {
		return marker
	}

	return lipgloss.NewStyle().Foreground(tint).Render(marker)
}

// StepFinished reports a completed step on stderr.
func (o *OutputState) StepFinished(step domain.StepResult) {
	if o.JSON || o.Plain {
		return
	}

	line := fmt.Sprintf("%s %s", StatusMarker(step.Status, o.IsTTY(o.stderr())), cases.Title(language.English).String(step.Name))
	if step.Detail != "" {
		line += ": " + step.Detail
	}

	_, _ = fmt.Fprintln(o.stderr(), line)
}

// Summary writes the final report: JSON, raw Markdown when piped, or
// rendered Markdown on a terminal.
func (o *OutputState) Summary(report *domain.ProvisionReport) {
	if o.JSON {
		o.JSONResult("success", map[string]any{"report": report})

		return
	}

	markdown := SummaryMarkdown(report)

	if !o.Styled() {
		_, _ = fmt.Fprint(o.stdout(), markdown)

		return
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(summaryWrap),
	)
	if err == nil {
		var rendered string

		rendered, err = renderer.Render(markdown)
		if err == nil {
			_, _ = fmt.Fprintln(o.stdout(), bannerStyle().Render("clawdhost"))
			_, _ = fmt.Fprint(o.stdout(), rendered)

			return
		}
	}

	log.WithError(err).Debug("markdown rendering failed, writing raw summary")
	_, _ = fmt.Fprint(o.stdout(), markdown)
}
