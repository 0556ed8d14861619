// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package console

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"
)

type statusMsg string

type finishedMsg struct{}

// pollModel shows a spinner next to the latest status line.
type pollModel struct {
	spinner spinner.Model
	status  string
	done    bool
}

func newPollModel(status string) pollModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primary)

	return pollModel{spinner: s, status: status}
}

func (m pollModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m pollModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		m.status = string(msg)

		return m, nil
	case finishedMsg:
		m.done = true

		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m pollModel) View() string {
	if m.done {
		return ""
	}

	return m.spinner.View() + " " + m.status + "\n"
}

// Poll runs work while reporting its status. On a terminal the status is
// shown next to a spinner on stderr; otherwise it goes through Progressf.
func (o *OutputState) Poll(ctx context.Context, initial string, work func(status func(string))) {
	if o.Verbose || o.JSON || o.Plain || !o.IsTTY(o.stderr()) {
		o.Progressf("%s", initial)
		work(func(s string) { o.Progressf("%s", s) })

		return
	}

	program := tea.NewProgram(
		newPollModel(initial),
		tea.WithOutput(o.stderr()),
		tea.WithInput(nil),
		tea.WithContext(ctx),
	)

	finished := make(chan struct{})

	go func() {
		defer close(finished)

		work(func(s string) { program.Send(statusMsg(s)) })
		program.Send(finishedMsg{})
	}()

	if _, err := program.Run(); err != nil {
		log.WithError(err).Debug("spinner stopped")
	}

	<-finished
}
