// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

// Package platform provides shared command execution functionality.
package platform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/janderssonse/clawdhost/internal/domain"
	hostplatform "github.com/janderssonse/clawdhost/internal/platform"
	log "github.com/sirupsen/logrus"
)

// stderrTailSize bounds how much tool diagnostics are copied into errors.
const stderrTailSize = 4096

// CommandRunner implements the CommandRunner port for real system commands.
type CommandRunner struct {
	verbose bool
	dryRun  bool
	euid    func() int
	stdout  io.Writer
	stderr  io.Writer
}

// NewCommandRunner creates a new command runner.
func NewCommandRunner(verbose, dryRun bool) *CommandRunner {
	return &CommandRunner{
		verbose: verbose,
		dryRun:  dryRun,
		euid:    os.Geteuid,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// Execute runs a command and returns the result.
func (r *CommandRunner) Execute(ctx context.Context, name string, args ...string) error {
	return r.run(ctx, name, args, false)
}

// ExecuteInteractive runs a command attached to the operator's terminal,
// whatever the verbosity, so prompts can be answered.
func (r *CommandRunner) ExecuteInteractive(ctx context.Context, name string, args ...string) error {
	return r.run(ctx, name, args, true)
}

// ExecuteWithOutput runs a command and returns the output.
func (r *CommandRunner) ExecuteWithOutput(ctx context.Context, name string, args ...string) (string, error) {
	return r.output(ctx, name, args)
}

// RunPrivileged runs a command with elevated privilege.
func (r *CommandRunner) RunPrivileged(ctx context.Context, preserveEnv bool, name string, args ...string) error {
	name, args = r.escalate(preserveEnv, name, args)

	return r.run(ctx, name, args, false)
}

// RunPrivilegedWithOutput runs a command with elevated privilege and returns the output.
func (r *CommandRunner) RunPrivilegedWithOutput(ctx context.Context, name string, args ...string) (string, error) {
	name, args = r.escalate(false, name, args)

	return r.output(ctx, name, args)
}

// CommandExists checks if a command is available on the system.
func (r *CommandRunner) CommandExists(name string) bool {
	_, err := exec.LookPath(name)

	return err == nil
}

// IsPrivileged reports whether the effective user is root.
func (r *CommandRunner) IsPrivileged() bool {
	return r.euid() == 0
}

// escalate prefixes sudo unless already root.
func (r *CommandRunner) escalate(preserveEnv bool, name string, args []string) (string, []string) {
	if r.IsPrivileged() {
		return name, args
	}

	sudoArgs := make([]string, 0, len(args)+2)
	if preserveEnv {
		sudoArgs = append(sudoArgs, "-E")
	}

	sudoArgs = append(sudoArgs, name)
	sudoArgs = append(sudoArgs, args...)

	return "sudo", sudoArgs
}

func (r *CommandRunner) run(ctx context.Context, name string, args []string, interactive bool) error {
	line := commandLine(name, args)
	if r.verbose {
		_, _ = fmt.Fprintf(r.stderr, "Executing: %s\n", line)
	}

	if r.dryRun {
		_, _ = fmt.Fprintf(r.stdout, "DRY RUN: %s\n", line)

		return nil
	}

	// #nosec G204 - This is intentional command execution with validated input
	cmd := exec.CommandContext(ctx, name, args...)

	// Propagate proxy environment variables
	cmd.Env = append(os.Environ(), hostplatform.GetProxyEnv()...)
	// Enable interactive sudo password prompts
	cmd.Stdin = os.Stdin

	logWriter := log.StandardLogger().WriterLevel(log.DebugLevel)
	defer func() { _ = logWriter.Close() }()

	tail := &tailBuffer{limit: stderrTailSize}

	if r.verbose || interactive {
		cmd.Stdout = r.stdout
		cmd.Stderr = io.MultiWriter(r.stderr, tail)
	} else {
		cmd.Stdout = logWriter
		cmd.Stderr = io.MultiWriter(logWriter, tail)
	}

	start := time.Now()
	err := cmd.Run()

	entry := log.WithFields(log.Fields{
		"command":  line,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	})

	if err != nil {
		entry.WithError(err).Warn("command failed")

		return commandError(line, err, tail.String())
	}

	entry.Debug("command finished")

	return nil
}

func (r *CommandRunner) output(ctx context.Context, name string, args []string) (string, error) {
	line := commandLine(name, args)
	if r.verbose {
		_, _ = fmt.Fprintf(r.stderr, "Executing (with output): %s\n", line)
	}

	if r.dryRun {
		_, _ = fmt.Fprintf(r.stdout, "DRY RUN (with output): %s\n", line)

		return "", nil
	}

	// #nosec G204 - This is intentional command execution with validated input
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), hostplatform.GetProxyEnv()...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		log.WithField("command", line).WithError(err).Debug("command with output failed")

		return string(output), commandError(line, err, stderr.String())
	}

	return string(output), nil
}

// commandError keeps the tool's own diagnostics verbatim behind a short prefix.
func commandError(line string, err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if stderr != "" {
		return fmt.Errorf("%w: %s: %w\n%s", domain.ErrCommandFailed, line, err, stderr)
	}

	return fmt.Errorf("%w: %s: %w", domain.ErrCommandFailed, line, err)
}

func commandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}

	return name + " " + strings.Join(args, " ")
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}

	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return string(t.buf)
}

// MockCommandRunner implements the CommandRunner port for testing.
// Every invocation is recorded as a command line; privileged invocations
// carry the sudo prefix the real runner would add.
type MockCommandRunner struct {
	mu          sync.Mutex
	outputs     map[string][]string // command -> queued outputs, last one sticks
	failures    map[string]error    // substring -> error
	missing     map[string]bool
	calls       []string
	interactive []string
	privileged  bool
	verbose     bool
}

// NewMockCommandRunner creates a new mock command runner for testing.
func NewMockCommandRunner(verbose bool) *MockCommandRunner {
	return &MockCommandRunner{
		outputs:  make(map[string][]string),
		failures: make(map[string]error),
		missing:  make(map[string]bool),
		verbose:  verbose,
	}
}

// SetPrivileged makes the mock behave as if running as root.
func (r *MockCommandRunner) SetPrivileged(privileged bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.privileged = privileged
}

// SetMockOutput sets the output for a command line. Several outputs are
// returned one per call; the last is repeated.
func (r *MockCommandRunner) SetMockOutput(command string, outputs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outputs[command] = outputs
}

// SetMockError fails every command line containing substr.
func (r *MockCommandRunner) SetMockError(substr string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures[substr] = err
}

// SetCommandMissing makes CommandExists report name as absent.
func (r *MockCommandRunner) SetCommandMissing(name string, missing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.missing[name] = missing
}

// Calls returns the recorded command lines in order.
func (r *MockCommandRunner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.calls...)
}

// Execute records a command.
func (r *MockCommandRunner) Execute(_ context.Context, name string, args ...string) error {
	_, err := r.record(commandLine(name, args))

	return err
}

// ExecuteWithOutput records a command and returns preset output.
func (r *MockCommandRunner) ExecuteWithOutput(_ context.Context, name string, args ...string) (string, error) {
	return r.record(commandLine(name, args))
}

// ExecuteInteractive records a command attached to the terminal.
func (r *MockCommandRunner) ExecuteInteractive(_ context.Context, name string, args ...string) error {
	line := commandLine(name, args)

	r.mu.Lock()
	r.interactive = append(r.interactive, line)
	r.mu.Unlock()

	_, err := r.record(line)

	return err
}

// InteractiveCalls returns the command lines run attached to the terminal.
func (r *MockCommandRunner) InteractiveCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.interactive...)
}

// RunPrivileged records a privileged command.
func (r *MockCommandRunner) RunPrivileged(_ context.Context, preserveEnv bool, name string, args ...string) error {
	_, err := r.record(r.privilegedLine(preserveEnv, name, args))

	return err
}

// RunPrivilegedWithOutput records a privileged command and returns preset output.
func (r *MockCommandRunner) RunPrivilegedWithOutput(_ context.Context, name string, args ...string) (string, error) {
	return r.record(r.privilegedLine(false, name, args))
}

// CommandExists reports true unless the command was marked missing.
func (r *MockCommandRunner) CommandExists(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return !r.missing[name]
}

// IsPrivileged returns the configured privilege state.
func (r *MockCommandRunner) IsPrivileged() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.privileged
}

func (r *MockCommandRunner) privilegedLine(preserveEnv bool, name string, args []string) string {
	line := commandLine(name, args)
	if r.IsPrivileged() {
		return line
	}

	if preserveEnv {
		return "sudo -E " + line
	}

	return "sudo " + line
}

func (r *MockCommandRunner) record(line string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.verbose {
		fmt.Printf("MOCK: Executing %s\n", line)
	}

	r.calls = append(r.calls, line)

	var output string

	if queued, ok := r.outputs[line]; ok && len(queued) > 0 {
		output = queued[0]
		if len(queued) > 1 {
			r.outputs[line] = queued[1:]
		}
	}

	for substr, err := range r.failures {
		if strings.Contains(line, substr) {
			return output, err
		}
	}

	return output, nil
}
