// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

// Package console writes operator-facing output: progress on stderr,
// results on stdout.
package console

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"strings"

	"golang.org/x/term"
)

// OutputState holds global output configuration.
type OutputState struct {
	Verbose bool
	JSON    bool
	Plain   bool

	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultOutput provides output formatting utilities.
var DefaultOutput = &OutputState{} //nolint:gochecknoglobals

// NewOutput creates an output state writing to the given streams.
func NewOutput(stdout, stderr io.Writer) *OutputState {
	return &OutputState{Stdout: stdout, Stderr: stderr}
}

// SetMode configures output mode.
func (o *OutputState) SetMode(verbose, json, plain bool) {
	o.Verbose = verbose
	o.JSON = json
	o.Plain = plain
}

func (o *OutputState) stdout() io.Writer {
	if o.Stdout != nil {
		return o.Stdout
	}

	return os.Stdout
}

func (o *OutputState) stderr() io.Writer {
	if o.Stderr != nil {
		return o.Stderr
	}

	return os.Stderr
}

// IsTTY checks if w is a terminal (not piped/redirected).
func (o *OutputState) IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

// Styled reports whether decorated output should be written to stdout.
func (o *OutputState) Styled() bool {
	if o.JSON || o.Plain {
		return false
	}

	// Check no-color.org standards
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}

	return o.IsTTY(o.stdout())
}

// Bold formats text with bold when in TTY, uppercase when piped.
func (o *OutputState) Bold(text string) string {
	if o.JSON || o.Plain {
		return text
	}

	if o.Styled() {
		return "\033[1m" + text + "\033[0m"
	}

	// Fallback for pipes/redirects - use uppercase
	return strings.ToUpper(text)
}

// Header formats section headers consistently.
func (o *OutputState) Header(text string) string {
	return o.Bold(text)
}

// Progressf writes progress messages to stderr (only if verbose and not JSON/Plain).
func (o *OutputState) Progressf(format string, args ...any) {
	if o.Verbose && !o.JSON && !o.Plain {
		_, _ = fmt.Fprintf(o.stderr(), format+"\n", args...)
	}
}

// Stepf announces a provisioning step on stderr unless output is machine-readable.
func (o *OutputState) Stepf(format string, args ...any) {
	if !o.JSON && !o.Plain {
		_, _ = fmt.Fprintf(o.stderr(), "→ "+format+"\n", args...)
	}
}

// Successf writes success messages to stderr (only if not JSON/Plain).
func (o *OutputState) Successf(format string, args ...any) {
	if !o.JSON && !o.Plain {
		_, _ = fmt.Fprintf(o.stderr(), "✓ "+format+"\n", args...)
	}
}

// Warningf writes warning messages to stderr (always visible).
func (o *OutputState) Warningf(format string, args ...any) {
	if o.Plain {
		_, _ = fmt.Fprintf(o.stderr(), "warning: "+format+"\n", args...)
	} else {
		_, _ = fmt.Fprintf(o.stderr(), "⚠ "+format+"\n", args...)
	}
}

// Errorf writes error messages to stderr (always visible).
func (o *OutputState) Errorf(format string, args ...any) {
	if o.Plain {
		_, _ = fmt.Fprintf(o.stderr(), "error: "+format+"\n", args...)
	} else {
		_, _ = fmt.Fprintf(o.stderr(), "✗ "+format+"\n", args...)
	}
}

// Result writes command results to stdout (machine-readable primary output).
func (o *OutputState) Result(data any) {
	_, _ = fmt.Fprintf(o.stdout(), "%v\n", data)
}

// JSONResult writes structured JSON results to stdout.
func (o *OutputState) JSONResult(status string, data map[string]any) {
	result := map[string]any{
		"status": status,
	}
	maps.Copy(result, data)

	encoder := json.NewEncoder(o.stdout())
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(result); err != nil {
		_, _ = fmt.Fprintf(o.stderr(), "error encoding JSON: %v\n", err)
	}
}

// SuccessResult outputs success result to stdout with optional stderr message.
func (o *OutputState) SuccessResult(result any, message string) {
	if !o.JSON && !o.Plain && message != "" {
		o.Successf("%s", message)
	}

	if o.JSON {
		o.JSONResult("success", map[string]any{"result": result})
	} else {
		o.Result(result)
	}
}

// ErrorResult outputs an error, as JSON on stdout when requested.
func (o *OutputState) ErrorResult(err error, code int) {
	if o.JSON {
		o.JSONResult("error", map[string]any{
			"error": err.Error(),
			"code":  code,
		})
	}

	o.Errorf("%s", err.Error())
}

// PlainKeyValue outputs key:value pairs for machine parsing.
func (o *OutputState) PlainKeyValue(key, value string) {
	_, _ = fmt.Fprintf(o.stdout(), "%s:%s\n", key, value)
}
