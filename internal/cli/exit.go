// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/janderssonse/clawdhost/internal/domain"
)

// Exit codes follow Unix conventions; 126+ have special meaning in shells.
const (
	ExitSuccess         = 0  // Run completed, health warnings included
	ExitGeneralError    = 1  // Generic failure (catch-all)
	ExitUsageError      = 2  // Invalid command line usage
	ExitConfigError     = 3  // Precondition failed: configuration or platform
	ExitPermissionError = 4  // Privilege escalation failed
	ExitLockedError     = 5  // Another run holds the host lock
	ExitNetworkError    = 11 // Download failed
	ExitSystemError     = 12 // A provisioning step failed
	ExitInterruptError  = 14 // Interrupted (Ctrl+C)
)

// ExitError carries the exit code and the operator message of a failure.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

// NewExitError creates an ExitError with the specified code and message.
func NewExitError(code int, message string, err error) *ExitError {
	return &ExitError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitErrorFor classifies err. Preconditions get a one-line cause;
// provisioning failures keep the tool's own diagnostics and a hint.
func exitErrorFor(err error) *ExitError {
	if err == nil {
		return nil
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewExitError(ExitInterruptError, interruptMessage(err), err)
	}

	message := err.Error()
	if hint := domain.Hint(err); hint != "" {
		message += "\nhint: " + hint
	}

	switch {
	case domain.KindOf(err) == domain.KindPrecondition:
		return NewExitError(ExitConfigError, firstLine(err.Error()), err)
	case errors.Is(err, domain.ErrDownloadFailed):
		return NewExitError(ExitNetworkError, message, err)
	case domain.Hint(err) == domain.HintPermission:
		return NewExitError(ExitPermissionError, message, err)
	default:
		return NewExitError(ExitSystemError, message, err)
	}
}

// exitErrorForRun classifies the outcome of work done under ctx. A cancelled
// or expired ctx takes precedence over the error it caused, which is often
// only a killed child process.
func exitErrorForRun(ctx context.Context, err error) *ExitError {
	cause := ctx.Err()
	if cause == nil {
		return exitErrorFor(err)
	}

	if err != nil {
		cause = fmt.Errorf("%w: %w", cause, err)
	}

	return NewExitError(ExitInterruptError, interruptMessage(cause), cause)
}

func interruptMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out; re-run to converge"
	}

	return "interrupted; re-run to converge"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}

	return s
}
