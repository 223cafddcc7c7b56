package errors

import (
	"errors"
	"fmt"
	"time"
)

// ServerError is the base interface for all errors raised by the server.
type ServerError interface {
	error
	IsServerError() bool
}

// Compile-time verification that all error types implement ServerError.
var (
	_ ServerError = (*CLINotFoundError)(nil)
	_ ServerError = (*CLIConnectionError)(nil)
	_ ServerError = (*ProcessError)(nil)
	_ ServerError = (*TimeoutError)(nil)
	_ ServerError = (*MissingArgumentError)(nil)
	_ ServerError = (*ToolError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrMissingConfig indicates a required configuration value is absent.
	ErrMissingConfig = errors.New("missing required configuration")

	// ErrRunnerClosed indicates the process runner has been shut down.
	ErrRunnerClosed = errors.New("process runner closed")

	// ErrUnknownTool indicates the requested tool is not in the catalogue.
	ErrUnknownTool = errors.New("unknown tool")
)

// CLINotFoundError indicates the Claude CLI binary could not be resolved.
type CLINotFoundError struct {
	Path   string
	Reason string
}

func (e *CLINotFoundError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("claude CLI not found at %q: %s", e.Path, e.Reason)
	}

	return fmt.Sprintf("claude CLI not found at %q", e.Path)
}

// IsServerError implements ServerError.
func (e *CLINotFoundError) IsServerError() bool { return true }

// CLIConnectionError indicates the CLI process could not be spawned.
type CLIConnectionError struct {
	Err error
}

func (e *CLIConnectionError) Error() string {
	return fmt.Sprintf("failed to start CLI: %v", e.Err)
}

func (e *CLIConnectionError) Unwrap() error {
	return e.Err
}

// IsServerError implements ServerError.
func (e *CLIConnectionError) IsServerError() bool { return true }

// ProcessError indicates the CLI process ran but exited with a non-zero code.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("CLI process failed (exit %d): %s", e.ExitCode, e.Stderr)
	}

	if e.Err != nil {
		return fmt.Sprintf("CLI process failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("CLI process failed (exit %d)", e.ExitCode)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsServerError implements ServerError.
func (e *ProcessError) IsServerError() bool { return true }

// TimeoutError indicates the CLI process exceeded its time budget and was killed.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("CLI process timed out after %s", e.Timeout)
}

// IsServerError implements ServerError.
func (e *TimeoutError) IsServerError() bool { return true }

// MissingArgumentError indicates a required tool argument was absent or empty.
type MissingArgumentError struct {
	Tool     string
	Argument string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("tool %s: missing required argument %q", e.Tool, e.Argument)
}

// IsServerError implements ServerError.
func (e *MissingArgumentError) IsServerError() bool { return true }

// Code classifies a ToolError for the protocol boundary.
type Code int

const (
	// CodeNotFound reports an unknown tool name.
	CodeNotFound Code = iota + 1
	// CodeInternal reports any failure while building or running a tool.
	CodeInternal
)

func (c Code) String() string {
	switch c {
	case CodeNotFound:
		return "not_found"
	case CodeInternal:
		return "internal_error"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// ToolError is the only error shape returned across the dispatcher boundary.
type ToolError struct {
	Code    Code
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// IsServerError implements ServerError.
func (e *ToolError) IsServerError() bool { return true }

// NotFound builds a ToolError for an unknown tool name.
func NotFound(tool string) *ToolError {
	return &ToolError{
		Code:    CodeNotFound,
		Message: "Unknown tool: " + tool,
		Err:     ErrUnknownTool,
	}
}

// Internal wraps err into a ToolError that keeps the original message.
func Internal(tool string, err error) *ToolError {
	return &ToolError{
		Code:    CodeInternal,
		Message: fmt.Sprintf("Error executing %s: %v", tool, err),
		Err:     err,
	}
}
