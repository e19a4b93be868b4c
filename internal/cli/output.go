package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/pointoforder/internal/config"
	"github.com/roach88/pointoforder/internal/puzzle"
	"github.com/roach88/pointoforder/internal/rules"
	"github.com/roach88/pointoforder/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Runtime failure (scenarios failed, generation gave up, session aborted)
	ExitCommandError = 2 // Command error (bad serial, unreadable config, missing database)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// Error codes for failures that carry no code of their own. Config
// failures report their C0xx code and generation failures their category.
const (
	CodeCommand        = "E_COMMAND"
	CodeFailure        = "E_FAILURE"
	CodeInvalidSerial  = "E_INVALID_SERIAL"
	CodeUnknownSession = "E_UNKNOWN_SESSION"
)

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // C004, E_INVALID_SERIAL, ...
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// JSON reports whether output is machine-readable.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Fail reports err as an error envelope when output is JSON and returns err
// unchanged, so the exit code still comes from it. Text output is left to
// the caller.
func (f *OutputFormatter) Fail(err error) error {
	if err == nil || !f.JSON() {
		return err
	}
	message := err.Error()
	details := map[string]any{}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		message = exitErr.Message
		if exitErr.Err != nil {
			details["cause"] = exitErr.Err.Error()
		}
	}

	var cfgErr *config.Error
	var genErr *puzzle.GenerationError
	switch {
	case errors.As(err, &cfgErr):
		if cfgErr.Field != "" {
			details["field"] = cfgErr.Field
		}
		if cfgErr.Path != "" {
			details["path"] = cfgErr.Path
		}
	case errors.As(err, &genErr):
		details["attempts"] = genErr.Attempts
	}

	var extra any
	if len(details) > 0 {
		extra = details
	}
	if encErr := f.Error(errorCode(err), message, extra); encErr != nil {
		return errors.Join(err, encErr)
	}
	return err
}

// errorCode picks the most specific code err carries.
func errorCode(err error) string {
	var cfgErr *config.Error
	var genErr *puzzle.GenerationError
	switch {
	case errors.As(err, &cfgErr):
		return cfgErr.Code
	case errors.As(err, &genErr):
		return "E_" + string(genErr.Code)
	case errors.Is(err, rules.ErrInvalidSerial):
		return CodeInvalidSerial
	case errors.Is(err, store.ErrNotFound):
		return CodeUnknownSession
	case GetExitCode(err) == ExitCommandError:
		return CodeCommand
	default:
		return CodeFailure
	}
}
