package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/extvars/internal/engine"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected operation, failed check, replay mismatch
	ExitCommandError = 2 // Command error (bad flags, unreadable files, database errors)
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string // Error message
	Err     error  // Underlying error (optional)

	reported bool
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

// Reported reports whether err was already written by an OutputFormatter.
func Reported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.reported
}

// engineExit maps an engine error to an exit code. Rejected operations are
// failures; host and persistence problems are command errors.
func engineExit(message string, err error) *ExitError {
	var ee *engine.Error
	if errors.As(err, &ee) {
		switch ee.Code {
		case engine.ErrCodeHostUnavailable, engine.ErrCodePersistence:
			return WrapExitError(ExitCommandError, message, err)
		}
	}
	return WrapExitError(ExitFailure, message, err)
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // warnings; defaults to Writer
}

// Response is the JSON envelope of every command.
type Response struct {
	Status   string     `json:"status"` // "ok" or "error"
	Data     any        `json:"data,omitempty"`
	Error    *ErrorBody `json:"error,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
}

// ErrorBody is the error part of a Response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
	}
}

// Emit writes data as a JSON envelope, or calls text to render it.
func (f *OutputFormatter) Emit(data any, text func(w io.Writer), warnings ...string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data, Warnings: warnings})
	}
	for _, w := range warnings {
		fmt.Fprintf(f.errWriter(), "warning: %s\n", w)
	}
	text(f.Writer)
	return nil
}

// Fail reports err in the configured format and returns it as an ExitError.
func (f *OutputFormatter) Fail(exit *ExitError) error {
	body := &ErrorBody{Code: "ERROR", Message: exit.Error()}
	var ee *engine.Error
	if errors.As(exit, &ee) {
		body.Code = string(ee.Code)
		body.Message = ee.Message
		body.ID = string(ee.ID)
	}

	if f.Format == "json" {
		if err := json.NewEncoder(f.Writer).Encode(Response{Status: "error", Error: body}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(f.errWriter(), "Error [%s]: %s\n", body.Code, exit.Error())
	}
	exit.reported = true
	return exit
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
