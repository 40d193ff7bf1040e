package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// kvq exits 0 on success, ExitFailure when the store or the query said no
// (a rejected filter, a failed scenario, a row that would not decode or
// insert) and ExitCommandError when the invocation itself was wrong.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitCommandError = 2
)

// ExitError carries the process exit code for a command failure.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError fails with code and a plain message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Err: errors.New(message)}
}

// WrapExitError fails with code, keeping err reachable through errors.Is/As.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Err: fmt.Errorf("%s: %w", message, err)}
}

// GetExitCode maps err to a process exit code. Errors that are not an
// ExitError, such as cobra's argument errors, exit with ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.Code
	}
	return ExitFailure
}

// Texter is implemented by every command result; it is the --format text
// rendering.
type Texter interface {
	Text() string
}

// CLIResponse is the --format json envelope.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is a reported failure. Code is a loader code such as E101 or a
// query validation code such as INVALID_FILTER_FIELD.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results and failures to stdout.
// Diagnostics go through the root command's slog logger on stderr instead.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool // text failures include their details
}

func newFormatter(opts *RootOptions, w io.Writer) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: w, Verbose: opts.Verbose}
}

// Success writes a command result.
func (f *OutputFormatter) Success(result Texter) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: result})
	}
	_, err := io.WriteString(f.Writer, result.Text())
	return err
}

// Error writes a failure as "Error [CODE]: message" or a JSON envelope.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	if _, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message); err != nil {
		return err
	}
	if f.Verbose && details != nil {
		_, err := fmt.Fprintf(f.Writer, "Details: %v\n", details)
		return err
	}
	return nil
}

// encode writes one JSON document. Comparators such as > and < stay
// readable.
func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}
