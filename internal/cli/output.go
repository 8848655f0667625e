package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a translation, check case or replay failed
	ExitCommandError = 2 // bad flags, unreadable input, invalid config
)

// ExitError carries the exit code a command wants the process to end with.
type ExitError struct {
	Code    int
	Message string
	Err     error

	// Reported marks a failure the command already wrote to its output;
	// main exits without printing it again.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError with no underlying cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

func reportedError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err, Reported: true}
}

// GetExitCode maps a command error to a process exit code. Errors that
// are not ExitErrors come from cobra's flag and argument parsing.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// IsReported reports whether err was already written to the command output.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

const (
	statusOK    = "ok"
	statusError = "error"
)

// CLIResponse is the envelope written by --format json.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the failure inside a CLIResponse. Code is a sqlerr code
// (E_PARSE, E_RENDER, ...) or one of the ErrCode constants.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results in the format picked by --format.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Success writes data as a CLIResponse, or with its default text
// formatting.
func (f *OutputFormatter) Success(data any) error {
	if f.Format != "json" {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return f.encode(CLIResponse{Status: statusOK, Data: data})
}

// Failure writes data together with the error that failed the command and
// returns a reported ExitFailure. Partial results stay in data so a caller
// can still read the renderings that succeeded.
func (f *OutputFormatter) Failure(data any, cliErr CLIError, cause error) error {
	if err := f.encode(CLIResponse{Status: statusError, Data: data, Error: &cliErr}); err != nil {
		return err
	}
	return reportedError(ExitFailure, cliErr.Message, cause)
}

// encode writes indented JSON. Request paths keep their & and < > as is.
func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}
