package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for tbmsctl.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // The operation ran and failed
	ExitCommandError = 2 // Bad flags, configuration or input files
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code for err. Errors that are not an
// ExitError map to ExitFailure.
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

// output writes command results as text or JSON.
type output struct {
	format string
	w      io.Writer
}

func newOutput(opts *RootOptions, w io.Writer) *output {
	return &output{format: opts.Format, w: w}
}

// result prints data as indented JSON, or calls text for the text format.
func (o *output) result(data any, text func(w io.Writer)) error {
	if o.format == "json" {
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	text(o.w)
	return nil
}
