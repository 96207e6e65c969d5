package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/shareserver/internal/envelope"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Failure envelope, invalid config, server error
	ExitCommandError = 2 // Bad flags, unreadable config, database not openable
)

// ExitError is a command failure carrying the process exit code.
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

// GetExitCode extracts the exit code from err, ExitFailure when err carries
// none.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the document printed by --format json for commands that
// do not print an envelope.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error member of a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// printer writes command results to stdout and diagnostics to stderr.
type printer struct {
	json    bool
	out     io.Writer
	diag    io.Writer
	verbose bool
}

func newPrinter(opts *RootOptions, cmd *cobra.Command) *printer {
	return &printer{
		json:    opts.Format == "json",
		out:     cmd.OutOrStdout(),
		diag:    cmd.ErrOrStderr(),
		verbose: opts.Verbose,
	}
}

// ok prints data as a JSON response, or calls text for the human form.
func (p *printer) ok(data any, text func(w io.Writer) error) error {
	if p.json {
		return json.NewEncoder(p.out).Encode(CLIResponse{Status: "ok", Data: data})
	}
	return text(p.out)
}

// fail prints an error response. data, when set, is kept in the JSON form.
func (p *printer) fail(code, message string, data any) error {
	if p.json {
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{
			Status: "error",
			Data:   data,
			Error:  &CLIError{Code: code, Message: message},
		})
	}
	_, err := fmt.Fprintf(p.out, "Error [%s]: %s\n", code, message)
	return err
}

// debugf writes to stderr with --verbose only, so JSON output stays clean.
func (p *printer) debugf(format string, args ...any) {
	if p.verbose {
		fmt.Fprintf(p.diag, format+"\n", args...)
	}
}

// envelope prints env in its JSON wire form, or as a status line followed
// by the indented payload.
func (p *printer) envelope(env envelope.Envelope) error {
	if p.json {
		data, err := envelope.JSON.Encode(env)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.out, string(data))
		return err
	}

	if env.Success {
		fmt.Fprintf(p.out, "OK: %s\n", env.Message)
	} else {
		fmt.Fprintf(p.out, "FAILED [%s]: %s\n", env.ErrorCode, env.Message)
	}
	if env.Payload == nil {
		return nil
	}
	data, err := json.MarshalIndent(env.Payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = fmt.Fprintln(p.out, strings.TrimRight(string(data), "\n"))
	return err
}
