package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/shareserver/internal/config"
)

// Validation error codes.
const (
	ErrCodeConfigUnreadable = "E001"
	ErrCodeConfigInvalid    = "E002"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Path   string            `json:"path,omitempty"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one reported configuration problem.
type ValidationIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a config file without starting the server",
		Long: `Load a YAML or CUE config file, apply SHARESERVER_* environment
overrides and check the result against the config schema.

Without an argument the --config file is validated; with neither, the
defaults plus environment are checked.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Config
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := newPrinter(opts, cmd)
	out.debugf("Validating config %q", path)

	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			_ = out.fail(ErrCodeConfigUnreadable, err.Error(), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", ErrCodeConfigUnreadable, err))
		}
		return reportIssues(out, path, []ValidationIssue{issueFromError(err)})
	}

	out.debugf("Listen %s, database %s, %d token(s)", cfg.Listen, cfg.Database, len(cfg.Tokens))
	return out.ok(ValidationResult{Valid: true, Path: path}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, "✓ Config valid")
		return err
	})
}

func issueFromError(err error) ValidationIssue {
	var verr *config.ValidationError
	if errors.As(err, &verr) {
		return ValidationIssue{
			Field:   verr.Path,
			Message: verr.Message,
			Code:    ErrCodeConfigInvalid,
			Line:    verr.Line,
		}
	}
	return ValidationIssue{Message: err.Error(), Code: ErrCodeConfigInvalid}
}

// reportIssues prints schema violations and returns the validation failure.
func reportIssues(out *printer, path string, issues []ValidationIssue) error {
	failed := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))

	if out.json {
		result := ValidationResult{Valid: false, Path: path, Errors: issues}
		if err := out.fail(issues[0].Code, issues[0].Message, result); err != nil {
			return err
		}
		return failed
	}

	fmt.Fprintln(out.out, "✗ Validation failed")
	fmt.Fprintln(out.out)
	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(out.out, "line %d\n", issue.Line)
		}
		if issue.Field != "" {
			fmt.Fprintf(out.out, "  %s: %s: %s\n\n", issue.Code, issue.Field, issue.Message)
		} else {
			fmt.Fprintf(out.out, "  %s: %s\n\n", issue.Code, issue.Message)
		}
	}
	return failed
}
