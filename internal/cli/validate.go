package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/choreo/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Path   string                     `json:"path"`
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <definition>",
		Short: "Validate a choreography without compiling it",
		Long: `Validate a choreography definition without compiling it.

Checks names, identifiers, flow endpoints, task references and cycles
and reports every problem with its code (E101-E109) and, where known,
its source line.

Exit codes:
  0 - Definition is valid
  1 - Validation errors found
  2 - Command error (unreadable or unparsable file)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	src, err := loadSource(formatter, path)
	if err != nil {
		return err
	}

	errs := src.Validate()
	if len(errs) > 0 {
		writeValidationErrors(formatter, path, errs)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	if formatter.IsJSON() {
		return formatter.Success(ValidationResult{Path: path, Valid: true})
	}
	formatter.OK("%s is valid", path)
	return nil
}
