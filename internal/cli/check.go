package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/quill/internal/catalog"
)

// CheckResult holds the outcome of checking a catalog.
type CheckResult struct {
	Valid     bool                      `json:"valid"`
	Functions []string                  `json:"functions"`
	Errors    []catalog.ValidationError `json:"errors,omitempty"`
	Cycles    []catalog.CycleWarning    `json:"cycles,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <catalog-dir>",
		Short: "Validate a catalog of user functions",
		Long: `Load the CUE files of a catalog directory, validate every function,
deprecation and global, and report call cycles between functions.

Cycles are warnings: the binder rejects them when it expands a call, but a
catalog containing one is still loadable.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cat, loadErrors := catalog.Load(dir)
	if cat == nil {
		var loadErr *catalog.LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputCheckError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputCheckError(formatter, catalog.ErrCodeGeneric, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", cat.FileCount, dir)

	result := CheckResult{
		Functions: cat.Paths(),
		Errors:    toValidationErrors(loadErrors),
		Cycles:    catalog.AnalyzeCycles(cat),
	}
	result.Valid = len(result.Errors) == 0

	for _, path := range result.Functions {
		formatter.VerboseLog("Checked function: %s", path)
	}

	if !result.Valid {
		return outputCheckFailure(formatter, result)
	}
	return outputCheckSuccess(formatter, result)
}

// toValidationErrors flattens load and validation errors into one list.
func toValidationErrors(errs []error) []catalog.ValidationError {
	out := make([]catalog.ValidationError, 0, len(errs))
	for _, err := range errs {
		var ve catalog.ValidationError
		var loadErr *catalog.LoadError
		switch {
		case errors.As(err, &ve):
			out = append(out, ve)
		case errors.As(err, &loadErr):
			le := catalog.ValidationError{Field: "load", Message: loadErr.Message, Code: loadErr.Code}
			if loadErr.Pos.IsValid() {
				le.Line = loadErr.Pos.Line()
			}
			out = append(out, le)
		default:
			out = append(out, catalog.ValidationError{Field: "load", Message: err.Error(), Code: catalog.ErrCodeGeneric})
		}
	}
	return out
}

func outputCheckSuccess(formatter *OutputFormatter, result CheckResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Catalog valid (%d function(s))\n", len(result.Functions))
	writeCycles(formatter, result.Cycles)
	return nil
}

func outputCheckError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

func outputCheckFailure(formatter *OutputFormatter, result CheckResult) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))

	if formatter.Format == "json" {
		err := formatter.Encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    result.Errors[0].Code,
				Message: result.Errors[0].Message,
			},
		})
		if err != nil {
			return err
		}
		return exitErr
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, err := range result.Errors {
		if err.Line > 0 {
			fmt.Fprintf(w, "line %d\n", err.Line)
		}
		fmt.Fprintf(w, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	writeCycles(formatter, result.Cycles)
	return exitErr
}

func writeCycles(formatter *OutputFormatter, cycles []catalog.CycleWarning) {
	for _, c := range cycles {
		fmt.Fprintf(formatter.Writer, "%s: %s\n", c.Level, c.Message)
	}
}
