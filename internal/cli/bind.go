package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/roach88/quill/internal/binder"
	"github.com/roach88/quill/internal/ir"
	"github.com/roach88/quill/internal/reduce"
	"github.com/roach88/quill/internal/syntax"
)

// BindOptions holds flags for the bind and reduce commands.
type BindOptions struct {
	*RootOptions
	AllowVolatile   bool
	AllowProcedures bool
}

// DiagnosticOutput is a binder diagnostic in JSON form.
type DiagnosticOutput struct {
	Code       string `json:"code"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Suggestion string `json:"suggestion,omitempty"`
}

// WarningOutput is a reducer warning in JSON form.
type WarningOutput struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BindOutput is the result of binding, and optionally reducing, one
// expression.
type BindOutput struct {
	Expr        string             `json:"expr"`
	SessionID   string             `json:"session_id"`
	Type        string             `json:"type"`
	Bound       string             `json:"bound"`
	Reduced     string             `json:"reduced,omitempty"`
	Promotions  int                `json:"promotions,omitempty"`
	Diagnostics []DiagnosticOutput `json:"diagnostics"`
	Warnings    []WarningOutput    `json:"warnings,omitempty"`
}

// NewBindCommand creates the bind command.
func NewBindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bind <expr>",
		Short: "Bind an expression and print the typed tree",
		Long: `Parse and bind an expression against the builtin operators, the
declared globals and the catalog's user functions.

Exit codes:
  0 - Bound without errors
  1 - Binding reported errors
  2 - Command error (parse failure, bad catalog, bad --global)

Examples:
  quill bind "1 + 2"
  quill bind --global x:i8 "x * 2"
  quill bind --catalog ./functions "Clamp(x, 0, 10)" --global x:i8`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBind(opts, args[0], false, cmd)
		},
	}
	addBindFlags(cmd, opts)
	return cmd
}

// NewReduceCommand creates the reduce command.
func NewReduceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reduce <expr>",
		Short: "Bind and reduce an expression",
		Long: `Bind an expression, then run the rewrite engine over the bound tree
and print the reduced tree together with any reducer warnings.

Exit codes are the same as for bind. Reducer warnings never fail the run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBind(opts, args[0], true, cmd)
		},
	}
	addBindFlags(cmd, opts)
	return cmd
}

func addBindFlags(cmd *cobra.Command, opts *BindOptions) {
	cmd.Flags().BoolVar(&opts.AllowVolatile, "allow-volatile", false, "permit volatile calls such as Now()")
	cmd.Flags().BoolVar(&opts.AllowProcedures, "allow-procedures", false, "permit procedures such as Print()")
}

func runBind(opts *BindOptions, src string, withReduce bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	sess, code, err := newSession(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, code, err)
	}

	expr, err := syntax.Parse(src)
	if err != nil {
		var details []string
		var list syntax.ErrorList
		if errors.As(err, &list) {
			details = lo.Map(list, func(e *syntax.Error, _ int) string { return e.Error() })
		}
		_ = formatter.Error(ErrCodeParse, "expression does not parse", details)
		return WrapExitError(ExitCommandError, ErrCodeParse, err)
	}

	result := binder.Bind(expr, sess.options(opts.AllowVolatile, opts.AllowProcedures)...)
	formatter.VerboseLog("session %s: %d diagnostic(s), %d promotion(s)", result.SessionID, len(result.Diagnostics), result.Promotions)

	out := BindOutput{
		Expr:        src,
		SessionID:   result.SessionID,
		Type:        result.Root.Type().String(),
		Bound:       ir.Dump(result.Root),
		Promotions:  result.Promotions,
		Diagnostics: lo.Map(result.Diagnostics, func(d binder.Diagnostic, _ int) DiagnosticOutput { return diagnosticOutput(d) }),
	}

	if withReduce {
		var warnings reduce.Collector
		out.Reduced = ir.Dump(reduce.Reduce(result.Root, &warnings))
		out.Warnings = lo.Map(warnings.Warnings, func(w reduce.Warning, _ int) WarningOutput {
			return WarningOutput{Code: string(w.Code), Message: w.Message}
		})
	}

	if err := outputBind(formatter, out, result.HasErrors()); err != nil {
		return err
	}
	if result.HasErrors() {
		return NewExitError(ExitFailure, fmt.Sprintf("binding failed with %d error(s)", len(result.Errors())))
	}
	return nil
}

func diagnosticOutput(d binder.Diagnostic) DiagnosticOutput {
	return DiagnosticOutput{
		Code:       string(d.Code),
		Severity:   d.Severity.String(),
		Message:    d.Message,
		Start:      d.Range.Start,
		End:        d.Range.End,
		Suggestion: d.Suggestion,
	}
}

func outputBind(formatter *OutputFormatter, out BindOutput, failed bool) error {
	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: out}
		if failed {
			first, _ := lo.Find(out.Diagnostics, func(d DiagnosticOutput) bool { return d.Severity == "error" })
			resp.Status = "error"
			resp.Error = &CLIError{Code: first.Code, Message: first.Message}
		}
		return formatter.Encode(resp)
	}

	writeBindText(formatter.Writer, out)
	return nil
}

func writeBindText(w io.Writer, out BindOutput) {
	fmt.Fprintf(w, "type:    %s\n", out.Type)
	fmt.Fprintf(w, "bound:   %s\n", out.Bound)
	if out.Reduced != "" {
		fmt.Fprintf(w, "reduced: %s\n", out.Reduced)
	}
	for _, d := range out.Diagnostics {
		line := fmt.Sprintf("%s %s [%d:%d]: %s", d.Severity, d.Code, d.Start, d.End, d.Message)
		if d.Suggestion != "" {
			line += fmt.Sprintf(" (did you mean %s?)", d.Suggestion)
		}
		fmt.Fprintln(w, line)
	}
	for _, warn := range out.Warnings {
		fmt.Fprintf(w, "warning %s: %s\n", warn.Code, warn.Message)
	}
}
