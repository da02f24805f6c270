package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"
)

// Environment variables that override flag defaults.
const (
	EnvFormat  = "QUILL_FORMAT"
	EnvVerbose = "QUILL_VERBOSE"
	EnvCatalog = "QUILL_CATALOG"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string   // "json" | "text"
	Catalog string   // directory of CUE user functions
	Globals []string // name:type pairs
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the quill CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "quill",
		Short: "quill - bind and reduce expressions",
		Long: `A developer tool for the quill expression compiler core.

Parses expressions, binds them against the builtin operators, declared
globals and CUE user functions, and reduces the bound tree.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(cmd, opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", env.Bool(EnvVerbose), "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", env.Str(EnvFormat, "text"), "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", env.Str(EnvCatalog), "directory of CUE user functions")
	cmd.PersistentFlags().StringArrayVar(&opts.Globals, "global", nil, "declare a global as name:type (repeatable)")

	cmd.AddCommand(NewBindCommand(opts))
	cmd.AddCommand(NewReduceCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// configureLogging installs a text handler on stderr. Verbose runs log at
// debug level.
func configureLogging(cmd *cobra.Command, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
