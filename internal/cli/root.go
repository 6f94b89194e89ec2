package cli

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/choreo/internal/engine"
)

// RootOptions holds global flags for all commands. Per-command flags that
// a config file can also set (database, render, history limit) live here
// too so that the file can fill them in.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Color      bool

	Database     string
	Render       string
	HistoryLimit int

	// Logger is installed by the root command before any subcommand runs.
	Logger *slog.Logger

	// IDGenerator allows overriding instance ids (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator engine.IDGenerator

	// Now allows overriding instance timestamps (for testing).
	Now func() time.Time
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the choreo CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "choreo",
		Short: "choreo - choreography conformance",
		Long: `Compile BPMN choreographies into automata and check running
instances against them.

A choreography is compiled to a regular expression over its tasks and
then to a non-deterministic automaton. Observed message events are fed
to an enforcer that passes sends through, accepts enabled receives and
buffers the rest until the choreography allows them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.ConfigPath != "" {
				cfg, err := LoadConfig(opts.ConfigPath)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to load config", err)
				}
				cfg.apply(cmd, opts)
			}
			opts.Logger = newLogger(cmd, opts.Verbose)
			slog.SetDefault(opts.Logger)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().BoolVar(&opts.Color, "color", false, "colored text output")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewMatchCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewFeedCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// newLogger writes text logs to the command's stderr: Info by default,
// Debug with --verbose.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// formatter builds the output formatter of a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
		Styles:    NewStyles(o.Color),
	}
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *RootOptions) engineConfig() engine.Config {
	return engine.Config{
		HistoryLimit: o.HistoryLimit,
		Logger:       o.logger(),
		Now:          o.Now,
	}
}

func (o *RootOptions) idGenerator() engine.IDGenerator {
	if o.IDGenerator != nil {
		return o.IDGenerator
	}
	return engine.UUIDv7Generator{}
}

// addDatabaseFlag registers --db on cmd, bound to the shared option.
func addDatabaseFlag(cmd *cobra.Command, opts *RootOptions, required bool) {
	usage := "path to SQLite database"
	if required {
		usage += " (required, or set database in --config)"
	}
	cmd.Flags().StringVar(&opts.Database, "db", "", usage)
}

// addRenderFlag registers --render on cmd, bound to the shared option.
func addRenderFlag(cmd *cobra.Command, opts *RootOptions) {
	cmd.Flags().StringVar(&opts.Render, "render", "", "task renderer (name|receive, default name)")
}

// requireDatabase reports a missing --db as a command error.
func requireDatabase(f *OutputFormatter, opts *RootOptions) error {
	if opts.Database == "" {
		return commandError(f, ErrCodeDatabase, "no database: pass --db or set database in --config", nil)
	}
	return nil
}
