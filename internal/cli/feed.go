package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/choreo/internal/engine"
	"github.com/roach88/choreo/internal/store"
)

// FeedOptions holds flags for the feed command.
type FeedOptions struct {
	*RootOptions
	EventsFile string
	Stop       bool
	ExpectEnd  bool
}

// NewFeedCommand creates the feed command.
func NewFeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "feed <instance-id> [events...]",
		Short: "Feed more events to a stored running instance",
		Long: `Continue a stored instance that is still running (see run --keep-open).

The instance is restored by replaying its stored inputs, then the new
events are processed until the choreography ends and the instance is
saved again. --stop stops the instance afterwards.

Exit codes:
  0 - Events processed
  1 - --expect-end given and the choreography did not end
  2 - Command error (instance not found, instance stopped, etc.)

Examples:
  choreo feed --db ./choreo.db 0192f0c4-... Customer?refusal
  choreo feed --db ./choreo.db 0192f0c4-... --events-file more.txt --stop`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.EventsFile, "events-file", "", "file of event streams, one per line")
	cmd.Flags().BoolVar(&opts.Stop, "stop", false, "stop the instance after feeding")
	cmd.Flags().BoolVar(&opts.ExpectEnd, "expect-end", false, "exit 1 unless the choreography ends")
	cmd.Flags().IntVar(&rootOpts.HistoryLimit, "history-limit", 0, "keep at most this many history entries (0 = all)")
	addDatabaseFlag(cmd, rootOpts, true)

	return cmd
}

func runFeed(opts *FeedOptions, id string, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	if err := requireDatabase(formatter, opts.RootOptions); err != nil {
		return err
	}

	events := args
	if opts.EventsFile != "" {
		fileEvents, err := readEventsFile(opts.EventsFile)
		if err != nil {
			return commandError(formatter, ErrCodeLoad, "failed to read events file", err)
		}
		events = append(events, fileEvents...)
	}

	ctx := context.Background()
	st, err := store.Open(opts.Database)
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, "failed to open database", err)
	}
	defer st.Close()

	rec, err := st.ReadInstance(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("instance %s not found", id), nil)
	}
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, "failed to read instance", err)
	}

	inst, err := st.Restore(ctx, id, opts.engineConfig())
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, "failed to restore instance", err)
	}
	if !inst.Running {
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("instance %s is stopped", id), engine.ErrNotRunning)
	}
	formatter.VerboseLog("Restored %s: %d inputs, %d outputs", id, len(inst.Inputs), len(inst.Outputs))

	before := len(inst.Outputs)
	for _, ev := range events {
		if inst.Ended() {
			break
		}
		if _, err := inst.Feed(ev); err != nil {
			return commandError(formatter, ErrCodeGeneric, "failed to feed event", err)
		}
	}
	if !formatter.IsJSON() {
		for _, out := range inst.Outputs[before:] {
			fmt.Fprintln(formatter.Writer, formatter.Styles.Accent.Render("→ ")+out)
		}
	}
	if opts.Stop {
		if err := inst.Stop(); err != nil {
			return commandError(formatter, ErrCodeGeneric, "failed to stop instance", err)
		}
	}

	if err := st.SaveInstance(ctx, inst, store.InstanceOptions{
		Render:          rec.Render,
		StrictInclusive: rec.StrictInclusive,
	}); err != nil {
		return commandError(formatter, ErrCodeDatabase, "failed to save instance", err)
	}

	result := newRunResult(inst)
	result.Saved = true
	return writeRunResult(formatter, result, opts.ExpectEnd)
}
