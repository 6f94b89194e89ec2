package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/choreo/internal/engine"
	"github.com/roach88/choreo/internal/store"
)

// ReplayInstanceResult holds the replay result for a single instance.
type ReplayInstanceResult struct {
	Instance   string   `json:"instance"`
	Inputs     int      `json:"inputs"`
	Outputs    []string `json:"outputs"`
	Recorded   []string `json:"recorded"`
	Divergence int      `json:"divergence"`
	Identical  bool     `json:"identical"`
	Ended      bool     `json:"ended"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Instances    []ReplayInstanceResult `json:"instances"`
	Total        int                    `json:"total"`
	AllIdentical bool                   `json:"all_identical"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [instance-id]",
		Short: "Replay stored inputs and verify the outputs",
		Long: `Rebuild stored instances from their input logs and verify that the
recorded outputs are reproduced exactly.

Without an instance id every stored instance is replayed.

Exit codes:
  0 - All replays reproduced the recorded outputs
  1 - At least one replay diverged
  2 - Command error (database not found, etc.)

Examples:
  choreo replay --db ./choreo.db
  choreo replay --db ./choreo.db 0192f0c4-...
  choreo replay --db ./choreo.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, args, cmd)
		},
	}

	addDatabaseFlag(cmd, rootOpts, true)

	return cmd
}

func runReplay(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	if err := requireDatabase(formatter, opts); err != nil {
		return err
	}

	ctx := context.Background()
	st, err := store.Open(opts.Database)
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, "failed to open database", err)
	}
	defer st.Close()

	var ids []string
	if len(args) == 1 {
		ids = args
	} else {
		recs, err := st.ListInstances(ctx)
		if err != nil {
			return commandError(formatter, ErrCodeDatabase, "failed to list instances", err)
		}
		for _, rec := range recs {
			ids = append(ids, rec.ID)
		}
	}

	result := ReplayResult{
		Instances:    make([]ReplayInstanceResult, 0, len(ids)),
		Total:        len(ids),
		AllIdentical: true,
	}
	cfg := engine.Config{Logger: opts.logger()}
	for _, id := range ids {
		res, err := st.Replay(ctx, id, cfg)
		if errors.Is(err, store.ErrNotFound) {
			return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("instance %s not found", id), nil)
		}
		if err != nil {
			return commandError(formatter, ErrCodeDatabase, fmt.Sprintf("failed to replay instance %s", id), err)
		}
		row := ReplayInstanceResult{
			Instance:   id,
			Inputs:     countInputs(res.Enforcer.History()),
			Outputs:    nonNil(res.Outputs),
			Recorded:   nonNil(res.Recorded),
			Divergence: res.Divergence,
			Identical:  res.Identical(),
			Ended:      res.Ended,
		}
		result.Instances = append(result.Instances, row)
		if !row.Identical {
			result.AllIdentical = false
		}
	}

	if formatter.IsJSON() {
		if !result.AllIdentical {
			_ = formatter.Failure(ErrCodeDiverged, "replay diverged", result)
			return NewExitError(ExitFailure, "replay diverged")
		}
		return formatter.Success(result)
	}
	return outputReplayText(formatter, result)
}

func outputReplayText(f *OutputFormatter, result ReplayResult) error {
	w := f.Writer
	if result.Total == 0 {
		fmt.Fprintln(w, "No instances found in database.")
		return nil
	}

	for _, r := range result.Instances {
		if r.Identical {
			f.OK("%s: %d outputs reproduced", r.Instance, len(r.Outputs))
			continue
		}
		fmt.Fprintln(w, f.Styles.Fail.Render(fmt.Sprintf("✗ %s: diverged at output %d", r.Instance, r.Divergence)))
		fmt.Fprintf(w, "  replayed: %v\n", r.Outputs)
		fmt.Fprintf(w, "  recorded: %v\n", r.Recorded)
	}

	fmt.Fprintln(w)
	if !result.AllIdentical {
		fmt.Fprintln(w, f.Styles.Fail.Render("✗ Replay diverged"))
		return NewExitError(ExitFailure, "replay diverged")
	}
	fmt.Fprintf(w, "%s\n", f.Styles.OK.Render(fmt.Sprintf("✓ All %d instance(s) reproduced", result.Total)))
	return nil
}

func countInputs(history []engine.HistoryEntry) int {
	n := 0
	for _, h := range history {
		if h.Kind == engine.HistoryInput {
			n++
		}
	}
	return n
}
