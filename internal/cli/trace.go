package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/choreo/internal/engine"
	"github.com/roach88/choreo/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Kind string // optional - filter to one history kind
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Instance     string                `json:"instance"`
	Label        string                `json:"label,omitempty"`
	Choreography string                `json:"choreography"`
	Render       string                `json:"render"`
	Running      bool                  `json:"running"`
	Ended        bool                  `json:"ended"`
	StartedAt    string                `json:"started_at,omitempty"`
	StoppedAt    string                `json:"stopped_at,omitempty"`
	Inputs       []string              `json:"inputs"`
	Outputs      []string              `json:"outputs"`
	History      []engine.HistoryEntry `json:"history"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <instance-id>",
		Short: "Show the history of a stored instance",
		Long: `Show a stored instance: its lifecycle, its input and output logs and
the enforcer history, one entry per step with the current states, the
buffer and the non-determinism factor.

Examples:
  choreo trace --db ./choreo.db 0192f0c4-...
  choreo trace --db ./choreo.db 0192f0c4-... --kind check
  choreo trace --db ./choreo.db 0192f0c4-... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	addDatabaseFlag(cmd, rootOpts, true)
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter history to one kind (start|input|check)")

	return cmd
}

func runTrace(opts *TraceOptions, id string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	if err := requireDatabase(formatter, opts.RootOptions); err != nil {
		return err
	}

	ctx := context.Background()
	st, err := store.Open(opts.Database)
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, "failed to open database", err)
	}
	defer st.Close()

	state, err := st.LoadInstance(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("instance %s not found", id), nil)
	}
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, "failed to load instance", err)
	}

	result := buildTraceResult(state, engine.HistoryKind(opts.Kind))
	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	outputTraceText(formatter, result)
	return nil
}

func buildTraceResult(state store.InstanceState, kind engine.HistoryKind) TraceResult {
	rec := state.Record
	history := make([]engine.HistoryEntry, 0, len(state.History))
	for _, h := range state.History {
		if kind == "" || h.Kind == kind {
			history = append(history, h)
		}
	}
	return TraceResult{
		Instance:     rec.ID,
		Label:        rec.Label,
		Choreography: rec.Choreography,
		Render:       rec.Render,
		Running:      rec.Running,
		Ended:        rec.Ended,
		StartedAt:    formatTimestamp(rec.StartedAt),
		StoppedAt:    formatTimestamp(rec.StoppedAt),
		Inputs:       nonNil(state.Inputs),
		Outputs:      nonNil(state.Outputs),
		History:      history,
	}
}

func outputTraceText(f *OutputFormatter, r TraceResult) {
	w := f.Writer
	fmt.Fprintf(w, "%s %s", f.Styles.Title.Render("instance"), r.Instance)
	if r.Label != "" {
		fmt.Fprintf(w, " (%s)", r.Label)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  choreography: %s\n", r.Choreography)
	fmt.Fprintf(w, "  render:       %s\n", r.Render)
	if r.StartedAt != "" {
		fmt.Fprintf(w, "  started:      %s\n", r.StartedAt)
	}
	if r.StoppedAt != "" {
		fmt.Fprintf(w, "  stopped:      %s\n", r.StoppedAt)
	}
	fmt.Fprintf(w, "  running: %t  ended: %t\n", r.Running, r.Ended)
	fmt.Fprintf(w, "  inputs:  %d  outputs: %d\n\n", len(r.Inputs), len(r.Outputs))

	fmt.Fprintln(w, f.Styles.Title.Render("history"))
	for _, h := range r.History {
		fmt.Fprintf(w, "  [%d] %-6s", h.Seq, h.Kind)
		if h.Event != "" {
			fmt.Fprintf(w, " in=%s", h.Event)
		}
		if h.Output != "" {
			fmt.Fprintf(w, " %s", f.Styles.OK.Render("out="+h.Output))
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "      %s\n", f.Styles.Muted.Render("states: "+strings.Join(h.States, " ")))
		if len(h.Buffer) > 0 {
			fmt.Fprintf(w, "      %s\n", f.Styles.Accent.Render("buffer: "+strings.Join(h.Buffer, " ")))
		}
		if h.NDFactor != 0 {
			fmt.Fprintf(w, "      nd factor: %g\n", h.NDFactor)
		}
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
