package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/choreo/internal/engine"
	"github.com/roach88/choreo/internal/ir"
	"github.com/roach88/choreo/internal/nfa"
	"github.com/roach88/choreo/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	EventsFile      string
	Label           string
	StrictInclusive bool
	ExpectEnd       bool
	KeepOpen        bool
}

// RunResult is the outcome of running or feeding an instance.
type RunResult struct {
	Instance string   `json:"instance"`
	Outputs  []string `json:"outputs"`
	Consumed int      `json:"consumed"`
	Ended    bool     `json:"ended"`
	Buffer   []string `json:"buffer"`
	Running  bool     `json:"running"`
	Saved    bool     `json:"saved"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <definition> [events...]",
		Short: "Run an instance over observed events",
		Long: `Create a running instance of a choreography and feed it events.

Each argument after the definition is one event. With --events-file each
line of the file is a space-separated event stream (single quotes group
tokens containing spaces; blank lines and lines starting with # are
skipped). Events are processed in order until the choreography ends;
later events are not consumed.

Sends (actor!message) pass through. Receives (actor?message) are
accepted when the choreography allows them and buffered otherwise.

With --db the definition and the instance are persisted for trace,
replay and feed. --keep-open leaves the instance running so that feed
can continue it.

Exit codes:
  0 - Events processed
  1 - --expect-end given and the choreography did not end
  2 - Command error

Examples:
  choreo run delivery.cue --render receive Pizza_Place?pizza_order Customer?refusal
  choreo run delivery.cue --render receive --events-file events.txt --db choreo.db`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstance(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.EventsFile, "events-file", "", "file of event streams, one per line")
	cmd.Flags().StringVar(&opts.Label, "label", "", "instance label")
	cmd.Flags().BoolVar(&opts.StrictInclusive, "strict-inclusive", false, "require at least one inclusive branch")
	cmd.Flags().BoolVar(&opts.ExpectEnd, "expect-end", false, "exit 1 unless the choreography ends")
	cmd.Flags().BoolVar(&opts.KeepOpen, "keep-open", false, "leave the instance running")
	cmd.Flags().IntVar(&rootOpts.HistoryLimit, "history-limit", 0, "keep at most this many history entries (0 = all)")
	addDatabaseFlag(cmd, rootOpts, false)
	addRenderFlag(cmd, rootOpts)

	return cmd
}

func runInstance(opts *RunOptions, path string, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	c, err := loadDefinition(formatter, opts.RootOptions, path, opts.StrictInclusive)
	if err != nil {
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

	id := opts.idGenerator().Generate()
	inst, err := engine.NewInstance(id, opts.Label, c.Hash, c.NFA, opts.engineConfig())
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, "failed to create instance", err)
	}
	formatter.VerboseLog("Instance %s over %s (%d events)", id, c.Definition.Name, len(events))

	runnerOpts := []engine.RunnerOption{
		engine.WithStopOnEnd(true),
		engine.WithKeepOpen(opts.KeepOpen),
	}
	if !formatter.IsJSON() {
		runnerOpts = append(runnerOpts, engine.WithOutputHandler(func(out string) {
			fmt.Fprintln(formatter.Writer, formatter.Styles.Accent.Render("→ ")+out)
		}))
	}
	runner := engine.NewRunner(inst, runnerOpts...)
	for _, ev := range events {
		runner.Enqueue(ev)
	}
	runner.Stop()

	ctx, cancel := signalContext(cmd)
	defer cancel()
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return commandError(formatter, ErrCodeGeneric, "runner error", err)
	}

	result := newRunResult(inst)
	if opts.Database != "" {
		// Saved even after an interrupt.
		if err := saveInstance(context.WithoutCancel(ctx), opts.Database, c.Definition, inst, store.InstanceOptions{
			Render:          opts.Render,
			StrictInclusive: opts.StrictInclusive,
		}); err != nil {
			return commandError(formatter, ErrCodeDatabase, "failed to save instance", err)
		}
		result.Saved = true
	}

	return writeRunResult(formatter, result, opts.ExpectEnd)
}

// signalContext returns the command's context, cancelled on SIGINT or
// SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	return signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
}

// readEventsFile tokenizes each non-blank, non-comment line of path.
func readEventsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []string
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		toks, err := nfa.Tokenize(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, n, err)
		}
		events = append(events, toks...)
	}
	return events, sc.Err()
}

// saveInstance writes the definition and the instance to the database at
// dbPath, creating it if needed.
func saveInstance(ctx context.Context, dbPath string, def *ir.Choreography, inst *engine.Instance, opts store.InstanceOptions) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.WriteChoreography(ctx, def); err != nil {
		return err
	}
	return st.SaveInstance(ctx, inst, opts)
}

func newRunResult(inst *engine.Instance) RunResult {
	items := inst.Enforcer().Engine().BufferItems()
	buffer := make([]string, len(items))
	for i, item := range items {
		buffer[i] = item.Event()
	}
	outputs := inst.Outputs
	if outputs == nil {
		outputs = []string{}
	}
	return RunResult{
		Instance: inst.ID,
		Outputs:  outputs,
		Consumed: len(inst.Inputs),
		Ended:    inst.Ended(),
		Buffer:   buffer,
		Running:  inst.Running,
	}
}

func writeRunResult(f *OutputFormatter, r RunResult, expectEnd bool) error {
	failed := expectEnd && !r.Ended

	if f.IsJSON() {
		if failed {
			_ = f.Failure(ErrCodeNotEnded, "choreography did not end", r)
			return NewExitError(ExitFailure, "choreography did not end")
		}
		return f.Success(r)
	}

	w := f.Writer
	fmt.Fprintf(w, "%s %s\n", f.Styles.Title.Render("instance"), r.Instance)
	fmt.Fprintf(w, "  consumed: %d\n", r.Consumed)
	fmt.Fprintf(w, "  buffer:   %v\n", r.Buffer)
	if r.Ended {
		fmt.Fprintf(w, "  ended:    %s\n", f.Styles.OK.Render("yes"))
	} else {
		fmt.Fprintf(w, "  ended:    %s\n", f.Styles.Muted.Render("no"))
	}
	if r.Running {
		fmt.Fprintln(w, f.Styles.Muted.Render("  still running"))
	}
	if r.Saved {
		fmt.Fprintln(w, f.Styles.Muted.Render("  saved"))
	}
	if failed {
		_ = f.Failure(ErrCodeNotEnded, "choreography did not end", nil)
		return NewExitError(ExitFailure, "choreography did not end")
	}
	return nil
}
