package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/choreo/internal/compiler"
	"github.com/roach88/choreo/internal/engine"
	"github.com/roach88/choreo/internal/store"
	"github.com/roach88/choreo/internal/testutil"
)

// Options configures a harness run. The zero value is usable.
type Options struct {
	// Logger receives engine decisions. Defaults to a discarding logger.
	Logger *slog.Logger

	// Parallel bounds the scenarios RunAll executes at once. Zero or
	// negative means no limit.
	Parallel int
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
//  1. Load, validate and compile the definition
//  2. Feed the events to a new instance until it ends
//  3. Persist the instance and replay it from storage
//  4. Check the expectations and evaluate the assertions
//
// The returned error reports a scenario that could not be executed; a
// scenario that ran but did not conform is a failing Result.
func Run(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	src, err := compiler.LoadFile(scenario.Definition)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	if errs := src.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("scenario %s: invalid definition: %w", scenario.Name, errs[0])
	}

	render, err := compiler.LookupRenderer(scenario.Render)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	c, err := compiler.Compile(src.Choreography, compiler.REIOptions{
		Render:          render,
		StrictInclusive: scenario.StrictInclusive,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	events, err := scenario.InputEvents()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if _, err := st.WriteChoreography(ctx, c.Definition); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	clock := testutil.NewStepClock()
	cfg := engine.Config{Logger: opts.logger(), Now: clock.Now}
	inst, err := engine.NewInstance(scenario.Name, scenario.Description, c.Hash, c.NFA, cfg)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult(scenario.Name)
	result.Hash = c.Hash

	if err := inst.Start(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	for _, ev := range events {
		if inst.Ended() {
			break
		}
		if _, err := inst.Feed(ev); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		result.Consumed++
	}
	if err := inst.Stop(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result.Outputs = append(result.Outputs, inst.Outputs...)
	result.Ended = inst.Ended()
	result.Trace = inst.Enforcer().History()
	if n := len(result.Trace); n > 0 {
		last := result.Trace[n-1]
		result.Buffer = append(result.Buffer, last.Buffer...)
		result.States = slices.Clone(last.States)
	}

	if err := st.SaveInstance(ctx, inst, store.InstanceOptions{
		Render:          scenario.Render,
		StrictInclusive: scenario.StrictInclusive,
	}); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	replay, err := st.Replay(ctx, inst.ID, engine.Config{Logger: cfg.Logger})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	if !replay.Identical() {
		result.AddError(fmt.Sprintf("replay diverged at output %d: got %v, recorded %v",
			replay.Divergence, replay.Outputs, replay.Recorded))
	}

	checkExpectations(result, scenario.Expect)
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// RunAll executes scenarios concurrently and returns their results in the
// order given. Scenarios share nothing, so one failing to execute cancels
// the rest and its error is returned.
func RunAll(ctx context.Context, scenarios []*Scenario, opts Options) ([]*Result, error) {
	results := make([]*Result, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	if opts.Parallel > 0 {
		g.SetLimit(opts.Parallel)
	}
	for i, s := range scenarios {
		g.Go(func() error {
			res, err := Run(ctx, s, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func checkExpectations(r *Result, exp Expectation) {
	if exp.Outputs != nil && !slices.Equal(r.Outputs, exp.Outputs) {
		r.AddError(fmt.Sprintf("outputs: expected %v, got %v", exp.Outputs, r.Outputs))
	}
	if exp.Ended != nil && r.Ended != *exp.Ended {
		r.AddError(fmt.Sprintf("ended: expected %t, got %t", *exp.Ended, r.Ended))
	}
	if exp.Buffer != nil && !slices.Equal(r.Buffer, exp.Buffer) {
		r.AddError(fmt.Sprintf("buffer: expected %v, got %v", exp.Buffer, r.Buffer))
	}
	if exp.Consumed != nil && r.Consumed != *exp.Consumed {
		r.AddError(fmt.Sprintf("consumed: expected %d, got %d", *exp.Consumed, r.Consumed))
	}
}
