package store

import (
	"context"
	"fmt"

	"github.com/roach88/choreo/internal/compiler"
	"github.com/roach88/choreo/internal/engine"
	"github.com/roach88/choreo/internal/ir"
)

// InstanceState is everything stored about one instance.
type InstanceState struct {
	Record     InstanceRecord
	Definition *ir.Choreography
	Inputs     []string
	Outputs    []string
	History    []engine.HistoryEntry
}

// LoadInstance reads an instance with its definition, logs and history.
func (s *Store) LoadInstance(ctx context.Context, id string) (InstanceState, error) {
	state := InstanceState{}

	rec, err := s.ReadInstance(ctx, id)
	if err != nil {
		return state, fmt.Errorf("load instance: %w", err)
	}
	state.Record = rec

	if state.Definition, err = s.ReadChoreography(ctx, rec.Choreography); err != nil {
		return state, fmt.Errorf("load instance: %w", err)
	}
	if state.Inputs, err = s.ReadEvents(ctx, id, Input); err != nil {
		return state, fmt.Errorf("load instance: %w", err)
	}
	if state.Outputs, err = s.ReadEvents(ctx, id, Output); err != nil {
		return state, fmt.Errorf("load instance: %w", err)
	}
	if state.History, err = s.ReadHistory(ctx, id); err != nil {
		return state, fmt.Errorf("load instance: %w", err)
	}
	return state, nil
}

// Compile recompiles the stored definition with the options the instance
// was created with.
func (st InstanceState) Compile() (*compiler.Compiled, error) {
	render, err := compiler.LookupRenderer(st.Record.Render)
	if err != nil {
		return nil, err
	}
	c, err := compiler.Compile(st.Definition, compiler.REIOptions{
		Render:          render,
		StrictInclusive: st.Record.StrictInclusive,
	})
	if err != nil {
		return nil, err
	}
	if c.Hash != st.Record.Choreography {
		return nil, fmt.Errorf("stored definition hash %s does not match instance %s",
			c.Hash, st.Record.Choreography)
	}
	return c, nil
}

// Replay rebuilds instance id from its stored inputs and compares the
// outputs with the stored output log.
func (s *Store) Replay(ctx context.Context, id string, cfg engine.Config) (*engine.ReplayResult, error) {
	state, err := s.LoadInstance(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	c, err := state.Compile()
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", id, err)
	}
	res, err := engine.Replay(c.NFA, state.Inputs, state.Outputs, cfg)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", id, err)
	}
	return res, nil
}

// Restore rebuilds a live instance from storage by replaying its inputs.
// The restored instance carries the stored timestamps and running flag.
func (s *Store) Restore(ctx context.Context, id string, cfg engine.Config) (*engine.Instance, error) {
	state, err := s.LoadInstance(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	c, err := state.Compile()
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", id, err)
	}

	rec := state.Record
	inst, err := engine.NewInstance(rec.ID, rec.Label, rec.Choreography, c.NFA, cfg)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", id, err)
	}
	inst.Running = true
	for _, ev := range state.Inputs {
		if _, err := inst.Feed(ev); err != nil {
			return nil, fmt.Errorf("restore %s: %w", id, err)
		}
	}
	inst.StartedAt = rec.StartedAt
	inst.StoppedAt = rec.StoppedAt
	inst.Running = rec.Running
	return inst, nil
}
