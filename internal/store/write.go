package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/choreo/internal/engine"
	"github.com/roach88/choreo/internal/ir"
)

// Direction selects an instance event log.
type Direction string

const (
	// Input is the log of observed events fed to the instance.
	Input Direction = "input"
	// Output is the log of events the instance emitted.
	Output Direction = "output"
)

// InstanceRecord is the persisted form of an engine.Instance, without its
// logs and history.
type InstanceRecord struct {
	ID              string
	Choreography    string
	Label           string
	Render          string
	StrictInclusive bool
	Running         bool
	Ended           bool
	StartedAt       time.Time
	StoppedAt       time.Time
}

// WriteChoreography stores def under its content hash and returns the hash.
// Uses ON CONFLICT(hash) DO NOTHING: identical definitions are stored once.
func (s *Store) WriteChoreography(ctx context.Context, def *ir.Choreography) (string, error) {
	hash, err := ir.ChoreographyHash(def)
	if err != nil {
		return "", fmt.Errorf("write choreography: %w", err)
	}
	data, err := marshalDefinition(def)
	if err != nil {
		return "", fmt.Errorf("write choreography: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO choreographies (hash, name, definition)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, def.Name, data)
	if err != nil {
		return "", fmt.Errorf("write choreography: %w", err)
	}
	return hash, nil
}

// InstanceOptions are the compile options an instance runs with. They are
// stored so that replay rebuilds the same automaton.
type InstanceOptions struct {
	Render          string
	StrictInclusive bool
}

// SaveInstance persists inst: its row, both event logs and its enforcer
// history, in one transaction. The choreography inst refers to must have
// been written first. Saving the same instance again replaces its logs and
// appends any new history entries.
func (s *Store) SaveInstance(ctx context.Context, inst *engine.Instance, opts InstanceOptions) error {
	if opts.Render == "" {
		opts.Render = "name"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save instance: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO instances
		(id, choreography_hash, label, render, strict_inclusive, running, started_at, stopped_at, ended)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			label = excluded.label,
			running = excluded.running,
			started_at = excluded.started_at,
			stopped_at = excluded.stopped_at,
			ended = excluded.ended
	`,
		inst.ID,
		inst.Choreography,
		inst.Label,
		opts.Render,
		boolInt(opts.StrictInclusive),
		boolInt(inst.Running),
		formatTime(inst.StartedAt),
		formatTime(inst.StoppedAt),
		boolInt(inst.Ended()),
	)
	if err != nil {
		return fmt.Errorf("save instance %s: %w", inst.ID, err)
	}

	if err := replaceEvents(ctx, tx, inst.ID, Input, inst.Inputs); err != nil {
		return fmt.Errorf("save instance %s: %w", inst.ID, err)
	}
	if err := replaceEvents(ctx, tx, inst.ID, Output, inst.Outputs); err != nil {
		return fmt.Errorf("save instance %s: %w", inst.ID, err)
	}
	if err := writeHistory(ctx, tx, inst.ID, inst.Enforcer().History()); err != nil {
		return fmt.Errorf("save instance %s: %w", inst.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save instance %s: commit: %w", inst.ID, err)
	}
	return nil
}

// AppendEvents adds events to the end of one log of an instance.
func (s *Store) AppendEvents(ctx context.Context, instanceID string, dir Direction, events []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append events: begin tx: %w", err)
	}
	defer tx.Rollback()

	var last int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM events
		WHERE instance_id = ? AND direction = ?
	`, instanceID, string(dir)).Scan(&last)
	if err != nil {
		return fmt.Errorf("append events: %w", err)
	}

	if err := insertEvents(ctx, tx, instanceID, dir, last, events); err != nil {
		return fmt.Errorf("append events: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append events: commit: %w", err)
	}
	return nil
}

func replaceEvents(ctx context.Context, tx *sql.Tx, instanceID string, dir Direction, events []string) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM events WHERE instance_id = ? AND direction = ?
	`, instanceID, string(dir))
	if err != nil {
		return fmt.Errorf("clear %s log: %w", dir, err)
	}
	return insertEvents(ctx, tx, instanceID, dir, 0, events)
}

func insertEvents(ctx context.Context, tx *sql.Tx, instanceID string, dir Direction, after int64, events []string) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (instance_id, direction, seq, event)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare %s log: %w", dir, err)
	}
	defer stmt.Close()

	for i, ev := range events {
		if _, err := stmt.ExecContext(ctx, instanceID, string(dir), after+int64(i)+1, ev); err != nil {
			return fmt.Errorf("insert %s event %d: %w", dir, i, err)
		}
	}
	return nil
}

// writeHistory inserts entries, ignoring those already stored.
// Uses ON CONFLICT(instance_id, seq) DO NOTHING: entries are immutable once
// recorded, so re-saving an instance only adds what is new.
func writeHistory(ctx context.Context, tx *sql.Tx, instanceID string, entries []engine.HistoryEntry) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO history (instance_id, seq, kind, event, output, states, buffer, nd_factor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(instance_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare history: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		states, err := marshalStrings(e.States)
		if err != nil {
			return err
		}
		buffer, err := marshalStrings(e.Buffer)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx, instanceID, e.Seq, string(e.Kind), e.Event, e.Output, states, buffer, e.NDFactor)
		if err != nil {
			return fmt.Errorf("insert history %d: %w", e.Seq, err)
		}
	}
	return nil
}
