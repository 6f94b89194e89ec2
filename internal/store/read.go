package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/choreo/internal/engine"
	"github.com/roach88/choreo/internal/ir"
)

// ReadChoreography returns the definition stored under hash.
// Returns ErrNotFound if there is none.
func (s *Store) ReadChoreography(ctx context.Context, hash string) (*ir.Choreography, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT definition FROM choreographies WHERE hash = ?
	`, hash).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read choreography %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read choreography %s: %w", hash, err)
	}
	return unmarshalDefinition(data)
}

// ReadInstance returns the instance row for id.
// Returns ErrNotFound if there is none.
func (s *Store) ReadInstance(ctx context.Context, id string) (InstanceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, choreography_hash, label, render, strict_inclusive, running, ended, started_at, stopped_at
		FROM instances
		WHERE id = ?
	`, id)
	rec, err := scanInstance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return InstanceRecord{}, fmt.Errorf("read instance %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return InstanceRecord{}, fmt.Errorf("read instance %s: %w", id, err)
	}
	return rec, nil
}

// ListInstances returns every instance ordered by id. UUIDv7 ids sort by
// creation time.
func (s *Store) ListInstances(ctx context.Context) ([]InstanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, choreography_hash, label, render, strict_inclusive, running, ended, started_at, stopped_at
		FROM instances
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}
	defer rows.Close()

	records := []InstanceRecord{}
	for rows.Next() {
		rec, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstance(row rowScanner) (InstanceRecord, error) {
	var (
		rec              InstanceRecord
		strict, running  int
		ended            int
		started, stopped sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.Choreography, &rec.Label, &rec.Render,
		&strict, &running, &ended, &started, &stopped)
	if err != nil {
		return InstanceRecord{}, err
	}
	rec.StrictInclusive = strict != 0
	rec.Running = running != 0
	rec.Ended = ended != 0

	if rec.StartedAt, err = parseTime(started); err != nil {
		return InstanceRecord{}, err
	}
	if rec.StoppedAt, err = parseTime(stopped); err != nil {
		return InstanceRecord{}, err
	}
	return rec, nil
}

// ReadEvents returns one log of an instance in seq order.
// Returns an empty slice (not nil) if the log is empty.
func (s *Store) ReadEvents(ctx context.Context, instanceID string, dir Direction) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event FROM events
		WHERE instance_id = ? AND direction = ?
		ORDER BY seq ASC
	`, instanceID, string(dir))
	if err != nil {
		return nil, fmt.Errorf("query %s events: %w", dir, err)
	}
	defer rows.Close()

	events := []string{}
	for rows.Next() {
		var ev string
		if err := rows.Scan(&ev); err != nil {
			return nil, fmt.Errorf("scan %s event: %w", dir, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s events: %w", dir, err)
	}
	return events, nil
}

// ReadHistory returns the enforcer history of an instance in seq order.
func (s *Store) ReadHistory(ctx context.Context, instanceID string) ([]engine.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, event, output, states, buffer, nd_factor
		FROM history
		WHERE instance_id = ?
		ORDER BY seq ASC
	`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []engine.HistoryEntry{}
	for rows.Next() {
		var (
			e              engine.HistoryEntry
			kind           string
			states, buffer string
		)
		if err := rows.Scan(&e.Seq, &kind, &e.Event, &e.Output, &states, &buffer, &e.NDFactor); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Kind = engine.HistoryKind(kind)
		if e.States, err = unmarshalStrings(states); err != nil {
			return nil, err
		}
		if e.Buffer, err = unmarshalStrings(buffer); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}
