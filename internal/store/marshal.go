package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/choreo/internal/ir"
)

// timeLayout is used for started_at/stopped_at. Timestamps are informative
// only; nothing is ordered by them.
const timeLayout = time.RFC3339Nano

// marshalDefinition converts a choreography to canonical JSON TEXT, the same
// bytes its content hash is computed over.
func marshalDefinition(def *ir.Choreography) (string, error) {
	data, err := ir.MarshalCanonical(def.ToCanonicalMap())
	if err != nil {
		return "", fmt.Errorf("marshal definition: %w", err)
	}
	return string(data), nil
}

// unmarshalDefinition parses canonical JSON TEXT back to a choreography.
// Empty lists come back as nil so the result compares equal to a freshly
// loaded definition.
func unmarshalDefinition(data string) (*ir.Choreography, error) {
	var def ir.Choreography
	if err := json.Unmarshal([]byte(data), &def); err != nil {
		return nil, fmt.Errorf("unmarshal definition: %w", err)
	}
	if len(def.Participants) == 0 {
		def.Participants = nil
	}
	if len(def.Messages) == 0 {
		def.Messages = nil
	}
	if len(def.Flows) == 0 {
		def.Flows = nil
	}
	return &def, nil
}

// marshalStrings converts a string list to canonical JSON TEXT. A nil list
// is stored as "[]".
func marshalStrings(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := ir.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return string(data), nil
}

// unmarshalStrings parses JSON TEXT to a string list.
func unmarshalStrings(data string) ([]string, error) {
	list := []string{}
	if data == "" {
		return list, nil
	}
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	return list, nil
}

// formatTime maps the zero time to NULL.
func formatTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

// parseTime maps NULL to the zero time.
func parseTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s.String, err)
	}
	return t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
