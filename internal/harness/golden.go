package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/choreo/internal/engine"
	"github.com/roach88/choreo/internal/ir"
)

// GoldenDir is the folder, next to the scenarios, that holds golden traces.
const GoldenDir = "golden"

// ErrGoldenMismatch reports a trace that differs from its golden file.
var ErrGoldenMismatch = errors.New("trace does not match golden file")

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string
	Hash         string
	Outputs      []string
	Ended        bool
	Trace        []engine.HistoryEntry
}

// NewTraceSnapshot builds the snapshot of a result.
func NewTraceSnapshot(r *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: r.Scenario,
		Hash:         r.Hash,
		Outputs:      r.Outputs,
		Ended:        r.Ended,
		Trace:        r.Trace,
	}
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization. Canonical JSON forbids floats, so the
// non-determinism factor is written as a decimal string, and only when it
// is not zero.
func (s *TraceSnapshot) toCanonicalMap() (map[string]any, error) {
	traceList := make([]any, len(s.Trace))
	for i, entry := range s.Trace {
		entryMap := map[string]any{
			"seq":    entry.Seq,
			"kind":   string(entry.Kind),
			"states": nonNil(entry.States),
			"buffer": nonNil(entry.Buffer),
		}
		if entry.Event != "" {
			entryMap["event"] = entry.Event
		}
		if entry.Output != "" {
			entryMap["output"] = entry.Output
		}
		if entry.NDFactor != 0 {
			entryMap["nd_factor"] = strconv.FormatFloat(entry.NDFactor, 'f', -1, 64)
		}
		traceList[i] = entryMap
	}

	traceHash, err := ir.TraceHash(nonNil(s.Outputs))
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"outputs":       nonNil(s.Outputs),
		"ended":         s.Ended,
		"trace":         traceList,
		"trace_hash":    traceHash,
	}
	if s.Hash != "" {
		result["definition_hash"] = s.Hash
	}
	return result, nil
}

// GoldenTrace renders the golden trace of a result as canonical JSON.
func GoldenTrace(r *Result) ([]byte, error) {
	snapshot := NewTraceSnapshot(r)
	canonicalMap, err := snapshot.toCanonicalMap()
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(canonicalMap)
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	traceJSON, err := GoldenTrace(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)
	return nil
}

// CheckGolden compares the trace of result with dir/golden/<name>.golden.
// With update set the file is written instead. A missing golden file is
// reported as a mismatch.
func CheckGolden(dir string, result *Result, update bool) error {
	traceJSON, err := GoldenTrace(result)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, GoldenDir, result.Scenario+".golden")

	if update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("update golden: %w", err)
		}
		if err := os.WriteFile(path, traceJSON, 0o644); err != nil {
			return fmt.Errorf("update golden: %w", err)
		}
		return nil
	}

	want, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s does not exist (run with --update)", ErrGoldenMismatch, path)
	}
	if err != nil {
		return fmt.Errorf("read golden: %w", err)
	}
	if !bytes.Equal(bytes.TrimSpace(want), traceJSON) {
		return fmt.Errorf("%w: %s", ErrGoldenMismatch, path)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
