package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/choreo/internal/compiler"
	"github.com/roach88/choreo/internal/nfa"
)

// ScenarioSuffix is the file suffix LoadDir looks for. Definitions may live
// next to scenarios as long as they use another name.
const ScenarioSuffix = ".scenario.yaml"

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Definition is the path of the choreography definition (.cue, .yaml
	// or .json). Relative paths are resolved against the scenario file.
	Definition string `yaml:"definition"`

	// Render selects the task renderer: name (default) or receive.
	Render string `yaml:"render,omitempty"`

	// StrictInclusive requires at least one inclusive branch to occur.
	StrictInclusive bool `yaml:"strict_inclusive,omitempty"`

	// Events are fed to the instance in order.
	Events []string `yaml:"events,omitempty"`

	// Stream is an alternative to Events: one space-separated line,
	// tokenized with single-quote quoting.
	Stream string `yaml:"stream,omitempty"`

	// Expect is checked against the final state of the run.
	Expect Expectation `yaml:"expect"`

	// Assertions validate the history and outputs.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expectation is the expected outcome of a run. A nil list or pointer is
// not checked; an empty list must match an empty result.
type Expectation struct {
	Outputs  []string `yaml:"outputs,omitempty"`
	Ended    *bool    `yaml:"ended,omitempty"`
	Buffer   []string `yaml:"buffer,omitempty"`
	Consumed *int     `yaml:"consumed,omitempty"`
}

// Assertion validates the trace of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Event is the event text (output_contains, output_count, buffered).
	Event string `yaml:"event,omitempty"`

	// Events is the expected order (output_order).
	Events []string `yaml:"events,omitempty"`

	// Count is the expected number of occurrences (output_count).
	Count int `yaml:"count,omitempty"`

	// States are the expected final state names (final_states).
	States []string `yaml:"states,omitempty"`
}

// Assertion type constants.
const (
	AssertOutputContains = "output_contains"
	AssertOutputOrder    = "output_order"
	AssertOutputCount    = "output_count"
	AssertBuffered       = "buffered"
	AssertFinalStates    = "final_states"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// The definition path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario decodes scenario YAML. Relative definition paths are
// joined to basePath when it is not empty.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: empty scenario")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Definition != "" && !filepath.IsAbs(scenario.Definition) && basePath != "" {
		scenario.Definition = filepath.Join(basePath, scenario.Definition)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.scenario.yaml file in dir, sorted by file name.
// Scenario names must be unique within the directory.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+ScenarioSuffix))
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)

	seen := make(map[string]string, len(paths))
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%s: scenario %q already defined in %s", p, s.Name, prev)
		}
		seen[s.Name] = p
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// InputEvents returns the events to feed, tokenizing Stream when set.
func (s *Scenario) InputEvents() ([]string, error) {
	if s.Stream == "" {
		return s.Events, nil
	}
	return nfa.Tokenize(s.Stream)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Definition == "" {
		return fmt.Errorf("definition is required")
	}

	if _, err := compiler.LookupRenderer(s.Render); err != nil {
		return err
	}

	if len(s.Events) > 0 && s.Stream != "" {
		return fmt.Errorf("events and stream are mutually exclusive")
	}
	if _, err := nfa.Tokenize(s.Stream); err != nil {
		return fmt.Errorf("stream: %w", err)
	}

	if s.Expect.Consumed != nil && *s.Expect.Consumed < 0 {
		return fmt.Errorf("expect.consumed must be non-negative")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

// validateAssertion checks the fields each assertion type needs.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertOutputContains, AssertBuffered:
		if a.Event == "" {
			return fmt.Errorf("%s assertion requires event", a.Type)
		}
	case AssertOutputOrder:
		if len(a.Events) < 2 {
			return fmt.Errorf("output_order assertion requires at least 2 events")
		}
	case AssertOutputCount:
		if a.Event == "" {
			return fmt.Errorf("output_count assertion requires event")
		}
		if a.Count < 0 {
			return fmt.Errorf("output_count assertion requires non-negative count")
		}
	case AssertFinalStates:
		if a.States == nil {
			return fmt.Errorf("final_states assertion requires states")
		}
	case "":
		return fmt.Errorf("assertion type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
