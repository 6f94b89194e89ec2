package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/delayed_delivery.scenario.yaml")
	require.NoError(t, err)

	assert.Equal(t, "delayed_delivery", scenario.Name)
	assert.Equal(t, "receive", scenario.Render)
	assert.Equal(t, filepath.Join("testdata", "scenarios", "definitions", "delivery.cue"), scenario.Definition)
	assert.Len(t, scenario.Events, 3)
	require.NotNil(t, scenario.Expect.Ended)
	assert.True(t, *scenario.Expect.Ended)
	assert.NotNil(t, scenario.Expect.Buffer, "empty list must be kept distinct from absent")
	assert.Empty(t, scenario.Expect.Buffer)
	assert.Nil(t, scenario.Expect.Consumed)
	assert.Len(t, scenario.Assertions, 2)
}

func TestLoadScenario_FlowSequenceEvents(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/delayed_delivery.scenario.yaml")
	require.NoError(t, err)
	require.Len(t, scenario.Assertions, 2)
	assert.Equal(t, []string{"Delivery_Boy?Message_1mi4idx", "Customer?pizza"}, scenario.Assertions[1].Events)

	scenario, err = LoadScenario("testdata/scenarios/stuck.scenario.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"Customer?pizza"}, scenario.Expect.Buffer)

	scenario, err = ParseScenario([]byte(`
name: n
description: "d"
definition: d.cue
events: ['Customer!order', 'Pizza Place?order']
`), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Customer!order", "Pizza Place?order"}, scenario.Events)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_AbsoluteDefinitionKept(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "elsewhere", "def.cue")
	path := writeScenario(t, dir, "s.scenario.yaml", `
name: abs
description: "absolute path"
definition: `+abs+`
`)
	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, abs, scenario.Definition)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty", ``, "empty scenario"},
		{"missing name", `
description: "d"
definition: d.cue
`, "name is required"},
		{"missing description", `
name: n
definition: d.cue
`, "description is required"},
		{"missing definition", `
name: n
description: "d"
`, "definition is required"},
		{"unknown field", `
name: n
description: "d"
definition: d.cue
assertion: []
`, "field assertion not found"},
		{"unknown renderer", `
name: n
description: "d"
definition: d.cue
render: latex
`, "unknown renderer"},
		{"events and stream", `
name: n
description: "d"
definition: d.cue
events: ['a?b']
stream: "a?b"
`, "mutually exclusive"},
		{"unterminated stream quote", `
name: n
description: "d"
definition: d.cue
stream: "'a?b"
`, "stream"},
		{"negative consumed", `
name: n
description: "d"
definition: d.cue
expect:
  consumed: -1
`, "expect.consumed"},
		{"assertion without type", `
name: n
description: "d"
definition: d.cue
assertions:
  - event: a?b
`, "assertions[0]: assertion type is required"},
		{"unknown assertion", `
name: n
description: "d"
definition: d.cue
assertions:
  - type: trace_contains
`, "unknown assertion type"},
		{"order needs two events", `
name: n
description: "d"
definition: d.cue
assertions:
  - type: output_order
    events: ['a?b']
`, "at least 2 events"},
		{"buffered needs event", `
name: n
description: "d"
definition: d.cue
assertions:
  - type: buffered
`, "buffered assertion requires event"},
		{"final states needs states", `
name: n
description: "d"
definition: d.cue
assertions:
  - type: final_states
`, "requires states"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInputEvents(t *testing.T) {
	s := &Scenario{Stream: "Customer!order 'Pizza Place?order'"}
	events, err := s.InputEvents()
	require.NoError(t, err)
	assert.Equal(t, []string{"Customer!order", "Pizza Place?order"}, events)

	s = &Scenario{Events: []string{"a?b"}}
	events, err = s.InputEvents()
	require.NoError(t, err)
	assert.Equal(t, []string{"a?b"}, events)
}

func TestLoadDir(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)

	var names []string
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"delayed_delivery", "happy_delivery", "refusal_stream", "stuck"}, names)
}

func TestLoadDir_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	body := `
name: same
description: "d"
definition: d.cue
`
	writeScenario(t, dir, "a.scenario.yaml", body)
	writeScenario(t, dir, "b.scenario.yaml", body)
	writeScenario(t, dir, "ignored.yaml", "not: [a scenario")

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scenario "same" already defined`)
}
