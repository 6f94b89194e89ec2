package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deliveryAlphabet = []string{
	"Customer?pizza",
	"Customer?refusal",
	"Delivery_Boy?Message_1mi4idx",
	"Pizza_Place?pizza_order",
}

func TestCompile_DefaultEmit(t *testing.T) {
	out, _, err := execute(t, nil, "compile", deliveryDef)
	require.NoError(t, err)
	assert.Equal(t, "^'order pizza' ('hand over pizza' 'deliver pizza'$ | 'refuse order'$)\n", out)
}

func TestCompile_ReceiveRenderer(t *testing.T) {
	out, _, err := execute(t, nil, "compile", "--render", "receive", deliveryDef)
	require.NoError(t, err)
	assert.Equal(t, "^Pizza_Place?pizza_order (Delivery_Boy?Message_1mi4idx Customer?pizza$ | Customer?refusal$)\n", out)
}

func TestCompile_Emits(t *testing.T) {
	tests := []struct {
		emit string
		want string
	}{
		{"pretty", "order pizza"},
		{"latex", "order pizza"},
		{"nfa", "transitions:"},
		{"dot", `digraph "delivery" {`},
	}
	for _, tt := range tests {
		t.Run(tt.emit, func(t *testing.T) {
			out, _, err := execute(t, nil, "compile", "--emit", tt.emit, deliveryDef)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestCompile_NFAMarksInitialState(t *testing.T) {
	out, _, err := execute(t, nil, "compile", "--emit", "nfa", deliveryDef)
	require.NoError(t, err)
	assert.Contains(t, out, "states:\n  > ")
	assert.Contains(t, out, " *\n")
}

func TestCompile_JSON(t *testing.T) {
	out, _, err := execute(t, nil, "--format", "json", "compile", "--render", "receive", deliveryDef)
	require.NoError(t, err)

	var result CompilationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "delivery", result.Name)
	assert.Len(t, result.Hash, 64)
	assert.Equal(t, deliveryAlphabet, result.Alphabet)
	assert.Positive(t, result.Stats.States)
	assert.Empty(t, result.Artifact)
}

func TestCompile_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delivery.dot")

	out, _, err := execute(t, nil, "compile", "--emit", "dot", "-o", path, deliveryDef)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled delivery")
	assert.Contains(t, out, "Wrote dot to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph")
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantOut string
	}{
		{"bad emit", []string{"compile", "--emit", "svg", deliveryDef}, `invalid emit "svg"`},
		{"bad render", []string{"compile", "--render", "sideways", deliveryDef}, "E002"},
		{"missing file", []string{"compile", "testdata/nope.cue"}, "E001"},
		{"invalid definition", []string{"compile", "testdata/invalid.yaml"}, "Validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, nil, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}
