package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "choreo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, "database: ./choreo.db\nrender: receive\nhistory_limit: 10\ncolor: true\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "./choreo.db", cfg.Database)
	assert.Equal(t, "receive", cfg.Render)
	assert.Equal(t, 10, cfg.HistoryLimit)
	require.NotNil(t, cfg.Color)
	assert.True(t, *cfg.Color)
}

func TestLoadConfig_Empty(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Config{}, *cfg)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown field", "databse: x.db\n", "failed to parse YAML"},
		{"bad render", "render: sideways\n", "render:"},
		{"negative limit", "history_limit: -1\n", "history_limit must be non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestConfig_FillsUnsetFlags(t *testing.T) {
	path := writeConfig(t, "render: receive\n")

	out, _, err := execute(t, nil, "--config", path, "compile", deliveryDef)
	require.NoError(t, err)
	assert.Contains(t, out, "Pizza_Place?pizza_order")
}

func TestConfig_FlagWins(t *testing.T) {
	path := writeConfig(t, "render: receive\n")

	out, _, err := execute(t, nil, "--config", path, "compile", "--render", "name", deliveryDef)
	require.NoError(t, err)
	assert.Contains(t, out, "'order pizza'")
}

func TestConfig_SuppliesDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "choreo.db")
	path := writeConfig(t, "database: "+db+"\n")

	_, _, err := execute(t, nil, "--config", path, "replay")
	require.NoError(t, err)

	_, _, err = execute(t, nil, "replay")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfig_Invalid(t *testing.T) {
	_, _, err := execute(t, nil, "--config", writeConfig(t, "bogus: 1\n"), "validate", deliveryDef)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}
