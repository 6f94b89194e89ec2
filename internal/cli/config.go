package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/choreo/internal/compiler"
)

// Config is the optional YAML file passed with --config. Every field
// defaults a flag; a flag given on the command line wins.
//
//	database: ./choreo.db
//	render: receive
//	history_limit: 100
//	color: true
type Config struct {
	Database     string `yaml:"database"`
	Render       string `yaml:"render"`
	HistoryLimit int    `yaml:"history_limit"`
	Color        *bool  `yaml:"color"`
}

// LoadConfig reads and validates a config file. Unknown fields are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Render != "" {
		if _, err := compiler.LookupRenderer(cfg.Render); err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
	}
	if cfg.HistoryLimit < 0 {
		return nil, fmt.Errorf("history_limit must be non-negative")
	}
	return &cfg, nil
}

// apply fills opts from the file where the matching flag was not set.
func (c *Config) apply(cmd *cobra.Command, opts *RootOptions) {
	if c.Database != "" && !flagChanged(cmd, "db") {
		opts.Database = c.Database
	}
	if c.Render != "" && !flagChanged(cmd, "render") {
		opts.Render = c.Render
	}
	if c.HistoryLimit != 0 && !flagChanged(cmd, "history-limit") {
		opts.HistoryLimit = c.HistoryLimit
	}
	if c.Color != nil && !flagChanged(cmd, "color") {
		opts.Color = *c.Color
	}
}

func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}
