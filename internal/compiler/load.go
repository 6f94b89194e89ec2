package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/choreo/internal/ir"
)

// Source is a choreography definition read from a file, together with the
// line of each node, flow, participant and message (keyed "nodes[3]",
// "flows[0]", ...) for error reporting.
type Source struct {
	Path         string
	Choreography *ir.Choreography
	Lines        map[string]int
}

// Validate runs Validate on the definition and attaches source lines.
func (s *Source) Validate() []ValidationError {
	return WithLines(Validate(s.Choreography), s.Lines)
}

// LoadFile reads a definition, choosing the format by extension: .cue for
// CUE, .yaml, .yml or .json for YAML.
func LoadFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUE(data, path)
	case ".yaml", ".yml", ".json":
		return LoadYAML(data, path)
	default:
		return nil, fmt.Errorf("unsupported definition format %q (want .cue, .yaml or .json)", filepath.Ext(path))
	}
}

// LoadCUE compiles CUE source holding exactly one definition under the
// top-level choreography struct.
func LoadCUE(data []byte, filename string) (*Source, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("choreography"))
	if !root.Exists() {
		return nil, &CompileError{
			Field:   "choreography",
			Message: "top-level choreography struct is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var defs []cue.Value
	for iter.Next() {
		defs = append(defs, iter.Value())
	}
	if len(defs) != 1 {
		return nil, &CompileError{
			Field:   "choreography",
			Message: fmt.Sprintf("exactly one choreography per file is supported, found %d", len(defs)),
			Pos:     root.Pos(),
		}
	}

	def, lines, err := compileChoreography(defs[0])
	if err != nil {
		return nil, err
	}
	return &Source{Path: filename, Choreography: def, Lines: lines}, nil
}

// LoadYAML decodes a YAML (or JSON) definition. Unknown fields are rejected.
func LoadYAML(data []byte, filename string) (*Source, error) {
	var def ir.Choreography
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty definition", filename)
		}
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	for i := range def.Flows {
		if def.Flows[i].ID == "" {
			def.Flows[i].ID = fmt.Sprintf("flow_%d", i+1)
		}
	}
	return &Source{Path: filename, Choreography: &def, Lines: yamlLines(&doc)}, nil
}

func yamlLines(doc *yaml.Node) map[string]int {
	lines := make(map[string]int)
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return lines
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return lines
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if val.Kind != yaml.SequenceNode {
			continue
		}
		for j, item := range val.Content {
			lines[fmt.Sprintf("%s[%d]", key.Value, j)] = item.Line
		}
	}
	return lines
}
