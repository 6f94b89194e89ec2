package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/choreo/internal/compiler"
)

// InvalidDefinition is the JSON payload of a definition that failed
// validation.
type InvalidDefinition struct {
	Path   string                     `json:"path"`
	Errors []compiler.ValidationError `json:"errors"`
}

// loadSource reads a definition file, reporting failures as command errors.
func loadSource(f *OutputFormatter, path string) (*compiler.Source, error) {
	src, err := compiler.LoadFile(path)
	if err != nil {
		return nil, commandError(f, ErrCodeLoad, "failed to load definition", err)
	}
	f.VerboseLog("Loaded %s: %d nodes, %d flows", path, len(src.Choreography.Nodes), len(src.Choreography.Flows))
	return src, nil
}

// loadDefinition loads, validates and compiles a definition with the
// shared render option.
func loadDefinition(f *OutputFormatter, opts *RootOptions, path string, strict bool) (*compiler.Compiled, error) {
	src, err := loadSource(f, path)
	if err != nil {
		return nil, err
	}
	return compileSource(f, src, opts.Render, strict)
}

// compileSource validates and compiles src. Invalid definitions are
// listed and reported as command errors.
func compileSource(f *OutputFormatter, src *compiler.Source, render string, strict bool) (*compiler.Compiled, error) {
	if errs := src.Validate(); len(errs) > 0 {
		writeValidationErrors(f, src.Path, errs)
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("definition has %d validation error(s)", len(errs)))
	}

	r, err := compiler.LookupRenderer(render)
	if err != nil {
		return nil, commandError(f, ErrCodeCompile, "invalid render option", err)
	}

	c, err := compiler.Compile(src.Choreography, compiler.REIOptions{Render: r, StrictInclusive: strict})
	if err != nil {
		code := ErrCodeCompile
		var se *compiler.StructuralError
		if errors.As(err, &se) {
			code = se.Code
		}
		return nil, commandError(f, code, "failed to compile definition", err)
	}
	f.VerboseLog("Compiled %s (%s): %s", c.Definition.Name, c.Hash, c.NFA)
	return c, nil
}

// writeValidationErrors lists validation errors in the configured format.
func writeValidationErrors(f *OutputFormatter, path string, errs []compiler.ValidationError) {
	if f.IsJSON() {
		_ = f.encode(CLIResponse{
			Status: "error",
			Data:   InvalidDefinition{Path: path, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: fmt.Sprintf("validation failed with %d error(s)", len(errs)),
			},
		})
		return
	}

	fmt.Fprintln(f.Writer, f.Styles.Fail.Render("✗ Validation failed: "+path))
	fmt.Fprintln(f.Writer)
	for _, e := range errs {
		if e.Line > 0 {
			fmt.Fprintf(f.Writer, "%s:%d\n", path, e.Line)
		}
		fmt.Fprintf(f.Writer, "  %s: %s: %s\n\n", e.Code, e.Field, e.Message)
	}
}
