package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/choreo/internal/compiler"
	"github.com/roach88/choreo/internal/nfa"
	"github.com/roach88/choreo/internal/rei"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Emit            string // rei | pretty | latex | nfa | dot
	StrictInclusive bool
	Output          string // output file path
}

// ValidEmits lists the artifacts compile can print.
var ValidEmits = []string{"rei", "pretty", "latex", "nfa", "dot"}

// CompilationResult is the JSON payload of a successful compile.
type CompilationResult struct {
	Name     string    `json:"name"`
	Hash     string    `json:"hash"`
	REI      string    `json:"rei"`
	Alphabet []string  `json:"alphabet"`
	Stats    nfa.Stats `json:"stats"`
	Artifact string    `json:"artifact,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <definition>",
		Short: "Compile a choreography to an expression and an automaton",
		Long: `Compile a choreography definition (.cue, .yaml or .json).

The definition is validated, translated to a regular expression over
its tasks and then to an automaton. --emit selects what is printed:

  rei     one-line expression (default)
  pretty  indented expression
  latex   expression as LaTeX
  nfa     states and transitions
  dot     Graphviz DOT

Examples:
  choreo compile delivery.cue
  choreo compile delivery.cue --render receive --emit dot -o delivery.dot`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Emit, "emit", "rei", "artifact to print (rei|pretty|latex|nfa|dot)")
	cmd.Flags().BoolVar(&opts.StrictInclusive, "strict-inclusive", false, "require at least one inclusive branch")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	addRenderFlag(cmd, rootOpts)

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if !slices.Contains(ValidEmits, opts.Emit) {
		return commandError(formatter, ErrCodeGeneric,
			fmt.Sprintf("invalid emit %q: must be one of %v", opts.Emit, ValidEmits), nil)
	}

	c, err := loadDefinition(formatter, opts.RootOptions, path, opts.StrictInclusive)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := emit(&buf, c, opts.Emit); err != nil {
		return commandError(formatter, ErrCodeGeneric, "failed to render output", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
			return commandError(formatter, ErrCodeGeneric, "writing output file", err)
		}
	}

	if formatter.IsJSON() {
		result := CompilationResult{
			Name:     c.Definition.Name,
			Hash:     c.Hash,
			REI:      c.REI.String(),
			Alphabet: c.NFA.Labels(),
			Stats:    c.NFA.Stats(),
		}
		if opts.Emit != "rei" {
			result.Artifact = buf.String()
		}
		return formatter.Success(result)
	}

	if opts.Output != "" {
		formatter.OK("Compiled %s: %s", c.Definition.Name, c.NFA)
		fmt.Fprintf(formatter.Writer, "Wrote %s to %s\n", opts.Emit, opts.Output)
		return nil
	}
	_, err = formatter.Writer.Write(buf.Bytes())
	return err
}

// emit renders one artifact of c.
func emit(w io.Writer, c *compiler.Compiled, kind string) error {
	switch kind {
	case "rei":
		_, err := fmt.Fprintln(w, c.REI.String())
		return err
	case "pretty":
		_, err := fmt.Fprintln(w, rei.Pretty(c.REI))
		return err
	case "latex":
		_, err := fmt.Fprintln(w, rei.Latex(c.REI))
		return err
	case "nfa":
		return writeNFA(w, c.NFA)
	case "dot":
		return c.NFA.WriteDOT(w, c.Definition.Name)
	default:
		return fmt.Errorf("unknown emit %q", kind)
	}
}

// writeNFA lists states, marking the initial one with > and accepting ones
// with *, then every transition. Epsilon transitions are labelled "eps".
func writeNFA(w io.Writer, a *nfa.NFA) error {
	fmt.Fprintln(w, a.String())
	fmt.Fprintln(w, "states:")
	for _, st := range inspectStates(a) {
		mark := " "
		if st.Initial {
			mark = ">"
		}
		final := ""
		if st.Final {
			final = " *"
		}
		fmt.Fprintf(w, "  %s %s%s\n", mark, st.Name, final)
	}
	fmt.Fprintln(w, "transitions:")
	for _, t := range inspectTransitions(a) {
		fmt.Fprintf(w, "  %s --%s--> %s\n", t.Source, labelText(t.Label), t.Target)
	}
	return nil
}

func labelText(label string) string {
	if label == nfa.Epsilon {
		return "eps"
	}
	return label
}
