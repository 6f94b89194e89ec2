package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/choreo/internal/nfa"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	What            string
	StrictInclusive bool
}

// ValidInspections lists what inspect can report.
var ValidInspections = []string{"states", "transitions", "alphabet", "stats"}

// InspectState describes one automaton state.
type InspectState struct {
	Name    string `json:"name"`
	Initial bool   `json:"initial,omitempty"`
	Final   bool   `json:"final,omitempty"`
}

// InspectTransition describes one automaton transition. An empty label is
// an epsilon transition.
type InspectTransition struct {
	Source string `json:"source"`
	Label  string `json:"label"`
	Target string `json:"target"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <definition>",
		Short: "Show parts of the compiled automaton",
		Long: `Compile a definition and print one part of its automaton:

  states       every state, with initial (>) and accepting (*) marks
  transitions  every transition, epsilon shown as "eps"
  alphabet     the sorted event labels
  stats        state and transition counts

Examples:
  choreo inspect delivery.cue --what alphabet --render receive
  choreo inspect delivery.cue --what stats --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.What, "what", "stats", "what to show (states|transitions|alphabet|stats)")
	cmd.Flags().BoolVar(&opts.StrictInclusive, "strict-inclusive", false, "require at least one inclusive branch")
	addRenderFlag(cmd, rootOpts)

	return cmd
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if !slices.Contains(ValidInspections, opts.What) {
		return commandError(formatter, ErrCodeGeneric,
			fmt.Sprintf("invalid --what %q: must be one of %v", opts.What, ValidInspections), nil)
	}

	c, err := loadDefinition(formatter, opts.RootOptions, path, opts.StrictInclusive)
	if err != nil {
		return err
	}
	a := c.NFA
	w := formatter.Writer

	switch opts.What {
	case "states":
		states := inspectStates(a)
		if formatter.IsJSON() {
			return formatter.Success(states)
		}
		for _, s := range states {
			mark := " "
			if s.Initial {
				mark = ">"
			}
			final := ""
			if s.Final {
				final = " *"
			}
			fmt.Fprintf(w, "%s %s%s\n", mark, s.Name, final)
		}

	case "transitions":
		transitions := inspectTransitions(a)
		if formatter.IsJSON() {
			return formatter.Success(transitions)
		}
		for _, t := range transitions {
			fmt.Fprintf(w, "%s --%s--> %s\n", t.Source, labelText(t.Label), t.Target)
		}

	case "alphabet":
		labels := a.Labels()
		if formatter.IsJSON() {
			return formatter.Success(labels)
		}
		for _, l := range labels {
			fmt.Fprintln(w, l)
		}

	case "stats":
		st := a.Stats()
		if formatter.IsJSON() {
			return formatter.Success(st)
		}
		fmt.Fprintf(w, "states:              %d\n", st.States)
		fmt.Fprintf(w, "final states:        %d\n", st.Finals)
		fmt.Fprintf(w, "transitions:         %d\n", st.Transitions)
		fmt.Fprintf(w, "epsilon transitions: %d\n", st.EpsilonTransitions)
		fmt.Fprintf(w, "max fan-out:         %d\n", st.MaxFanOut)
	}
	return nil
}

func inspectStates(a *nfa.NFA) []InspectState {
	ids := a.States()
	out := make([]InspectState, len(ids))
	for i, id := range ids {
		out[i] = InspectState{Name: a.Name(id), Initial: a.IsInitial(id), Final: a.IsFinalState(id)}
	}
	return out
}

func inspectTransitions(a *nfa.NFA) []InspectTransition {
	ts := a.Transitions()
	out := make([]InspectTransition, len(ts))
	for i, t := range ts {
		out[i] = InspectTransition{Source: a.Name(t.Source), Label: t.Label, Target: a.Name(t.Target)}
	}
	return out
}
