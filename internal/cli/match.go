package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// MatchOptions holds flags for the match command.
type MatchOptions struct {
	*RootOptions
	StrictInclusive bool
}

// MatchResult is the outcome of matching one input string.
type MatchResult struct {
	Input     string   `json:"input"`
	Accepted  bool     `json:"accepted"`
	States    []string `json:"states"`
	Remaining string   `json:"remaining"`
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "match <definition> <input>",
		Short: "Check whether a complete event sequence is accepted",
		Long: `Run a space-separated event sequence through the compiled automaton.

Tokens containing spaces are written in single quotes. The input is
accepted when it is consumed entirely and an accepting state is reached.
On rejection the states that got furthest and the unconsumed rest are
printed.

Exit codes:
  0 - Input accepted
  1 - Input rejected
  2 - Command error

Examples:
  choreo match delivery.cue "'order pizza' 'refuse order'"
  choreo match delivery.cue --render receive "Pizza_Place?pizza_order Customer?refusal"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.StrictInclusive, "strict-inclusive", false, "require at least one inclusive branch")
	addRenderFlag(cmd, rootOpts)

	return cmd
}

func runMatch(opts *MatchOptions, path, input string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	c, err := loadDefinition(formatter, opts.RootOptions, path, opts.StrictInclusive)
	if err != nil {
		return err
	}

	m, err := c.NFA.ReadString(input)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, "failed to read input", err)
	}

	result := MatchResult{
		Input:     input,
		Accepted:  m.Accepted,
		States:    c.NFA.Names(m.States),
		Remaining: m.Remaining,
	}

	if !result.Accepted {
		msg := "input rejected"
		if formatter.IsJSON() {
			_ = formatter.Failure(ErrCodeRejected, msg, result)
		} else {
			_ = formatter.Failure(ErrCodeRejected, msg, nil)
			fmt.Fprintf(formatter.Writer, "  states: %v\n", result.States)
			fmt.Fprintf(formatter.Writer, "  remaining: %q\n", result.Remaining)
		}
		return NewExitError(ExitFailure, msg)
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	formatter.OK("input accepted")
	fmt.Fprintf(formatter.Writer, "  states: %v\n", result.States)
	return nil
}
