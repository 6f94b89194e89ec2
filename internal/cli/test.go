package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/choreo/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update   bool   // regenerate golden files
	Filter   string // scenario filter (glob pattern)
	Parallel int
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name    string   `json:"name"`
	Pass    bool     `json:"pass"`
	Outputs []string `json:"outputs"`
	Ended   bool     `json:"ended"`
	Errors  []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run the *.scenario.yaml files of a directory.

Each scenario compiles its definition, feeds its events to a fresh
instance, replays the stored instance and checks the expected outputs
and assertions. When <scenarios-dir>/golden/<name>.golden exists the
trace must match it byte for byte; --update rewrites the golden files.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, unreadable scenario, etc.)

Examples:
  choreo test ./scenarios
  choreo test ./scenarios --filter "delivery-*"
  choreo test ./scenarios --update
  choreo test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 4, "scenarios run at once (0 = unlimited)")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return commandError(formatter, ErrCodeLoad, fmt.Sprintf("scenarios directory not found: %s", dir), nil)
	}

	scenarios, err := harness.LoadDir(dir)
	if err != nil {
		return commandError(formatter, ErrCodeLoad, "failed to load scenarios", err)
	}
	scenarios, err = filterScenarios(scenarios, opts.Filter)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, "invalid filter pattern", err)
	}

	if len(scenarios) == 0 {
		if formatter.IsJSON() {
			return formatter.Success(TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	results, err := harness.RunAll(cmd.Context(), scenarios, harness.Options{
		Logger:   opts.logger(),
		Parallel: opts.Parallel,
	})
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, "failed to run scenarios", err)
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(results)),
		Total:     len(results),
	}
	for _, r := range results {
		if r.Pass && (opts.Update || hasGolden(dir, r.Scenario)) {
			if err := harness.CheckGolden(dir, r, opts.Update); err != nil {
				r.AddError(err.Error())
			}
		}
		result.Scenarios = append(result.Scenarios, ScenarioResult{
			Name:    r.Scenario,
			Pass:    r.Pass,
			Outputs: r.Outputs,
			Ended:   r.Ended,
			Errors:  r.Errors,
		})
		if r.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.IsJSON() {
		if result.Failed > 0 {
			_ = formatter.Failure(ErrCodeTestFailed, fmt.Sprintf("%d scenario(s) failed", result.Failed), result)
			return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
		}
		return formatter.Success(result)
	}
	return outputTestText(formatter, result, opts.Update)
}

func filterScenarios(scenarios []*harness.Scenario, pattern string) ([]*harness.Scenario, error) {
	if pattern == "" {
		return scenarios, nil
	}
	var kept []*harness.Scenario
	for _, s := range scenarios {
		matched, err := filepath.Match(pattern, s.Name)
		if err != nil {
			return nil, err
		}
		if matched {
			kept = append(kept, s)
		}
	}
	return kept, nil
}

func hasGolden(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, harness.GoldenDir, name+".golden"))
	return err == nil
}

func outputTestText(f *OutputFormatter, result TestResult, updated bool) error {
	w := f.Writer
	for _, s := range result.Scenarios {
		if s.Pass {
			f.OK("%s", s.Name)
			continue
		}
		fmt.Fprintln(w, f.Styles.Fail.Render("✗ "+s.Name))
		for _, e := range s.Errors {
			fmt.Fprintf(w, "    %s\n", e)
		}
	}

	fmt.Fprintln(w)
	if updated {
		fmt.Fprintln(w, f.Styles.Muted.Render("golden files updated"))
	}
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}
