package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the outputs to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Outputs  []string // Full output log for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nOutputs:\n")
	for i, out := range e.Outputs {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, out)
	}

	return buf.String()
}

// assertOutputContains checks that the event was emitted at least once.
func assertOutputContains(r *Result, a Assertion) error {
	if slices.Contains(r.Outputs, a.Event) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutputContains,
		Expected: fmt.Sprintf("output %s", a.Event),
		Actual:   "not found in outputs",
		Outputs:  r.Outputs,
	}
}

// assertOutputOrder checks that events were emitted in the given order.
// Events don't need to be consecutive; each is matched after the previous.
func assertOutputOrder(r *Result, a Assertion) error {
	pos := 0
	for i, want := range a.Events {
		idx := slices.Index(r.Outputs[pos:], want)
		if idx < 0 {
			actual := fmt.Sprintf("missing event: %s", want)
			if slices.Contains(r.Outputs, want) {
				actual = fmt.Sprintf("%s emitted before %s", want, a.Events[i-1])
			}
			return &AssertionError{
				Type:     AssertOutputOrder,
				Expected: fmt.Sprintf("events in order: %v", a.Events),
				Actual:   actual,
				Outputs:  r.Outputs,
			}
		}
		pos += idx + 1
	}
	return nil
}

// assertOutputCount checks that the event was emitted exactly Count times.
func assertOutputCount(r *Result, a Assertion) error {
	count := 0
	for _, out := range r.Outputs {
		if out == a.Event {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutputCount,
		Expected: fmt.Sprintf("%s emitted %d times", a.Event, a.Count),
		Actual:   fmt.Sprintf("emitted %d times", count),
		Outputs:  r.Outputs,
	}
}

// assertBuffered checks that the event sat in the buffer after some step.
func assertBuffered(r *Result, a Assertion) error {
	for _, entry := range r.Trace {
		if slices.Contains(entry.Buffer, a.Event) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertBuffered,
		Expected: fmt.Sprintf("%s buffered at some step", a.Event),
		Actual:   "never buffered",
		Outputs:  r.Outputs,
	}
}

// assertFinalStates checks the current states at the end of the run,
// ignoring order.
func assertFinalStates(r *Result, a Assertion) error {
	got := slices.Sorted(slices.Values(r.States))
	want := slices.Sorted(slices.Values(a.States))
	if slices.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalStates,
		Expected: fmt.Sprintf("states %v", want),
		Actual:   fmt.Sprintf("states %v", got),
		Outputs:  r.Outputs,
	}
}

// EvaluateAssertions runs every assertion against the result and returns
// the failure messages, in assertion order.
func EvaluateAssertions(r *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertOutputContains:
			err = assertOutputContains(r, a)
		case AssertOutputOrder:
			err = assertOutputOrder(r, a)
		case AssertOutputCount:
			err = assertOutputCount(r, a)
		case AssertBuffered:
			err = assertBuffered(r, a)
		case AssertFinalStates:
			err = assertFinalStates(r, a)
		default:
			err = fmt.Errorf("unknown assertion type: %s", a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}
