package harness

import "github.com/roach88/choreo/internal/engine"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Scenario is the name of the scenario that produced this result.
	Scenario string `json:"scenario"`

	// Pass indicates overall test success.
	// True if every expectation and assertion holds.
	Pass bool `json:"pass"`

	// Hash is the content hash of the compiled definition.
	Hash string `json:"hash"`

	// Outputs are the events the instance emitted, in order.
	Outputs []string `json:"outputs"`

	// Consumed counts the inputs fed before the instance ended.
	Consumed int `json:"consumed"`

	// Ended reports whether an accepting state was reached.
	Ended bool `json:"ended"`

	// Buffer lists the receives still pending at the end of the run.
	Buffer []string `json:"buffer"`

	// States are the current state names at the end of the run.
	States []string `json:"states"`

	// Trace is the enforcer history, one entry per step.
	Trace []engine.HistoryEntry `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Scenario: name,
		Pass:     true,
		Outputs:  []string{},
		Buffer:   []string{},
		Trace:    []engine.HistoryEntry{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
