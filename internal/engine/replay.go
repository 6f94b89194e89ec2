package engine

import (
	"slices"

	"github.com/roach88/choreo/internal/nfa"
)

// ReplayResult compares a fresh run over recorded inputs with the outputs
// recorded at the time.
type ReplayResult struct {
	Outputs  []string `json:"outputs"`
	Recorded []string `json:"recorded"`

	// Divergence is the index of the first differing output, or -1 when
	// the two sequences are identical.
	Divergence int  `json:"divergence"`
	Ended      bool `json:"ended"`

	Enforcer *Enforcer `json:"-"`
}

// Identical reports whether the replay reproduced the recorded outputs.
func (r *ReplayResult) Identical() bool {
	return r.Divergence < 0
}

// Replay rebuilds an enforcer over a by feeding inputs in order, draining
// the buffer after each, and compares the outputs with recorded.
//
// Engines are deterministic: the same automaton and inputs always produce
// the same outputs, so any divergence means the automaton changed or the
// record was altered.
func Replay(a *nfa.NFA, inputs, recorded []string, cfg Config) (*ReplayResult, error) {
	enf, err := NewOffChainEnforcer(a, cfg)
	if err != nil {
		return nil, err
	}

	var outs []string
	for _, ev := range inputs {
		outs = append(outs, enf.Step(ev)...)
	}

	return &ReplayResult{
		Outputs:    outs,
		Recorded:   slices.Clone(recorded),
		Divergence: firstDifference(outs, recorded),
		Ended:      enf.Ended(),
		Enforcer:   enf,
	}, nil
}

func firstDifference(a, b []string) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
