package nfa

import "fmt"

// Match is the outcome of ReadString.
type Match struct {
	// Accepted is true when all input was consumed and the reached states
	// include an accepting one.
	Accepted bool

	// States are the states the matcher settled in. On acceptance these are
	// the accepting branches; on failure, the branches that got furthest.
	States StateSet

	// Remaining is the unconsumed suffix of the input.
	Remaining string
}

// ReadString tokenizes input and runs it from the initial state.
//
// Tokens are consumed one at a time. While a single state is reachable the
// run is deterministic; when a token leads to several states, each one is
// explored recursively on the rest of the input. If any branch consumes
// everything and ends in an accepting closure the match is accepted with the
// union of such branches. Otherwise the branch with the shortest remaining
// input wins, and branches tied on that remainder have their states united.
//
// A rejected token is not consumed. The outcome of a branch depends only on
// its state and input position, so outcomes are memoised and the search is
// bounded by the number of states times the number of tokens.
func (a *NFA) ReadString(input string) (Match, error) {
	init, ok := a.Initial()
	if !ok {
		return Match{}, ErrNoInitialState
	}
	return a.newMatcher(input).readFrom(init)
}

// ReadStringFrom is like ReadString but starts from state.
func (a *NFA) ReadStringFrom(state StateID, input string) (Match, error) {
	if !a.valid(state) {
		return Match{}, fmt.Errorf("read string: %w: %d", ErrUnknownState, state)
	}
	return a.newMatcher(input).readFrom(state)
}

type branchKey struct {
	state StateID
	pos   int
}

type matcher struct {
	a    *NFA
	sc   *Scanner
	memo map[branchKey]Match
}

func (a *NFA) newMatcher(input string) *matcher {
	return &matcher{a: a, sc: NewScanner(input), memo: make(map[branchKey]Match)}
}

func (m *matcher) readFrom(cur StateID) (Match, error) {
	key := branchKey{cur, m.sc.Pos()}
	if res, ok := m.memo[key]; ok {
		return res, nil
	}
	res, err := m.run(cur)
	if err != nil {
		return Match{}, err
	}
	m.memo[key] = res
	return res, nil
}

func (m *matcher) run(cur StateID) (Match, error) {
	a, sc := m.a, m.sc
	sc.Mark()
	defer sc.Reset()

	for !sc.EOF() {
		tok, err := sc.Next()
		if err != nil {
			return Match{}, err
		}

		reached := a.ReadSymbol(tok, NewStateSet(cur))
		switch reached.Len() {
		case 0:
			if err := sc.Undo(); err != nil {
				return Match{}, err
			}
			return Match{States: NewStateSet(a.extension(cur)), Remaining: sc.Remaining()}, nil
		case 1:
			cur, _ = reached.First()
		default:
			return m.explore(reached)
		}
	}

	closure := a.ClosureOf(cur)
	return Match{Accepted: a.IsFinal(closure), States: closure, Remaining: sc.Remaining()}, nil
}

// explore runs every branch from the same scanner position and merges the
// outcomes.
func (m *matcher) explore(branches StateSet) (Match, error) {
	var (
		accepted StateSet
		best     *Match
	)
	for _, s := range branches.IDs() {
		res, err := m.readFrom(s)
		if err != nil {
			return Match{}, err
		}
		switch {
		case res.Accepted:
			accepted.AddAll(res.States)
		case best == nil || len(res.Remaining) < len(best.Remaining):
			best = &res
		case res.Remaining == best.Remaining:
			best.States = best.States.Union(res.States)
		}
	}

	if !accepted.IsEmpty() {
		return Match{Accepted: true, States: accepted}, nil
	}
	return *best, nil
}

// extension picks the state reported when a token is rejected at s: s
// itself if accepting, else the lowest accepting state in its closure,
// else s.
func (a *NFA) extension(s StateID) StateID {
	if a.IsFinalState(s) {
		return s
	}
	for _, c := range a.ClosureOf(s).IDs() {
		if a.IsFinalState(c) {
			return c
		}
	}
	return s
}
