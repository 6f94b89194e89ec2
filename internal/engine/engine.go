package engine

import (
	"log/slog"

	"github.com/roach88/choreo/internal/nfa"
)

// Engine is the boundary contract between the Enforcer and a backend.
//
// A backend simulates one compiled choreography against observed events.
// Alternative backends must honour the same contract so the Enforcer stays
// backend-agnostic.
//
// Thread-safety model: an Engine is driven by one goroutine at a time.
// Independent engines share nothing but a read-only automaton.
type Engine interface {
	// ProcessInput handles one observed event and returns the output event,
	// if any.
	ProcessInput(event string) (string, bool)

	// ProcessCheck releases at most one buffered message that has become
	// consumable. Callers invoke it repeatedly until it yields nothing.
	ProcessCheck() (string, bool)

	// Ended reports whether the current states include an accepting one.
	Ended() bool

	// CurrentStates names the current states.
	CurrentStates() []string

	// AllStates names every state of the automaton.
	AllStates() []string

	// BufferItems lists pending delayed receives, one entry per copy.
	BufferItems() []BufferItem
}

// StepOutcome describes what ProcessInput did with an event.
type StepOutcome int

const (
	// OutcomeIgnored means the event was malformed and dropped.
	OutcomeIgnored StepOutcome = iota
	// OutcomePassed means a send event was passed through.
	OutcomePassed
	// OutcomeAccepted means a receive event advanced the states.
	OutcomeAccepted
	// OutcomeBuffered means a receive event was delayed.
	OutcomeBuffered
)

// String returns the lower-case outcome name.
func (o StepOutcome) String() string {
	switch o {
	case OutcomePassed:
		return "passed"
	case OutcomeAccepted:
		return "accepted"
	case OutcomeBuffered:
		return "buffered"
	default:
		return "ignored"
	}
}

// OffChain is the in-process Engine over a compiled automaton.
//
// Rules for one input event, tried in order:
//   - send "a!m": passed through unchanged, no state change
//   - receive "a?m" enabled from a current state: states advance
//   - receive "a?m" not enabled: buffered, no output
//   - anything else: dropped with a warning
//
// The automaton is only read, so one *nfa.NFA may back many engines.
type OffChain struct {
	nfa    *nfa.NFA
	states nfa.StateSet
	buffer *Buffer
	logger *slog.Logger
}

// OffChainOption configures an OffChain engine.
type OffChainOption func(*OffChain)

// WithLogger sets the logger used for rule decisions.
func WithLogger(l *slog.Logger) OffChainOption {
	return func(e *OffChain) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewOffChain creates an engine positioned at the closure of the initial
// state of a.
func NewOffChain(a *nfa.NFA, opts ...OffChainOption) (*OffChain, error) {
	init, ok := a.Initial()
	if !ok {
		return nil, nfa.ErrNoInitialState
	}
	e := &OffChain{
		nfa:    a,
		states: a.ClosureOf(init),
		buffer: NewBuffer(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// NFA returns the automaton the engine runs.
func (e *OffChain) NFA() *nfa.NFA {
	return e.nfa
}

// States returns a copy of the current state set.
func (e *OffChain) States() nfa.StateSet {
	return e.states.Clone()
}

// Buffer returns the delayed-receive buffer. Callers must not modify it.
func (e *OffChain) Buffer() *Buffer {
	return e.buffer
}

// ProcessInput implements Engine.
func (e *OffChain) ProcessInput(event string) (string, bool) {
	out, outcome, err := e.Step(event)
	if err != nil {
		if IsMalformedEvent(err) {
			e.logger.Warn("no matching condition", "event", event)
		} else {
			e.logger.Error("event failed", "event", event, "error", err)
		}
		return "", false
	}
	return out, outcome == OutcomePassed || outcome == OutcomeAccepted
}

// Step applies the input rules to event and reports which one fired.
// Malformed text yields a MALFORMED_EVENT error and changes nothing.
func (e *OffChain) Step(event string) (string, StepOutcome, error) {
	ev := ParseEvent(event)
	switch ev.Kind {
	case EventSend:
		e.logger.Debug("event passed", "event", ev.Text)
		return ev.Text, OutcomePassed, nil

	case EventReceive:
		if !e.nfa.Enabled(ev.Text, e.states) {
			e.buffer.Add(ev.Item())
			e.logger.Info("event buffered", "event", ev.Text, "pending", e.buffer.Len())
			return "", OutcomeBuffered, nil
		}
		if err := e.advance(ev.Text); err != nil {
			return "", OutcomeIgnored, err
		}
		e.logger.Debug("event accepted", "event", ev.Text, "states", e.states.Len())
		return ev.Text, OutcomeAccepted, nil

	default:
		return "", OutcomeIgnored, NewMalformedEventError(event)
	}
}

// ProcessCheck implements Engine.
func (e *OffChain) ProcessCheck() (string, bool) {
	out, err := e.Check()
	if err != nil {
		if IsNoUsableMessage(err) {
			e.logger.Debug("no usable message", "pending", e.buffer.Len())
		} else {
			e.logger.Error("buffer check failed", "error", err)
		}
		return "", false
	}
	return out, true
}

// Check releases the first buffered message, in first-buffered order, that
// is enabled from the current states. It returns NO_USABLE_MESSAGE when
// there is none.
func (e *OffChain) Check() (string, error) {
	item, ok := e.usable()
	if !ok {
		return "", NewNoUsableMessageError(e.buffer.Len())
	}
	event := item.Event()
	if err := e.advance(event); err != nil {
		return "", err
	}
	if err := e.buffer.Remove(item); err != nil {
		return "", err
	}
	e.logger.Debug("event accepted", "event", event, "buffered", true, "states", e.states.Len())
	return event, nil
}

func (e *OffChain) usable() (BufferItem, bool) {
	for _, item := range e.buffer.Pending() {
		if e.nfa.Enabled(item.Event(), e.states) {
			return item, true
		}
	}
	return BufferItem{}, false
}

// advance replaces the current states with those reached by symbol.
func (e *OffChain) advance(symbol string) error {
	reached := e.nfa.ReadSymbol(symbol, e.states)
	if reached.IsEmpty() {
		return NewInvariantError(symbol, e.states.Len())
	}
	e.states = reached
	return nil
}

// Ended implements Engine.
func (e *OffChain) Ended() bool {
	return e.nfa.IsFinal(e.states)
}

// CurrentStates implements Engine.
func (e *OffChain) CurrentStates() []string {
	return e.nfa.Names(e.states)
}

// AllStates implements Engine.
func (e *OffChain) AllStates() []string {
	return e.nfa.Names(nfa.NewStateSet(e.nfa.States()...))
}

// BufferItems implements Engine.
func (e *OffChain) BufferItems() []BufferItem {
	return e.buffer.Items()
}

// IsCurrent reports whether the state called name is current.
func (e *OffChain) IsCurrent(name string) bool {
	id, ok := e.nfa.State(name)
	return ok && e.states.Has(id)
}
