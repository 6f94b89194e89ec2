package engine

import (
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/choreo/internal/nfa"
)

// Config carries the explicit settings of an Enforcer and the instances
// built on it. The zero value is usable.
type Config struct {
	// HistoryLimit caps the retained history entries, oldest dropped first.
	// Zero keeps everything.
	HistoryLimit int

	// Logger receives rule decisions. Defaults to slog.Default().
	Logger *slog.Logger

	// Now stamps instance start and stop times. Defaults to time.Now.
	Now func() time.Time
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// HistoryKind tells what produced a history entry.
type HistoryKind string

const (
	// HistoryStart is the entry recorded when the enforcer is created.
	HistoryStart HistoryKind = "start"
	// HistoryInput is recorded for every ProcessInput.
	HistoryInput HistoryKind = "input"
	// HistoryCheck is recorded when ProcessCheck releases a message.
	HistoryCheck HistoryKind = "check"
)

// HistoryEntry is a snapshot taken after each step.
type HistoryEntry struct {
	Seq    int64       `json:"seq"`
	Kind   HistoryKind `json:"kind"`
	Event  string      `json:"event,omitempty"`
	Output string      `json:"output,omitempty"`
	States []string    `json:"states"`
	Buffer []string    `json:"buffer"`

	// NDFactor is the relative growth of the current state set caused by
	// the step: (after - before) / before.
	NDFactor float64 `json:"nd_factor"`
}

// Result summarises a Consume call.
type Result struct {
	// Outputs are the events emitted, in order: accepted receives, passed
	// sends and released buffered receives.
	Outputs []string `json:"outputs"`

	// Consumed counts the input events processed before the run ended.
	Consumed int `json:"consumed"`

	// Ended reports whether an accepting state was reached.
	Ended bool `json:"ended"`

	// Buffer lists the receives still pending.
	Buffer []string `json:"buffer"`
}

// Enforcer drives an Engine and records a history of its states.
//
// Thread-safety: an Enforcer belongs to one goroutine.
type Enforcer struct {
	engine  Engine
	cfg     Config
	clock   *Clock
	history []HistoryEntry
	logger  *slog.Logger
	ended   bool
}

// NewEnforcer wraps e and records the initial snapshot.
func NewEnforcer(e Engine, cfg Config) *Enforcer {
	f := &Enforcer{
		engine: e,
		cfg:    cfg,
		clock:  NewClock(),
		logger: cfg.logger(),
	}
	f.record(HistoryStart, "", "", 0)
	return f
}

// NewOffChainEnforcer builds an OffChain engine over a and wraps it.
func NewOffChainEnforcer(a *nfa.NFA, cfg Config) (*Enforcer, error) {
	e, err := NewOffChain(a, WithLogger(cfg.logger()))
	if err != nil {
		return nil, err
	}
	return NewEnforcer(e, cfg), nil
}

// Engine returns the wrapped engine.
func (f *Enforcer) Engine() Engine {
	return f.engine
}

// History returns a copy of the recorded entries, oldest first.
func (f *Enforcer) History() []HistoryEntry {
	return slices.Clone(f.history)
}

// Ended reports whether the engine has reached an accepting state.
func (f *Enforcer) Ended() bool {
	return f.engine.Ended()
}

// ProcessInput feeds one event to the engine and records the outcome.
func (f *Enforcer) ProcessInput(event string) (string, bool) {
	before := len(f.engine.CurrentStates())
	out, ok := f.engine.ProcessInput(event)
	nd := ndFactor(before, len(f.engine.CurrentStates()))
	f.logger.Debug("non-determinism factor", "event", event, "factor", nd)
	f.record(HistoryInput, event, out, nd)
	f.noteEnd()
	return out, ok
}

// ProcessCheck asks the engine to release one buffered message. Only a
// successful release is recorded.
func (f *Enforcer) ProcessCheck() (string, bool) {
	before := len(f.engine.CurrentStates())
	out, ok := f.engine.ProcessCheck()
	if !ok {
		return "", false
	}
	nd := ndFactor(before, len(f.engine.CurrentStates()))
	f.logger.Debug("non-determinism factor", "event", out, "factor", nd)
	f.record(HistoryCheck, "", out, nd)
	f.noteEnd()
	return out, true
}

// Drain calls ProcessCheck until it yields nothing and returns the
// released events.
func (f *Enforcer) Drain() []string {
	var outs []string
	for {
		out, ok := f.ProcessCheck()
		if !ok {
			return outs
		}
		outs = append(outs, out)
	}
}

// Step processes one input event and then drains the buffer.
func (f *Enforcer) Step(event string) []string {
	var outs []string
	if out, ok := f.ProcessInput(event); ok {
		outs = append(outs, out)
	}
	return append(outs, f.Drain()...)
}

// Consume processes events in order, draining the buffer after each one.
// It stops as soon as the engine has ended; later events are not consumed.
func (f *Enforcer) Consume(events []string) Result {
	res := Result{}
	for _, ev := range events {
		if f.Ended() {
			break
		}
		res.Outputs = append(res.Outputs, f.Step(ev)...)
		res.Consumed++
	}
	res.Ended = f.Ended()
	res.Buffer = bufferEvents(f.engine.BufferItems())
	return res
}

// ConsumeStream tokenizes a space-separated event stream, honouring single
// quotes, and consumes it.
func (f *Enforcer) ConsumeStream(stream string) (Result, error) {
	events, err := nfa.Tokenize(stream)
	if err != nil {
		return Result{}, err
	}
	return f.Consume(events), nil
}

func (f *Enforcer) noteEnd() {
	if !f.ended && f.engine.Ended() {
		f.ended = true
		f.logger.Info("instance ended", "states", f.engine.CurrentStates())
	}
}

func (f *Enforcer) record(kind HistoryKind, event, output string, nd float64) {
	f.history = append(f.history, HistoryEntry{
		Seq:      f.clock.Next(),
		Kind:     kind,
		Event:    event,
		Output:   output,
		States:   f.engine.CurrentStates(),
		Buffer:   bufferEvents(f.engine.BufferItems()),
		NDFactor: nd,
	})
	if limit := f.cfg.HistoryLimit; limit > 0 && len(f.history) > limit {
		f.history = slices.Clone(f.history[len(f.history)-limit:])
	}
}

func ndFactor(before, after int) float64 {
	if before == 0 {
		return 0
	}
	return float64(after-before) / float64(before)
}

func bufferEvents(items []BufferItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Event()
	}
	return out
}
