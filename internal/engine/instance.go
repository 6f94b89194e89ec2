package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/roach88/choreo/internal/nfa"
)

var (
	// ErrAlreadyExecuted is returned when starting an instance that has
	// already been stopped.
	ErrAlreadyExecuted = errors.New("instance has already been executed")

	// ErrNotStarted is returned when stopping an instance that is not running.
	ErrNotStarted = errors.New("instance has not been started")

	// ErrNotRunning is returned when feeding events to a stopped instance.
	ErrNotRunning = errors.New("instance is not running")

	// ErrInstanceEnded is returned when feeding events after the
	// choreography has completed.
	ErrInstanceEnded = errors.New("instance has ended")
)

// Instance is one running execution of a compiled choreography: an
// enforcer plus its input and output logs and lifecycle timestamps.
//
// Lifecycle: created, then Start, then any number of Feed calls, then Stop.
// A stopped instance cannot be restarted.
type Instance struct {
	ID           string
	Label        string
	Choreography string // definition hash
	StartedAt    time.Time
	StoppedAt    time.Time
	Running      bool
	Inputs       []string
	Outputs      []string

	enforcer *Enforcer
	cfg      Config
}

// NewInstance creates an idle instance over a.
func NewInstance(id, label, hash string, a *nfa.NFA, cfg Config) (*Instance, error) {
	if cfg.Logger == nil {
		cfg.Logger = cfg.logger()
	}
	cfg.Logger = cfg.Logger.With("instance", id)

	enf, err := NewOffChainEnforcer(a, cfg)
	if err != nil {
		return nil, fmt.Errorf("new instance %s: %w", id, err)
	}
	return &Instance{
		ID:           id,
		Label:        label,
		Choreography: hash,
		enforcer:     enf,
		cfg:          cfg,
	}, nil
}

// Enforcer returns the instance's enforcer.
func (i *Instance) Enforcer() *Enforcer {
	return i.enforcer
}

// Ended reports whether the choreography has completed.
func (i *Instance) Ended() bool {
	return i.enforcer.Ended()
}

// Start marks the instance running and stamps the start time.
func (i *Instance) Start() error {
	if !i.StoppedAt.IsZero() {
		return fmt.Errorf("start %s: %w", i.ID, ErrAlreadyExecuted)
	}
	i.Running = true
	i.StartedAt = i.cfg.now()
	i.cfg.logger().Info("instance started")
	return nil
}

// Stop stamps the stop time. Stopping twice, or stopping an instance that
// never started, is an error.
func (i *Instance) Stop() error {
	if !i.Running {
		return fmt.Errorf("stop %s: %w", i.ID, ErrNotStarted)
	}
	if !i.StoppedAt.IsZero() {
		return fmt.Errorf("stop %s: %w", i.ID, ErrAlreadyExecuted)
	}
	i.StoppedAt = i.cfg.now()
	i.Running = false
	i.cfg.logger().Info("instance stopped", "ended", i.Ended())
	return nil
}

// Feed processes one event and drains the buffer, logging the input and
// every output.
func (i *Instance) Feed(event string) ([]string, error) {
	if !i.Running {
		return nil, fmt.Errorf("feed %s: %w", i.ID, ErrNotRunning)
	}
	if i.Ended() {
		return nil, fmt.Errorf("feed %s: %w", i.ID, ErrInstanceEnded)
	}
	i.Inputs = append(i.Inputs, event)
	outs := i.enforcer.Step(event)
	i.Outputs = append(i.Outputs, outs...)
	return outs, nil
}

// FeedStream tokenizes stream and feeds each event until the instance ends.
// It returns the outputs and the events left unconsumed.
func (i *Instance) FeedStream(stream string) ([]string, []string, error) {
	events, err := nfa.Tokenize(stream)
	if err != nil {
		return nil, nil, err
	}
	var outs []string
	for n, ev := range events {
		if i.Ended() {
			return outs, events[n:], nil
		}
		o, err := i.Feed(ev)
		if err != nil {
			return outs, events[n:], err
		}
		outs = append(outs, o...)
	}
	return outs, nil, nil
}
