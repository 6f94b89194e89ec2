package engine

import (
	"context"
	"errors"
	"log/slog"
)

// Runner drains an event queue into one Instance.
//
// Thread-safety model:
//   - Enqueue(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Stop(): safe from any goroutine
//
// All mutation of the instance happens in the Run goroutine.
type Runner struct {
	inst      *Instance
	queue     *eventQueue
	logger    *slog.Logger
	onOutput  func(string)
	stopOnEnd bool
	keepOpen  bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithOutputHandler registers fn to receive every output event.
// fn runs on the Run goroutine.
func WithOutputHandler(fn func(string)) RunnerOption {
	return func(r *Runner) {
		r.onOutput = fn
	}
}

// WithStopOnEnd makes Run return as soon as the instance ends.
func WithStopOnEnd(stop bool) RunnerOption {
	return func(r *Runner) {
		r.stopOnEnd = stop
	}
}

// WithKeepOpen leaves the instance running when Run returns, so that a
// later runner or Feed call can continue it.
func WithKeepOpen(keep bool) RunnerOption {
	return func(r *Runner) {
		r.keepOpen = keep
	}
}

// NewRunner creates a runner for inst.
func NewRunner(inst *Instance, opts ...RunnerOption) *Runner {
	r := &Runner{
		inst:   inst,
		queue:  newEventQueue(),
		logger: inst.cfg.logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enqueue submits an event. Returns false once the runner is stopped.
func (r *Runner) Enqueue(event string) bool {
	return r.queue.Enqueue(event)
}

// QueueLen returns the number of events waiting.
func (r *Runner) QueueLen() int {
	return r.queue.Len()
}

// Stop closes the queue. Run processes what is already queued and returns.
func (r *Runner) Stop() {
	r.queue.Close()
}

// Run starts the instance if needed and processes queued events until the
// queue is closed and drained, the context is cancelled, or, with
// WithStopOnEnd, the instance ends. The instance is stopped on return
// unless WithKeepOpen is set.
func (r *Runner) Run(ctx context.Context) error {
	if !r.inst.Running {
		if err := r.inst.Start(); err != nil {
			return err
		}
	}
	r.logger.Info("runner starting")
	if !r.keepOpen {
		defer r.stopInstance()
	}

	for {
		event, ok := r.queue.TryDequeue()
		if ok {
			r.process(event)
			if r.stopOnEnd && r.inst.Ended() {
				r.logger.Info("runner stopping: instance ended")
				r.queue.Close()
				return nil
			}
			continue
		}

		select {
		case <-ctx.Done():
			r.logger.Info("runner stopping: context cancelled")
			r.queue.Close()
			return ctx.Err()

		case <-r.queue.Wait():
			if r.queue.Drained() {
				r.logger.Info("runner stopping: queue closed")
				return nil
			}
		}
	}
}

func (r *Runner) process(event string) {
	outs, err := r.inst.Feed(event)
	if err != nil {
		// Logged and skipped so that later events still reach the instance.
		if errors.Is(err, ErrInstanceEnded) {
			r.logger.Warn("event after end", "event", event)
		} else {
			r.logger.Error("event failed", "event", event, "error", err)
		}
		return
	}
	if r.onOutput != nil {
		for _, out := range outs {
			r.onOutput(out)
		}
	}
}

func (r *Runner) stopInstance() {
	if r.inst.Running {
		if err := r.inst.Stop(); err != nil {
			r.logger.Error("stop instance", "error", err)
		}
	}
}
