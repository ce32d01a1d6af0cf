package generation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Nexora-Open-Source/smartedu/monitoring"
	"github.com/sirupsen/logrus"
)

// Options configures a watcher
type Options struct {
	// Time between scheduled polls
	Interval time.Duration
	// Scheduled polls allowed to find the entity not ready before timing
	// out. The immediate fetch is not counted.
	MaxAttempts int
	// Fetch once before the first interval
	Immediate bool
	// Generation was just triggered. When false the watcher checks once and
	// ends in NotReady if nothing has been generated.
	Generating bool
}

// DefaultOptions polls every 10s for about 24 minutes
func DefaultOptions() Options {
	return Options{
		Interval:    10 * time.Second,
		MaxAttempts: 144,
		Immediate:   true,
	}
}

// Watcher polls a Fetcher until the entity is ready, the attempts run out,
// the fetch fails or the watcher is stopped.
//
// Polls are sequential: the next poll is scheduled only after the previous
// result has been applied. After Stop no transition is applied, even if a
// fetch that was in flight resolves later.
type Watcher struct {
	job     Job
	fetcher Fetcher
	opts    Options
	logger  *logrus.Logger

	mu       sync.Mutex
	status   Status
	alive    bool
	started  bool
	cancel   context.CancelFunc
	onChange func(Status)
	done     chan struct{}
}

// NewWatcher creates an idle watcher for job
func NewWatcher(job Job, fetcher Fetcher, opts Options, logger *logrus.Logger) *Watcher {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultOptions().Interval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultOptions().MaxAttempts
	}
	return &Watcher{
		job:     job,
		fetcher: fetcher,
		opts:    opts,
		logger:  logger,
		status: Status{
			State:       Idle,
			Interval:    opts.Interval,
			MaxAttempts: opts.MaxAttempts,
		},
		done: make(chan struct{}),
	}
}

// OnChange registers a callback for every status transition. It must be set
// before Start. Calls are never concurrent and arrive in transition order;
// a transition applied just before Stop may still be delivered after it.
func (w *Watcher) OnChange(fn func(Status)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Job returns the watched job
func (w *Watcher) Job() Job {
	return w.job
}

// Options returns the effective options
func (w *Watcher) Options() Options {
	return w.opts
}

// Status returns the current status
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Done is closed once the watcher has reached a terminal state or stopped
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Finished reports whether Done is closed
func (w *Watcher) Finished() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the watcher is done or ctx ends and returns the status
func (w *Watcher) Wait(ctx context.Context) (Status, error) {
	select {
	case <-w.done:
		return w.Status(), nil
	case <-ctx.Done():
		return w.Status(), ctx.Err()
	}
}

// Start moves the watcher from Idle to Polling and begins fetching. A job
// without an id fails immediately with ErrMissingID and no fetch is made.
// Cancelling ctx has the same effect as Stop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.started = true
	now := time.Now()

	if strings.TrimSpace(w.job.ID) == "" {
		w.status.State = Failed
		w.status.Message = ErrMissingID.Error()
		w.status.StartedAt = now
		w.status.UpdatedAt = now
		st, notify := w.status, w.onChange
		close(w.done)
		w.mu.Unlock()

		w.logger.WithField("kind", w.job.Kind).Error("Watcher started without a target id")
		if notify != nil {
			notify(st)
		}
		return ErrMissingID
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.alive = true
	w.status.State = Polling
	w.status.Attempt = 0
	w.status.StartedAt = now
	w.status.UpdatedAt = now
	st, notify := w.status, w.onChange
	w.mu.Unlock()

	monitoring.WatcherStarted()
	w.logger.WithFields(logrus.Fields{
		"kind":         w.job.Kind,
		"id":           w.job.ID,
		"generating":   w.opts.Generating,
		"interval":     w.opts.Interval.String(),
		"max_attempts": w.opts.MaxAttempts,
	}).Info("Watcher started")

	// Delivered before the poll goroutine exists so callbacks stay ordered
	if notify != nil {
		notify(st)
	}

	go w.run(ctx)
	return nil
}

// Stop cancels the pending timer and any in-flight fetch. The status keeps
// its last value. Stop is idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	w.alive = false
	cancel := w.cancel
	if !w.started {
		w.started = true
		close(w.done)
	}
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer w.finish()

	if w.opts.Immediate || !w.opts.Generating {
		outcome, ok := w.fetch(ctx)
		if !ok {
			return
		}
		switch outcome.Kind {
		case OutcomeReady:
			w.transition(Status{State: Ready, Payload: outcome.Data})
			return
		case OutcomeFailed:
			w.transition(Status{State: Failed, Message: outcome.Message})
			return
		}
		if !w.opts.Generating {
			w.transition(Status{State: NotReady})
			return
		}
	}

	attempt := 0
	timer := time.NewTimer(w.opts.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		outcome, ok := w.fetch(ctx)
		if !ok {
			return
		}
		switch outcome.Kind {
		case OutcomeReady:
			w.transition(Status{State: Ready, Attempt: attempt, Payload: outcome.Data})
			return
		case OutcomeFailed:
			w.transition(Status{State: Failed, Attempt: attempt, Message: outcome.Message})
			return
		}

		attempt++
		if attempt >= w.opts.MaxAttempts {
			w.transition(Status{State: TimedOut, Attempt: attempt})
			return
		}
		if !w.transition(Status{State: Polling, Attempt: attempt}) {
			return
		}
		timer.Reset(w.opts.Interval)
	}
}

// fetch performs one fetch. ok is false when the watcher was stopped while
// the fetch was in flight; the outcome must then be discarded.
func (w *Watcher) fetch(ctx context.Context) (outcome Outcome, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.WithFields(logrus.Fields{
				"kind":  w.job.Kind,
				"id":    w.job.ID,
				"panic": fmt.Sprint(r),
			}).Error("Fetcher panicked")
			outcome = FailedOutcome(fmt.Sprintf("internal error: %v", r))
			ok = ctx.Err() == nil
		}
	}()

	outcome = w.fetcher.Fetch(ctx, w.job.ID)
	if ctx.Err() != nil {
		return outcome, false
	}
	monitoring.RecordPollAttempt(string(w.job.Kind), outcome.Kind.String())

	fields := logrus.Fields{"kind": w.job.Kind, "id": w.job.ID}
	switch outcome.Kind {
	case OutcomeNotReady:
		w.logger.WithFields(fields).Debug("Generated entity not ready yet")
	case OutcomeFailed:
		w.logger.WithFields(fields).WithField("message", outcome.Message).Warn("Fetching generated entity failed")
	}
	return outcome, true
}

// transition applies next if the watcher is still alive and notifies the
// callback. It reports whether the transition was applied.
func (w *Watcher) transition(next Status) bool {
	w.mu.Lock()
	if !w.alive {
		w.mu.Unlock()
		return false
	}
	next.StartedAt = w.status.StartedAt
	next.Interval = w.status.Interval
	next.MaxAttempts = w.status.MaxAttempts
	next.UpdatedAt = time.Now()
	w.status = next
	if next.State.Terminal() {
		w.alive = false
	}
	notify := w.onChange
	w.mu.Unlock()

	if notify != nil {
		notify(next)
	}
	return true
}

func (w *Watcher) finish() {
	w.mu.Lock()
	w.alive = false
	st := w.status
	w.mu.Unlock()

	w.cancel()
	close(w.done)
	monitoring.WatcherStopped()

	fields := logrus.Fields{
		"kind":        w.job.Kind,
		"id":          w.job.ID,
		"state":       st.State.String(),
		"attempt":     st.Attempt,
		"duration_ms": time.Since(st.StartedAt).Milliseconds(),
	}
	if !st.State.Terminal() {
		w.logger.WithFields(fields).Info("Watcher stopped")
		return
	}
	monitoring.RecordWatcherFinished(string(w.job.Kind), st.State.String(), time.Since(st.StartedAt).Seconds())
	switch st.State {
	case Failed:
		w.logger.WithFields(fields).WithField("message", st.Message).Warn("Generation failed")
	case TimedOut:
		w.logger.WithFields(fields).Warn("Generation timed out")
	default:
		w.logger.WithFields(fields).Info("Watcher finished")
	}
}
