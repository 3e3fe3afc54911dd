// Package watch reruns a scan on a cron schedule and reports drift in the
// target's open-port set. Only the most recent open set stays in memory
// between iterations; there is no persistence across process restarts.
package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/veriscan/veriscan/internal/errors"
	"github.com/veriscan/veriscan/internal/logging"
	"github.com/veriscan/veriscan/internal/ports"
)

// Runner performs one scan iteration and returns the open-port set it found.
type Runner func(ctx context.Context) (ports.Set, error)

// Drift describes one watch iteration's outcome relative to the previous
// one. On the first iteration Baseline is true and the diff slices are
// empty; afterwards Appeared and Disappeared carry the changes in
// ascending port order.
type Drift struct {
	Iteration   int
	Baseline    bool
	Open        []ports.Port
	Appeared    []ports.Port
	Disappeared []ports.Port
	At          time.Time
}

// Changed reports whether this iteration differs from the previous one.
func (d Drift) Changed() bool {
	return len(d.Appeared) > 0 || len(d.Disappeared) > 0
}

// Watcher schedules repeated scans of one target.
type Watcher struct {
	schedule string
	runner   Runner
	logger   *logging.Logger
	cron     *cron.Cron

	mu        sync.Mutex
	running   bool
	iteration int
	previous  ports.Set

	onDrift func(Drift)
}

// New validates the cron schedule and returns a watcher that invokes runner
// on that schedule. Standard five-field expressions and descriptors like
// "@every 30s" are both accepted.
func New(schedule string, runner Runner) (*Watcher, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, errors.NewConfigFieldError(errors.CodeValidation,
			"Invalid watch schedule", "watch.schedule", schedule)
	}
	if runner == nil {
		return nil, errors.NewConfigFieldError(errors.CodeConfiguration,
			"Watch runner is required", "watch.runner", nil)
	}

	return &Watcher{
		schedule: schedule,
		runner:   runner,
		logger:   logging.Default().WithComponent("watch"),
		// A scan that outlasts the interval skips the next tick instead of
		// overlapping it; iterations never run concurrently.
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}, nil
}

// SetDriftFunc registers fn to receive every iteration's outcome, baseline
// included. fn runs on the scheduler goroutine and must not block.
func (w *Watcher) SetDriftFunc(fn func(Drift)) {
	w.onDrift = fn
}

// Start runs one scan immediately, then on every schedule tick, until ctx
// is canceled. It blocks for the watcher's whole lifetime and waits for an
// in-flight iteration before returning.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher is already running")
	}
	w.running = true
	w.mu.Unlock()

	w.logger.InfoWatch("watch started", "schedule", w.schedule)

	// First iteration establishes the baseline right away rather than
	// waiting out the first schedule interval.
	w.tick(ctx)

	if _, err := w.cron.AddFunc(w.schedule, func() {
		w.tick(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule watch: %w", err)
	}
	w.cron.Start()

	<-ctx.Done()

	stopCtx := w.cron.Stop()
	<-stopCtx.Done()

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.InfoWatch("watch stopped", "iterations", w.Iterations())
	return nil
}

// Iterations returns how many scan iterations have run.
func (w *Watcher) Iterations() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.iteration
}

func (w *Watcher) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	w.mu.Lock()
	w.iteration++
	iteration := w.iteration
	w.mu.Unlock()

	open, err := w.runner(ctx)
	if err != nil {
		// A failed iteration keeps the previous baseline; the next
		// successful run diffs against it.
		w.logger.ErrorWatch("scheduled scan failed", err, "iteration", iteration)
		return
	}

	w.mu.Lock()
	previous := w.previous
	w.previous = open
	w.mu.Unlock()

	drift := Drift{
		Iteration: iteration,
		Open:      open.Sorted(),
		At:        time.Now(),
	}

	if previous == nil {
		drift.Baseline = true
		drift.Appeared = []ports.Port{}
		drift.Disappeared = []ports.Port{}
		w.logger.InfoWatch("baseline established",
			"iteration", iteration,
			"open", open.Len())
	} else {
		drift.Appeared = open.Difference(previous).Sorted()
		drift.Disappeared = previous.Difference(open).Sorted()

		if drift.Changed() {
			w.logger.InfoWatch("open ports changed",
				"iteration", iteration,
				"appeared", len(drift.Appeared),
				"disappeared", len(drift.Disappeared))
		} else {
			w.logger.Debug("no drift", "component", "watch", "iteration", iteration)
		}
	}

	if w.onDrift != nil {
		w.onDrift(drift)
	}
}
