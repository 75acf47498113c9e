package loop

import (
	"context"
	"sync/atomic"
	"time"

	"demokit/internal/config"
	"demokit/internal/delay"

	"go.uber.org/zap"
)

// Spec describes one ticking loop.
type Spec struct {
	Name     string
	Interval time.Duration
	// MilestoneEvery emits an extra line every N iterations; 0 disables it.
	MilestoneEvery uint64
}

// DefaultWorkers returns the three background loops of the demo.
func DefaultWorkers() []Spec {
	return []Spec{
		{Name: "Thread 1", Interval: 100 * time.Millisecond},
		{Name: "Thread 2", Interval: 150 * time.Millisecond},
		{Name: "Thread 3", Interval: 200 * time.Millisecond},
	}
}

// DefaultMain returns the loop run by the supervisor's own goroutine.
func DefaultMain() Spec {
	return Spec{Name: "Main thread", Interval: 120 * time.Millisecond, MilestoneEvery: 10}
}

// SpecFromConfig converts a config loop entry.
func SpecFromConfig(c config.LoopSpec) Spec {
	return Spec{
		Name:           c.Name,
		Interval:       c.GetInterval(),
		MilestoneEvery: c.MilestoneEvery,
	}
}

// Worker runs a single Spec. Its counter is private to Run.
type Worker struct {
	spec    Spec
	console *Console
	delayer delay.Delayer
	log     *zap.Logger

	limit uint64
	count atomic.Uint64
}

// NewWorker creates a worker that prints to console and pauses with delayer.
func NewWorker(spec Spec, console *Console, delayer delay.Delayer, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	w := &Worker{
		spec:    spec,
		console: console,
		delayer: delayer,
	}
	w.setLogger(log)
	return w
}

// setLogger must not be called while Run is active.
func (w *Worker) setLogger(log *zap.Logger) {
	w.log = log.With(zap.String("loop", w.spec.Name))
}

// SetLimit bounds Run to n iterations. 0 means run until cancelled.
func (w *Worker) SetLimit(n uint64) {
	w.limit = n
}

// Name returns the loop name.
func (w *Worker) Name() string {
	return w.spec.Name
}

// Count returns the last printed iteration.
func (w *Worker) Count() uint64 {
	return w.count.Load()
}

// Run loops until ctx is done or the limit is reached.
// Cancellation is a normal stop and returns nil.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Debug("loop started", zap.Duration("interval", w.spec.Interval))

	var counter uint64
	for {
		if ctx.Err() != nil {
			break
		}

		counter++
		w.count.Store(counter)
		w.console.Printf("%s: iteration %d", w.spec.Name, counter)

		if w.spec.MilestoneEvery > 0 && counter%w.spec.MilestoneEvery == 0 {
			w.console.Printf("%s: %d iterations completed, child threads still running", w.spec.Name, counter)
		}

		if w.limit > 0 && counter >= w.limit {
			break
		}

		if err := w.delayer.Delay(ctx, w.spec.Interval); err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}
	}

	w.log.Debug("loop stopped", zap.Uint64("iterations", counter))
	return nil
}
