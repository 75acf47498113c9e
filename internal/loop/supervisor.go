// Package loop runs the eternal loop demo: background workers that print an
// incrementing counter at a fixed cadence, plus a main loop driven by the
// caller that also reports milestones.
//
// Loops never share state. The Console is the only shared resource and it
// keeps each printed line intact. Everything stops when the context passed
// to Supervisor.Run is cancelled, or when the main loop reaches its limit.
package loop

import (
	"context"
	"fmt"

	"demokit/internal/delay"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Supervisor starts the background workers and drives the main loop.
type Supervisor struct {
	workers []*Worker
	main    *Worker
	console *Console
	log     *zap.Logger
}

// NewSupervisor builds one Worker per spec plus the main loop. All share delayer.
func NewSupervisor(workers []Spec, main Spec, console *Console, delayer delay.Delayer, log *zap.Logger) *Supervisor {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Supervisor{
		console: console,
		log:     log,
		main:    NewWorker(main, console, delayer, log),
	}
	for _, spec := range workers {
		s.workers = append(s.workers, NewWorker(spec, console, delayer, log))
	}
	return s
}

// SetIterations bounds the main loop. When it finishes, the workers are stopped.
func (s *Supervisor) SetIterations(n uint64) {
	s.main.SetLimit(n)
}

// Workers returns the background workers.
func (s *Supervisor) Workers() []*Worker {
	return s.workers
}

// Main returns the main loop worker.
func (s *Supervisor) Main() *Worker {
	return s.main
}

// Run prints the banner, starts the workers, then runs the main loop on the
// calling goroutine. It returns after every loop has stopped.
func (s *Supervisor) Run(ctx context.Context) error {
	runID := uuid.NewString()
	log := s.log.With(zap.String("run_id", runID))
	s.main.setLogger(log)
	for _, w := range s.workers {
		w.setLogger(log)
	}

	s.console.Println("Starting multi-threaded eternal loop demo...")
	s.console.Printf("Spawning %d threads that will run forever until the demo is stopped", len(s.workers))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	for _, w := range s.workers {
		w := w
		g.Go(func() error {
			if err := w.Run(gctx); err != nil {
				return fmt.Errorf("%s: %w", w.Name(), err)
			}
			return nil
		})
	}
	log.Info("workers spawned", zap.Int("workers", len(s.workers)))

	s.console.Println("All threads spawned, waiting for them to complete...")
	s.console.Println("(They won't complete unless the demo is stopped)")

	mainErr := s.main.Run(gctx)

	// The main loop is done (cancelled or limit reached); stop the rest.
	cancel()
	waitErr := g.Wait()

	fields := []zap.Field{zap.Uint64("main_iterations", s.main.Count())}
	for _, w := range s.workers {
		fields = append(fields, zap.Uint64(w.Name(), w.Count()))
	}
	log.Info("all loops stopped", fields...)

	if mainErr != nil {
		return fmt.Errorf("%s: %w", s.main.Name(), mainErr)
	}
	return waitErr
}
