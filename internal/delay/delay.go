// Package delay provides the pause used between iterations of a ticking loop.
//
// Two policies are available: Sleep blocks on a timer, and BusyWait polls a
// millisecond wall clock and yields the processor between polls, for hosts
// where a blocking sleep is unavailable. Callers pick one through New and
// never depend on which one they got.
package delay

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Modes accepted by New.
const (
	ModeSleep = "sleep"
	ModeBusy  = "busy"
)

// Delayer pauses the calling goroutine for d or until ctx is done.
type Delayer interface {
	Delay(ctx context.Context, d time.Duration) error
}

// New returns the Delayer for mode.
func New(mode string) (Delayer, error) {
	switch mode {
	case ModeSleep:
		return Sleep{}, nil
	case ModeBusy:
		return BusyWait{Clock: SystemClock{}}, nil
	default:
		return nil, fmt.Errorf("unknown delay mode %q (valid: %s, %s)", mode, ModeSleep, ModeBusy)
	}
}

// Sleep blocks on a timer.
type Sleep struct{}

// Delay implements Delayer.
func (Sleep) Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Clock reports wall-clock time in milliseconds since the Unix epoch.
type Clock interface {
	NowMillis() int64
}

// SystemClock reads time.Now.
type SystemClock struct{}

// NowMillis implements Clock.
func (SystemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// BusyWait polls Clock until d has elapsed, yielding between polls.
// The clock only has millisecond resolution, so d is rounded up to whole
// milliseconds and the wait ends once strictly more than that has ticked by.
// The start reading may be up to a millisecond stale, which the extra tick absorbs.
type BusyWait struct {
	Clock Clock
}

// Delay implements Delayer.
func (b BusyWait) Delay(ctx context.Context, d time.Duration) error {
	clock := b.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	if d <= 0 {
		return ctx.Err()
	}

	target := int64((d + time.Millisecond - 1) / time.Millisecond)
	start := clock.NowMillis()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if clock.NowMillis()-start > target {
			return nil
		}
		runtime.Gosched()
	}
}
