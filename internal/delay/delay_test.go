package delay

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock advances by step milliseconds on every read.
type stepClock struct {
	now   atomic.Int64
	step  int64
	reads atomic.Int64
}

func (c *stepClock) NowMillis() int64 {
	c.reads.Add(1)
	return c.now.Add(c.step) - c.step
}

func TestNew(t *testing.T) {
	d, err := New(ModeSleep)
	require.NoError(t, err)
	assert.IsType(t, Sleep{}, d)

	d, err = New(ModeBusy)
	require.NoError(t, err)
	assert.IsType(t, BusyWait{}, d)

	_, err = New("spin")
	assert.Error(t, err)
}

func TestSleep_WaitsAtLeastDuration(t *testing.T) {
	start := time.Now()
	require.NoError(t, Sleep{}.Delay(context.Background(), 30*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Sleep{}.Delay(ctx, time.Hour)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBusyWait_WaitsAtLeastDuration(t *testing.T) {
	start := time.Now()
	require.NoError(t, BusyWait{}.Delay(context.Background(), 25*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestBusyWait_StopsAtTargetOnFakeClock(t *testing.T) {
	clock := &stepClock{step: 10}
	require.NoError(t, BusyWait{Clock: clock}.Delay(context.Background(), 100*time.Millisecond))

	// one read for the start, then polls until the clock is past 100ms
	assert.Equal(t, int64(12), clock.reads.Load())
}

func TestBusyWait_RoundsPartialMillisecondsUp(t *testing.T) {
	clock := &stepClock{step: 1}
	require.NoError(t, BusyWait{Clock: clock}.Delay(context.Background(), 1500*time.Microsecond))

	// 1.5ms becomes 2ms, and the wait ends on the first reading past it
	assert.Equal(t, int64(4), clock.reads.Load())
}

func TestBusyWait_SubMillisecondIntervalNeverUndershoots(t *testing.T) {
	d := 1500 * time.Microsecond
	for i := 0; i < 50; i++ {
		start := time.Now()
		require.NoError(t, BusyWait{}.Delay(context.Background(), d))
		if elapsed := time.Since(start); elapsed < d {
			t.Fatalf("call %d: waited %s, want at least %s", i, elapsed, d)
		}
	}
}

func TestBusyWait_ZeroDurationReturnsImmediately(t *testing.T) {
	clock := &stepClock{step: 1}
	require.NoError(t, BusyWait{Clock: clock}.Delay(context.Background(), 0))
	assert.Equal(t, int64(0), clock.reads.Load())
}

func TestBusyWait_Cancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := BusyWait{}.Delay(ctx, time.Hour)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)
}
