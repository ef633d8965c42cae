package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsPeriodicTaskImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32

	logger := zerolog.Nop()
	done := make(chan error, 1)

	go func() {
		done <- Loop(ctx, Config{
			Name:         "backup",
			PollInterval: 5 * time.Millisecond,
			PeriodicTasks: []PeriodicTask{{
				Name:     "snapshot",
				Interval: time.Hour,
				Run: func(context.Context) {
					if runs.Add(1) == 1 {
						cancel()
					}
				},
			}},
			Logger: &logger,
		})
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}

	assert.Equal(t, int32(1), runs.Load())
}

func TestLoop_TaskPanicDoesNotStopLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32

	done := make(chan error, 1)

	go func() {
		done <- Loop(ctx, Config{
			Name: "panicky",
			PeriodicTasks: []PeriodicTask{{
				Name:     "boom",
				Interval: time.Millisecond,
				Run: func(context.Context) {
					if runs.Add(1) >= 3 {
						cancel()

						return
					}

					panic("boom")
				},
			}},
		})
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}

	assert.GreaterOrEqual(t, runs.Load(), int32(3))
}

func TestLoop_OnStopRunsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stopped bool

	err := Loop(ctx, Config{
		Name:   "stopper",
		OnStop: func() { stopped = true },
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, stopped)
}

func TestDerivePollInterval(t *testing.T) {
	assert.Equal(t, maxPollInterval, derivePollInterval(nil))
	assert.Equal(t, 10*time.Second, derivePollInterval([]PeriodicTask{
		{Interval: time.Hour},
		{Interval: 10 * time.Second},
		{Interval: 0},
	}))
}

func TestWait(t *testing.T) {
	require.NoError(t, Wait(context.Background(), 0))
	require.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Wait(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunWithTimeout(t *testing.T) {
	err := RunWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()

		return ctx.Err()
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
}
