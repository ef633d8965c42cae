// Package worker provides the background loop used for periodic jobs such as
// snapshot backups, plus context-aware wait and timeout helpers shared by the
// data source retry path.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	logFieldWorker = "worker"
	logFieldTask   = "task"

	// maxPollInterval caps the derived poll interval so cancellation stays responsive.
	maxPollInterval = time.Minute
)

// PeriodicTask represents a task that runs at regular intervals.
type PeriodicTask struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
	lastRun  time.Time
}

// Config configures the worker loop behavior.
type Config struct {
	// Name identifies the worker for logging.
	Name string

	// PollInterval is the time between checks for due tasks. When zero it is
	// derived from the shortest periodic task interval, capped at one minute.
	PollInterval time.Duration

	// PeriodicTasks are run at their configured intervals.
	PeriodicTasks []PeriodicTask

	// OnStop is called once when the loop exits.
	OnStop func()

	// Logger for the worker.
	Logger *zerolog.Logger
}

// Loop runs the periodic tasks until ctx is canceled and returns the wrapped
// context error.
func Loop(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	logger.Info().Str(logFieldWorker, cfg.Name).Msg("starting worker loop")

	defer func() {
		if cfg.OnStop != nil {
			cfg.OnStop()
		}

		logger.Info().Str(logFieldWorker, cfg.Name).Msg("worker loop stopped")
	}()

	// Tasks start with a zero lastRun, so each runs on the first iteration.
	periodicTasks := make([]PeriodicTask, len(cfg.PeriodicTasks))
	copy(periodicTasks, cfg.PeriodicTasks)

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = derivePollInterval(periodicTasks)
	}

	for {
		if err := checkCanceled(ctx, cfg.Name); err != nil {
			return err
		}

		// Run periodic tasks that are due
		runPeriodicTasks(ctx, periodicTasks, logger)

		if err := Wait(ctx, pollInterval); err != nil {
			return err
		}
	}
}

// derivePollInterval returns the shortest task interval, capped at maxPollInterval.
func derivePollInterval(tasks []PeriodicTask) time.Duration {
	poll := maxPollInterval

	for _, t := range tasks {
		if t.Interval > 0 && t.Interval < poll {
			poll = t.Interval
		}
	}

	return poll
}

// runPeriodicTasks runs any periodic tasks that are due. A panicking task is
// logged and does not stop the loop.
func runPeriodicTasks(ctx context.Context, tasks []PeriodicTask, logger *zerolog.Logger) {
	now := time.Now()

	for i := range tasks {
		task := &tasks[i]
		if task.Interval <= 0 || task.Run == nil {
			continue
		}

		if now.Sub(task.lastRun) >= task.Interval {
			logger.Debug().Str(logFieldTask, task.Name).Msg("running periodic task")
			runTask(ctx, task, logger)
			task.lastRun = now
		}
	}
}

func runTask(ctx context.Context, task *PeriodicTask, logger *zerolog.Logger) {
	defer RecoverPanic(logger, task.Name)

	task.Run(ctx)
}

func checkCanceled(ctx context.Context, name string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("worker loop %s: %w", name, ctx.Err())
	default:
		return nil
	}
}

// Wait blocks until duration elapses or context is canceled.
// Returns a wrapped context error if context is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// RunWithTimeout runs fn with a timeout derived from the parent context.
// The function receives a context that will be canceled after timeout.
func RunWithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return fn(timeoutCtx)
}

// RecoverPanic recovers from panics and logs them.
// Use as: defer worker.RecoverPanic(logger, "operation name")
func RecoverPanic(logger *zerolog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error().
			Interface("panic", r).
			Str("operation", operation).
			Msg("recovered from panic")
	}
}
