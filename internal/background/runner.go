// Package background runs fire-and-forget tasks detached from the request
// that triggered them.
package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTaskTimeout bounds how long a single background task may run.
const DefaultTaskTimeout = 30 * time.Second

// Runner executes named tasks on their own goroutines. Tasks get a fresh
// context so they survive the originating request ending. Panics are
// recovered and logged.
type Runner struct {
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRunner builds a runner with the default per-task timeout.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger, timeout: DefaultTaskTimeout}
}

// Submit schedules fn to run on its own goroutine.
func (r *Runner) Submit(name string, fn func(ctx context.Context)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("background task panicked", "task", name, "panic", rec)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until all submitted tasks have finished. Used during
// shutdown and in tests.
func (r *Runner) Wait() {
	r.wg.Wait()
}
