package detection

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
)

// AsyncRunner runs submitted tasks on their own goroutines, detached
// from any request lifecycle. Tasks are fire-and-forget: there is no
// cancellation, and a task that outlives its triggering request still
// runs to completion. Close waits for in-flight tasks, so a graceful
// shutdown does not abandon pending evaluations.
type AsyncRunner struct {
	base   context.Context
	logger *slog.Logger
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewAsyncRunner creates a runner whose tasks inherit values (trace
// attributes, loggers) from base but not its cancellation.
func NewAsyncRunner(base context.Context, logger *slog.Logger) *AsyncRunner {
	if base == nil {
		base = context.Background()
	}
	return &AsyncRunner{base: context.WithoutCancel(base), logger: logger}
}

// Submit schedules the task. After Close, submissions run inline on the
// caller's goroutine so late work is never silently dropped.
func (r *AsyncRunner) Submit(task func(ctx context.Context)) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		task(r.base)
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("panic in deferred task",
					"panic", rec,
					"stack", string(debug.Stack()),
				)
			}
		}()
		task(r.base)
	}()
}

// Close stops accepting asynchronous work and blocks until every
// in-flight task has finished.
func (r *AsyncRunner) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.wg.Wait()
}
