// Package worker provides a bounded pool for fire-and-forget background
// tasks. Tasks run to completion or failure; there is no result channel and
// no cancellation once a task has been submitted.
package worker

import (
	"context"
	"log/slog"

	"golang.org/x/sync/semaphore"
)

// Pool runs submitted tasks on goroutines, at most maxConcurrent at a time.
type Pool struct {
	sem    *semaphore.Weighted
	logger *slog.Logger
}

// NewPool creates a pool allowing maxConcurrent simultaneous tasks.
func NewPool(maxConcurrent int64, logger *slog.Logger) *Pool {
	return &Pool{
		sem:    semaphore.NewWeighted(maxConcurrent),
		logger: logger,
	}
}

// Submit schedules a task. It blocks only while the pool is saturated, then
// returns once the task has been handed to its own goroutine. The task
// receives a background context so its lifetime is decoupled from the
// triggering request.
func (p *Pool) Submit(task func(ctx context.Context)) error {
	ctx := context.Background()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	go func() {
		defer p.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("background task panicked", "panic", r)
			}
		}()
		task(ctx)
	}()

	return nil
}
