// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pool provides a bounded fan-out/fan-in worker pool. Stages that
// touch external services fan their items through Map so that no more than a
// fixed number of calls are outstanding at any time, and every item yields
// exactly one outcome.
package pool

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Outcome is the result of one item. Exactly one of Value or Err is
// meaningful; Err is non-nil when the item's function failed or the context
// was cancelled before the item could run.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Map runs fn for each index in [0, n) with at most capacity concurrent
// executions and returns the outcomes in input order. A capacity below 1 is
// treated as 1. Cancellation is observed before each item starts: items not
// yet started when ctx is done fail with ctx.Err() instead of running.
func Map[T any](ctx context.Context, capacity, n int, fn func(ctx context.Context, i int) (T, error)) []Outcome[T] {
	if capacity < 1 {
		capacity = 1
	}

	sem := semaphore.NewWeighted(int64(capacity))
	outcomes := make([]Outcome[T], n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			outcomes[i] = Outcome[T]{Err: err}
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			v, err := fn(ctx, i)
			outcomes[i] = Outcome[T]{Value: v, Err: err}
		}(i)
	}
	wg.Wait()

	return outcomes
}
