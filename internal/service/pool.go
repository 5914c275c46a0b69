package service

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// resolvePool limits concurrent per-resource availability resolutions using
// a weighted semaphore. A single slot query fans out across a service's
// resource pool; the pool keeps wide pools from exhausting the database
// connection pool.
type resolvePool struct {
	sem *semaphore.Weighted
}

// newResolvePool creates a pool that allows at most limit concurrent resolutions.
func newResolvePool(limit int) *resolvePool {
	if limit < 1 {
		limit = 1
	}
	return &resolvePool{sem: semaphore.NewWeighted(int64(limit))}
}

// run acquires a slot, runs fn, and releases the slot. Blocks if all slots
// are busy. Returns ctx.Err() if the context is cancelled while waiting.
// A nil pool executes fn directly without concurrency control.
func (p *resolvePool) run(ctx context.Context, fn func() error) error {
	if p == nil || p.sem == nil {
		return fn()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}
