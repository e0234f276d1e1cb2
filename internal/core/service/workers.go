package service

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// WorkerPool bounds how many pipeline runs execute at once.
type WorkerPool struct {
	sem *semaphore.Weighted
}

func NewWorkerPool(workers int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{sem: semaphore.NewWeighted(int64(workers))}
}

// Do runs fn once a worker is free. Waiting is abandoned when ctx is done.
func (p *WorkerPool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)

	return fn(ctx)
}
