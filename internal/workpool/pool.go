// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package workpool bounds how many blocking jobs of one class run at once.
// The daemon keeps I/O-bound range reads and CPU-bound FFT work in separate
// pools so a slow backend cannot starve analysis and vice versa.
package workpool

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/ManuGH/trackgate/internal/metrics"
)

// Pool is a named concurrency limiter.
type Pool struct {
	name string
	size int64
	sem  *semaphore.Weighted
}

// New returns a pool admitting at most size concurrent jobs.
func New(name string, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{name: name, size: int64(size), sem: semaphore.NewWeighted(int64(size))}
}

// Name returns the pool label used in metrics.
func (p *Pool) Name() string { return p.name }

// Size returns the configured concurrency.
func (p *Pool) Size() int { return int(p.size) }

// Do runs fn once a slot is free. It returns ctx.Err() if the context ends
// while waiting; fn itself is never abandoned once started.
func (p *Pool) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		metrics.IncPoolRejected(p.name)
		return fmt.Errorf("workpool %s: %w", p.name, err)
	}
	metrics.PoolInFlight.WithLabelValues(p.name).Inc()
	defer func() {
		metrics.PoolInFlight.WithLabelValues(p.name).Dec()
		p.sem.Release(1)
	}()
	return fn(ctx)
}

// Run is Do for functions that produce a value.
func Run[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		out = v
		return err
	})
	return out, err
}
