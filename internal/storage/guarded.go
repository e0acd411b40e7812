// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ManuGH/trackgate/internal/resilience"
)

// Guarded sheds backend calls while the backend is failing. Only upstream
// failures count against it; missing resources and bad ranges do not.
type Guarded struct {
	inner   Fetcher
	backend string
	breaker *resilience.CircuitBreaker
}

// NewGuarded wraps inner with a circuit breaker named after backend.
func NewGuarded(inner Fetcher, backend string, breaker *resilience.CircuitBreaker) *Guarded {
	return &Guarded{inner: inner, backend: backend, breaker: breaker}
}

// NewBreaker returns a breaker that trips on upstream failures only.
func NewBreaker(backend string, threshold int, reset time.Duration) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(backend, threshold, reset, resilience.WithFailureFilter(IsFetchFailure))
}

// Info implements Fetcher.
func (g *Guarded) Info(ctx context.Context, key string) (info Info, err error) {
	err = g.breaker.Execute(ctx, func(ctx context.Context) error {
		info, err = g.inner.Info(ctx, key)
		return err
	})
	return info, g.wrap("info", key, err)
}

// Range implements Fetcher.
func (g *Guarded) Range(ctx context.Context, key string, start, end int64) (data []byte, err error) {
	err = g.breaker.Execute(ctx, func(ctx context.Context) error {
		data, err = g.inner.Range(ctx, key, start, end)
		return err
	})
	return data, g.wrap("range", key, err)
}

// wrap turns a shed call into a FetchError so handlers treat it like any
// other upstream failure.
func (g *Guarded) wrap(op, key string, err error) error {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return &FetchError{Backend: g.backend, Op: op, Key: key, Err: err}
	}
	return err
}
