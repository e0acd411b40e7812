// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package storage reads byte ranges from named media resources.
//
// Two backends implement Fetcher: Local (a confined directory) and Remote
// (an object store reachable over HTTP range requests). The daemon picks one
// at startup; handlers only ever see the interface.
package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a resource that does not exist on the backend.
	ErrNotFound = errors.New("resource not found")
	// ErrRangeUnsatisfiable reports start >= size or end < start.
	ErrRangeUnsatisfiable = errors.New("range not satisfiable")
)

// Info describes a stored resource.
type Info struct {
	Size int64
}

// Fetcher is the capability every storage backend provides.
type Fetcher interface {
	// Info returns the size of key or ErrNotFound.
	Info(ctx context.Context, key string) (Info, error)
	// Range returns exactly the bytes [start, end] of key. An end beyond the
	// last byte is clamped to size-1; start >= size fails with ErrRangeUnsatisfiable.
	Range(ctx context.Context, key string, start, end int64) ([]byte, error)
}

// FetchError wraps a backend I/O failure. Handlers answer it with 404 so
// backend topology stays hidden; the full error is logged server-side.
type FetchError struct {
	Backend string
	Op      string
	Key     string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s %q: %v", e.Backend, e.Op, e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchFailure reports whether err is an upstream failure rather than a
// missing resource or bad range.
func IsFetchFailure(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrRangeUnsatisfiable)
}

// ClampEnd caps an inclusive range so it covers at most ceiling bytes.
// Every serving endpoint applies it regardless of what the client asked for.
func ClampEnd(start, end, ceiling int64) int64 {
	if ceiling > 0 && end-start+1 > ceiling {
		return start + ceiling - 1
	}
	return end
}

// checkRange validates an inclusive range against a known size and returns
// the clamped end.
func checkRange(start, end, size int64) (int64, error) {
	if start < 0 || end < start || start >= size {
		return 0, fmt.Errorf("%w: bytes=%d-%d of %d", ErrRangeUnsatisfiable, start, end, size)
	}
	if end >= size {
		end = size - 1
	}
	return end, nil
}
