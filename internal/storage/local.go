// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/ManuGH/trackgate/internal/fsutil"
	"github.com/ManuGH/trackgate/internal/metrics"
)

const backendLocal = "local"

// Local serves resources from a directory tree. Keys are slash-separated
// paths relative to Root; anything resolving outside Root is reported as
// not found.
type Local struct {
	root string
}

// NewLocal returns a Local fetcher rooted at root. The directory must exist.
func NewLocal(root string) (*Local, error) {
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("media root: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("media root %s is not a directory", root)
	}
	return &Local{root: root}, nil
}

// Root returns the media root directory.
func (l *Local) Root() string { return l.root }

func (l *Local) resolve(key string) (string, error) {
	p, err := fsutil.ConfineRelPath(l.root, key)
	if err != nil {
		if errors.Is(err, fsutil.ErrOutsideRoot) || errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return "", &FetchError{Backend: backendLocal, Op: "resolve", Key: key, Err: err}
	}
	return p, nil
}

// Info implements Fetcher.
func (l *Local) Info(_ context.Context, key string) (info Info, err error) {
	start := time.Now()
	defer func() { metrics.ObserveFetch(backendLocal, "info", time.Since(start), IsFetchFailure(err)) }()

	p, err := l.resolve(key)
	if err != nil {
		return Info{}, err
	}
	st, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return Info{}, &FetchError{Backend: backendLocal, Op: "stat", Key: key, Err: err}
	}
	if !st.Mode().IsRegular() {
		return Info{}, fmt.Errorf("%w: %s is not a regular file", ErrNotFound, key)
	}
	return Info{Size: st.Size()}, nil
}

// Range implements Fetcher with open, seek and an exact read.
func (l *Local) Range(_ context.Context, key string, start, end int64) (data []byte, err error) {
	began := time.Now()
	defer func() { metrics.ObserveFetch(backendLocal, "range", time.Since(began), IsFetchFailure(err)) }()

	p, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p) // #nosec G304 -- confined by fsutil.ConfineRelPath
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, &FetchError{Backend: backendLocal, Op: "open", Key: key, Err: err}
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, &FetchError{Backend: backendLocal, Op: "stat", Key: key, Err: err}
	}
	end, err = checkRange(start, end, st.Size())
	if err != nil {
		return nil, err
	}

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, &FetchError{Backend: backendLocal, Op: "seek", Key: key, Err: err}
	}
	buf := make([]byte, end-start+1)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, &FetchError{Backend: backendLocal, Op: "read", Key: key, Err: err}
	}
	return buf, nil
}
