// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/trackgate/internal/cache"
)

type countingFetcher struct {
	infoCalls atomic.Int32
	size      int64
	gate      chan struct{}
}

func (f *countingFetcher) Info(_ context.Context, key string) (Info, error) {
	f.infoCalls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if key == "missing" {
		return Info{}, ErrNotFound
	}
	return Info{Size: f.size}, nil
}

func (f *countingFetcher) Range(_ context.Context, _ string, start, end int64) ([]byte, error) {
	return make([]byte, end-start+1), nil
}

func TestCached_InfoHitsCache(t *testing.T) {
	inner := &countingFetcher{size: 42}
	mem := cache.NewMemoryCache(0)
	defer func() { _ = mem.Close() }()
	c := NewCached(inner, mem, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		info, err := c.Info(ctx, "a.bin")
		require.NoError(t, err)
		assert.Equal(t, int64(42), info.Size)
	}
	assert.Equal(t, int32(1), inner.infoCalls.Load())

	c.Invalidate("./a.bin")
	_, err := c.Info(ctx, "a.bin")
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.infoCalls.Load())
}

func TestCached_ErrorsAreNotCached(t *testing.T) {
	inner := &countingFetcher{size: 1}
	c := NewCached(inner, cache.NewNoOpCache(), 0)

	_, err := c.Info(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Info(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(2), inner.infoCalls.Load())
}

func TestCached_ConcurrentMissesShareOneCall(t *testing.T) {
	inner := &countingFetcher{size: 7, gate: make(chan struct{})}
	mem := cache.NewMemoryCache(0)
	defer func() { _ = mem.Close() }()
	c := NewCached(inner, mem, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := c.Info(context.Background(), "a.bin")
			assert.NoError(t, err)
			assert.Equal(t, int64(7), info.Size)
		}()
	}
	// Let the goroutines pile up on the flight before releasing it.
	require.Eventually(t, func() bool { return inner.infoCalls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(inner.gate)
	wg.Wait()

	assert.LessOrEqual(t, inner.infoCalls.Load(), int32(2))
}

func TestCached_RangePassesThrough(t *testing.T) {
	c := NewCached(&countingFetcher{size: 10}, cache.NewNoOpCache(), 0)
	got, err := c.Range(context.Background(), "a.bin", 2, 5)
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

type blockingFetcher struct {
	calls atomic.Int32
	gate  chan struct{}
}

func (f *blockingFetcher) Info(ctx context.Context, _ string) (Info, error) {
	f.calls.Add(1)
	select {
	case <-ctx.Done():
		return Info{}, ctx.Err()
	case <-f.gate:
		return Info{Size: 9}, nil
	}
}

func (f *blockingFetcher) Range(context.Context, string, int64, int64) ([]byte, error) {
	return nil, nil
}

func TestCached_LeaderCancellationDoesNotFailFollowers(t *testing.T) {
	inner := &blockingFetcher{gate: make(chan struct{})}
	c := NewCached(inner, cache.NewNoOpCache(), 0)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.Info(leaderCtx, "a.bin")
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return inner.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()

	followerErr := make(chan error, 1)
	go func() {
		info, err := c.Info(context.Background(), "a.bin")
		if err == nil && info.Size != 9 {
			err = assert.AnError
		}
		followerErr <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(inner.gate)

	require.NoError(t, <-followerErr)
	require.NoError(t, <-leaderErr)
	assert.Equal(t, int32(1), inner.calls.Load())
}
