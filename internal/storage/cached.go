// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package storage

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ManuGH/trackgate/internal/cache"
	"github.com/ManuGH/trackgate/internal/fsutil"
	"github.com/ManuGH/trackgate/internal/metrics"
)

// DefaultSizeTTL is how long a resource size stays cached.
const DefaultSizeTTL = 5 * time.Minute

// Cached decorates a Fetcher with a size cache. Manifest requests hit Info
// on every playback start; concurrent misses for one key share a single
// backend call. Range is passed through untouched.
type Cached struct {
	inner Fetcher
	sizes cache.SizeCache
	ttl   time.Duration
	group singleflight.Group
}

// NewCached wraps inner. A zero ttl uses DefaultSizeTTL.
func NewCached(inner Fetcher, sizes cache.SizeCache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultSizeTTL
	}
	return &Cached{inner: inner, sizes: sizes, ttl: ttl}
}

func cacheKey(key string) string {
	if clean, err := fsutil.NormalizeKey(key); err == nil {
		return clean
	}
	return key
}

// Info implements Fetcher.
func (c *Cached) Info(ctx context.Context, key string) (Info, error) {
	k := cacheKey(key)
	if size, ok := c.sizes.Get(k); ok {
		metrics.IncSizeCache("hit")
		return Info{Size: size}, nil
	}
	metrics.IncSizeCache("miss")

	// Detached so one caller leaving does not fail the others waiting on k.
	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(k, func() (any, error) {
		info, err := c.inner.Info(shared, key)
		if err != nil {
			return Info{}, err
		}
		c.sizes.Set(k, info.Size, c.ttl)
		return info, nil
	})
	if err != nil {
		return Info{}, err
	}
	return v.(Info), nil
}

// Range implements Fetcher.
func (c *Cached) Range(ctx context.Context, key string, start, end int64) ([]byte, error) {
	return c.inner.Range(ctx, key, start, end)
}

// Invalidate drops the cached size of key.
func (c *Cached) Invalidate(key string) {
	c.sizes.Delete(cacheKey(key))
}
