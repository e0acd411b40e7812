// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package segment tiles a resource into fixed-size byte ranges and mints a
// manifest in which every segment carries its own short-lived token.
package segment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/trackgate/internal/metrics"
	"github.com/ManuGH/trackgate/internal/storage"
	"github.com/ManuGH/trackgate/internal/token"
)

const (
	// DefaultSize is roughly five seconds of 128 kbps audio.
	DefaultSize int64 = 81920
	// DefaultManifestTTL is shorter than any segment token TTL so a player
	// has to come back for a fresh manifest every playback session.
	DefaultManifestTTL = 55 * time.Second
)

// ErrInvalidIndex reports a segment index outside the tiling.
var ErrInvalidIndex = errors.New("segment index out of range")

// Descriptor is one entry of a manifest. End is inclusive.
type Descriptor struct {
	Index int    `json:"index"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Token string `json:"token"`
}

// Len returns the number of bytes covered by d.
func (d Descriptor) Len() int64 { return d.End - d.Start + 1 }

// Manifest lists the segments of one resource. ExpiresAt is unix milliseconds.
type Manifest struct {
	ResourceID  string       `json:"resourceId"`
	TotalSize   int64        `json:"totalSize"`
	SegmentSize int64        `json:"segmentSize"`
	Segments    []Descriptor `json:"segments"`
	ExpiresAt   int64        `json:"expiresAt"`
}

// Issuer mints tokens for subjects. *token.Authority satisfies it.
type Issuer interface {
	Generate(subject string) (token.Issued, error)
}

// Config holds planner tunables.
type Config struct {
	ManifestTTL time.Duration
}

// Planner builds manifests.
type Planner struct {
	fetcher storage.Fetcher
	issuer  Issuer
	ttl     time.Duration
	now     func() time.Time
}

// NewPlanner wires a planner to its fetcher and token issuer.
func NewPlanner(fetcher storage.Fetcher, issuer Issuer, cfg Config) *Planner {
	ttl := cfg.ManifestTTL
	if ttl <= 0 {
		ttl = DefaultManifestTTL
	}
	return &Planner{fetcher: fetcher, issuer: issuer, ttl: ttl, now: time.Now}
}

// Count returns ceil(total/size).
func Count(total, size int64) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int((total + size - 1) / size)
}

// Bounds returns the inclusive byte range of segment index. The segment
// endpoint uses it to recompute what a token for index i grants.
func Bounds(index int, size, total int64) (start, end int64, err error) {
	if size <= 0 || index < 0 || index >= Count(total, size) {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	start = int64(index) * size
	end = min(start+size-1, total-1)
	return start, end, nil
}

// Plan returns a manifest for resourceID backed by fileKey. If the fetcher
// cannot describe the file, the error is returned and no manifest is built.
func (p *Planner) Plan(ctx context.Context, resourceID, fileKey string, size int64) (*Manifest, error) {
	if size <= 0 {
		size = DefaultSize
	}
	info, err := p.fetcher.Info(ctx, fileKey)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", resourceID, err)
	}

	n := Count(info.Size, size)
	segments := make([]Descriptor, 0, n)
	for i := 0; i < n; i++ {
		start, end, err := Bounds(i, size, info.Size)
		if err != nil {
			return nil, err
		}
		issued, err := p.issuer.Generate(token.SegmentSubject(resourceID, i))
		if err != nil {
			return nil, fmt.Errorf("plan %s: segment %d token: %w", resourceID, i, err)
		}
		segments = append(segments, Descriptor{Index: i, Start: start, End: end, Token: issued.Token})
	}
	metrics.IncTokenIssuedN(string(token.KindSegment), n)
	metrics.ObserveManifest(n)

	return &Manifest{
		ResourceID:  resourceID,
		TotalSize:   info.Size,
		SegmentSize: size,
		Segments:    segments,
		ExpiresAt:   p.now().Add(p.ttl).UnixMilli(),
	}, nil
}
