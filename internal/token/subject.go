// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package token

import (
	"strconv"
	"time"
)

// Kind names a subject shape. Each kind carries its own TTL.
type Kind string

const (
	KindStream  Kind = "stream"
	KindSegment Kind = "segment"
	KindPreload Kind = "preload"
	KindLegacy  Kind = "legacy"
)

// StreamSubject binds a full-stream token to a resource.
func StreamSubject(resourceID string) string {
	return resourceID
}

// SegmentSubject binds a token to one segment of a resource.
func SegmentSubject(resourceID string, index int) string {
	return resourceID + ":" + strconv.Itoa(index)
}

// PreloadSubject binds a preload grant to a track within a lobby.
func PreloadSubject(trackID, lobbyID string) string {
	return trackID + ":" + lobbyID
}

// LegacySubject binds a token to a stored file for the filename route. The
// prefix keeps it from ever matching a stream subject.
func LegacySubject(fileKey string) string {
	return "file:" + fileKey
}

// Default lifetimes per kind.
const (
	DefaultStreamTTL  = 60 * time.Second
	DefaultSegmentTTL = 60 * time.Second
	DefaultPreloadTTL = 300 * time.Second
)

// TTLs holds the lifetime of each token kind.
type TTLs struct {
	Stream  time.Duration
	Segment time.Duration
	Preload time.Duration
}

// DefaultTTLs returns the stock lifetimes.
func DefaultTTLs() TTLs {
	return TTLs{Stream: DefaultStreamTTL, Segment: DefaultSegmentTTL, Preload: DefaultPreloadTTL}
}

// For returns the lifetime configured for kind.
func (t TTLs) For(kind Kind) time.Duration {
	switch kind {
	case KindSegment:
		return t.Segment
	case KindPreload:
		return t.Preload
	default:
		return t.Stream
	}
}
