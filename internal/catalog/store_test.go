// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DefaultConfig(filepath.Join(t.TempDir(), "catalog.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_UpsertAndLookup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	track := Track{ID: "trackA", FileKey: "tracks/a.mp3", TenantID: "t1", LobbyID: "lobby-1", HLSKey: "hls/a"}
	require.NoError(t, s.UpsertTrack(ctx, track))

	got, err := s.Lookup(ctx, "trackA")
	require.NoError(t, err)
	assert.Equal(t, track, got)

	track.FileKey = "tracks/a-v2.mp3"
	require.NoError(t, s.UpsertTrack(ctx, track))
	got, err = s.Lookup(ctx, "trackA")
	require.NoError(t, err)
	assert.Equal(t, "tracks/a-v2.mp3", got.FileKey)
}

func TestStore_LookupMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Lookup(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTrackNotFound)
}

func TestStore_UpsertValidates(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.UpsertTrack(context.Background(), Track{ID: "x"}))
}

func TestStore_Membership(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.IsMember(ctx, "lobby-1", "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.AddMember(ctx, "lobby-1", "alice"))
	require.NoError(t, s.AddMember(ctx, "lobby-1", "alice"))

	ok, err = s.IsMember(ctx, "lobby-1", "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsMember(ctx, "lobby-2", "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(context.Background(), DefaultConfig(":memory:"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.UpsertTrack(context.Background(), Track{ID: "a", FileKey: "a.mp3", LobbyID: "l"}))
	_, err = s.Lookup(context.Background(), "a")
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
}
