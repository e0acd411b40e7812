// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/trackgate/internal/access"
	"github.com/ManuGH/trackgate/internal/auth"
	"github.com/ManuGH/trackgate/internal/catalog"
	"github.com/ManuGH/trackgate/internal/keys"
	"github.com/ManuGH/trackgate/internal/segment"
	"github.com/ManuGH/trackgate/internal/storage"
	"github.com/ManuGH/trackgate/internal/token"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef-test"
	testTrack    = "t1"
	testLobby    = "lobby1"
	viewerToken  = "alice-token"
	strangerTok  = "mallory-token"
	testHost     = "example.com"
	trackSize    = 500000
	hlsSegSize   = 200000
	testPlaylist = "#EXTM3U\n#EXT-X-VERSION:7\n#EXT-X-TARGETDURATION:6\n#EXT-X-MEDIA-SEQUENCE:0\n" +
		"#EXT-X-PLAYLIST-TYPE:VOD\n#EXT-X-MAP:URI=\"init.mp4\"\n#EXTINF:6.000000,\nsegment_000.m4s\n#EXT-X-ENDLIST\n"
)

type fixture struct {
	srv     *Server
	handler http.Handler
	tokens  *token.Authority
	media   []byte
	hlsSeg  []byte
	root    string
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o600))
}

func newFixture(t *testing.T, mutate func(*Config)) *fixture {
	t.Helper()
	ctx := context.Background()

	root := t.TempDir()
	f := &fixture{media: pattern(trackSize), hlsSeg: bytes.Repeat([]byte{0xAB}, hlsSegSize), root: root}
	writeFile(t, root, "audio/a.bin", f.media)
	writeFile(t, root, "audio/legacy.bin", pattern(1000))
	writeFile(t, root, "hls/t1/playlist.m3u8", []byte(testPlaylist))
	writeFile(t, root, "hls/t1/init.mp4", pattern(100))
	writeFile(t, root, "hls/t1/segment_000.m4s", f.hlsSeg)

	local, err := storage.NewLocal(root)
	require.NoError(t, err)

	store, err := catalog.Open(ctx, catalog.DefaultConfig(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.UpsertTrack(ctx, catalog.Track{ID: testTrack, FileKey: "audio/a.bin", LobbyID: testLobby, HLSKey: "hls/t1"}))
	require.NoError(t, store.UpsertTrack(ctx, catalog.Track{ID: "ghost", FileKey: "audio/missing.bin", LobbyID: testLobby}))
	require.NoError(t, store.AddMember(ctx, testLobby, "alice"))

	tokens, err := token.NewAuthority(token.Config{Secret: []byte(testSecret)})
	require.NoError(t, err)
	f.tokens = tokens

	deriver, err := keys.NewHKDF([]byte(testSecret))
	require.NoError(t, err)

	registry := auth.NewRegistry([]auth.Viewer{
		{ID: "alice", Token: viewerToken},
		{ID: "mallory", Token: strangerTok},
	})

	cfg := Config{Production: true, Version: "test", LegacyRoutes: true}
	if mutate != nil {
		mutate(&cfg)
	}

	srv, err := New(cfg, Deps{
		Tokens:  tokens,
		TTLs:    token.DefaultTTLs(),
		Planner: segment.NewPlanner(local, tokens, segment.Config{}),
		Fetcher: local,
		Tracks:  store,
		Access:  access.NewVerifier(registry, store),
		Keys:    deriver,
		Ready:   store.Ping,
	})
	require.NoError(t, err)
	f.srv = srv
	f.handler = srv.Handler()
	return f
}

func (f *fixture) mint(t *testing.T, subject string) string {
	t.Helper()
	issued, err := f.tokens.Generate(subject)
	require.NoError(t, err)
	return issued.Token
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// sameOrigin marks req as coming from the daemon's own page.
func sameOrigin(req *http.Request) *http.Request {
	req.Header.Set("Origin", "https://"+testHost)
	return req
}

func viewer(req *http.Request, tok string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}
