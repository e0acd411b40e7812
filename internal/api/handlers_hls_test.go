// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/trackgate/internal/token"
)

func TestPlaylist_RewritesSegmentsThroughProxy(t *testing.T) {
	f := newFixture(t, nil)
	tok := f.mint(t, token.StreamSubject(testTrack))

	rec := f.do(sameOrigin(httptest.NewRequest(http.MethodGet, "/proxy/t1/playlist.m3u8?token="+url.QueryEscape(tok), nil)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/vnd.apple.mpegurl", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	auth := "?token=" + url.QueryEscape(tok)
	assert.Contains(t, body, "#EXT-X-MAP:URI=\"/proxy/t1/segment/init.mp4"+auth+"\"")
	assert.Contains(t, body, "\n/proxy/t1/segment/segment_000.m4s"+auth+"\n")
	assert.Equal(t, strings.Count(testPlaylist, "\n"), strings.Count(body, "\n"))
	assert.Contains(t, body, "#EXT-X-TARGETDURATION:6\n")
}

func TestPlaylist_Rejections(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(sameOrigin(httptest.NewRequest(http.MethodGet, "/proxy/t1/playlist.m3u8?token=bad", nil)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok := f.mint(t, token.StreamSubject("ghost"))
	rec = f.do(sameOrigin(httptest.NewRequest(http.MethodGet, "/proxy/ghost/playlist.m3u8?token="+tok, nil)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHLSSegment_ServesWholeFileInChunks(t *testing.T) {
	f := newFixture(t, nil)
	tok := f.mint(t, token.StreamSubject(testTrack))

	rec := f.do(sameOrigin(httptest.NewRequest(http.MethodGet, "/proxy/t1/segment/segment_000.m4s?token="+tok, nil)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "audio/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, f.hlsSeg, rec.Body.Bytes())

	rec = f.do(sameOrigin(httptest.NewRequest(http.MethodGet, "/proxy/t1/segment/init.mp4?token="+tok, nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Body.Bytes(), 100)
}

func TestHLSSegment_OnlyRewriterNames(t *testing.T) {
	f := newFixture(t, nil)
	tok := f.mint(t, token.StreamSubject(testTrack))

	for _, name := range []string{"playlist.m3u8", "segment_0000.m4s", "..%2Faudio%2Fa.bin"} {
		rec := f.do(sameOrigin(httptest.NewRequest(http.MethodGet, "/proxy/t1/segment/"+name+"?token="+tok, nil)))
		assert.Equal(t, http.StatusNotFound, rec.Code, name)
	}
}
