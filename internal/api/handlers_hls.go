// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/trackgate/internal/catalog"
	"github.com/ManuGH/trackgate/internal/httpx"
	"github.com/ManuGH/trackgate/internal/log"
	"github.com/ManuGH/trackgate/internal/metrics"
	"github.com/ManuGH/trackgate/internal/playlist"
	"github.com/ManuGH/trackgate/internal/token"
)

// PlaylistName is the playlist file inside a track's HLS directory.
const PlaylistName = "playlist.m3u8"

// maxPlaylistBytes bounds how much of a playlist is read.
const maxPlaylistBytes int64 = 1 << 20

func hlsKey(t catalog.Track, name string) string {
	return path.Join(t.HLSKey, name)
}

// handlePlaylist serves the track's playlist with every segment reference
// routed back through the proxy under the caller's stream token.
func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "trackID")
	logger := s.requestLogger(r, "hls").With().Str(log.FieldResourceID, trackID).Logger()

	if !s.requireOrigin(w, r, logger, "hls") {
		return
	}
	if !s.requireToken(w, r, logger, token.KindStream, token.StreamSubject(trackID)) {
		return
	}

	track, err := s.lookupTrack(r.Context(), trackID)
	if err != nil {
		writeFetchError(w, r, logger, err, 0)
		return
	}
	if track.HLSKey == "" {
		writeNotFound(w, r, "no HLS rendition")
		return
	}

	key := hlsKey(track, PlaylistName)
	info, err := s.info(r.Context(), key)
	if err != nil {
		writeFetchError(w, r, logger, err, 0)
		return
	}
	if info.Size == 0 || info.Size > maxPlaylistBytes {
		logger.Error().Str(log.FieldFileKey, key).Int64(log.FieldTotalSize, info.Size).Msg("playlist size out of bounds")
		writeNotFound(w, r, "no HLS rendition")
		return
	}
	raw, err := s.readRange(r.Context(), key, 0, info.Size-1)
	if err != nil {
		writeFetchError(w, r, logger, err, info.Size)
		return
	}

	text := string(raw)
	kind, err := playlist.Validate(text)
	if err != nil {
		logger.Error().Err(err).Str(log.FieldFileKey, key).Msg("stored playlist is invalid")
		writeNotFound(w, r, "no HLS rendition")
		return
	}

	authQuery := "?token=" + url.QueryEscape(r.URL.Query().Get("token"))
	body := playlist.Rewrite(text, trackID, authQuery)

	logger.Debug().Str("playlist_kind", string(kind)).Msg("playlist rewritten")

	w.Header().Set("Content-Type", httpx.ContentTypeHLSPlaylist)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	httpx.NoStore(w)
	w.WriteHeader(http.StatusOK)
	n, _ := w.Write([]byte(body))
	metrics.AddBytesServed("hls", n)
}

// handleHLSSegment serves one HLS segment file. Only names the rewriter
// would have produced are accepted.
func (s *Server) handleHLSSegment(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "trackID")
	name := chi.URLParam(r, "name")
	logger := s.requestLogger(r, "hls").With().Str(log.FieldResourceID, trackID).Logger()

	if !playlist.IsSegmentName(name) {
		writeNotFound(w, r, "segment not found")
		return
	}
	if !s.requireOrigin(w, r, logger, "hls") {
		return
	}
	if !s.requireToken(w, r, logger, token.KindStream, token.StreamSubject(trackID)) {
		return
	}

	track, err := s.lookupTrack(r.Context(), trackID)
	if err != nil {
		writeFetchError(w, r, logger, err, 0)
		return
	}
	if track.HLSKey == "" {
		writeNotFound(w, r, "no HLS rendition")
		return
	}

	key := hlsKey(track, name)
	info, err := s.info(r.Context(), key)
	if err != nil {
		writeFetchError(w, r, logger, err, 0)
		return
	}

	w.Header().Set("Content-Type", hlsSegmentContentType(name))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	httpx.NoStore(w)
	w.WriteHeader(http.StatusOK)

	n, err := s.copyObject(r.Context(), w, key, info.Size, s.cfg.SegmentCeiling)
	metrics.AddBytesServed("hls", int(n))
	if err != nil {
		logger.Warn().Err(err).Str(log.FieldFileKey, key).Int64("written", n).Msg("hls segment copy aborted")
	}
}

func hlsSegmentContentType(name string) string {
	switch path.Ext(name) {
	case ".ts":
		return "video/mp2t"
	case ".aac":
		return "audio/aac"
	default:
		return "audio/mp4"
	}
}
