// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ManuGH/trackgate/internal/catalog"
	"github.com/ManuGH/trackgate/internal/httpx"
	"github.com/ManuGH/trackgate/internal/log"
	"github.com/ManuGH/trackgate/internal/metrics"
	"github.com/ManuGH/trackgate/internal/problem"
	"github.com/ManuGH/trackgate/internal/segment"
	"github.com/ManuGH/trackgate/internal/storage"
	"github.com/ManuGH/trackgate/internal/token"
	"github.com/ManuGH/trackgate/internal/workpool"
)

// handleManifest issues a signed segment manifest. A valid preload token for
// (track, lobby) stands in for the viewer credential.
func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "trackID")
	lobbyID := r.URL.Query().Get("lobby")
	logger := s.requestLogger(r, "manifest").With().
		Str(log.FieldResourceID, trackID).
		Str(log.FieldLobbyID, lobbyID).
		Logger()

	track, ok := s.authorizeManifest(w, r, logger, trackID, lobbyID)
	if !ok {
		return
	}

	manifest, err := workpool.Run(r.Context(), s.deps.IOPool, func(ctx context.Context) (*segment.Manifest, error) {
		return s.deps.Planner.Plan(ctx, track.ID, track.FileKey, s.cfg.SegmentSize)
	})
	if err != nil {
		writeFetchError(w, r, logger, err, 0)
		return
	}

	logger.Debug().
		Str(log.FieldEvent, "manifest.issued").
		Int("segments", len(manifest.Segments)).
		Int64(log.FieldTotalSize, manifest.TotalSize).
		Msg("manifest issued")

	httpx.NoStore(w)
	writeJSON(w, http.StatusOK, manifest)
}

func (s *Server) authorizeManifest(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, trackID, lobbyID string) (catalog.Track, bool) {
	if preload := r.URL.Query().Get("preload"); preload != "" {
		if _, ok := s.checkToken(logger, token.KindPreload, preload, token.PreloadSubject(trackID, lobbyID)); !ok {
			problem.Unauthorized(w, r)
			return catalog.Track{}, false
		}
		track, err := s.lookupTrack(r.Context(), trackID)
		if err != nil {
			writeFetchError(w, r, logger, err, 0)
			return catalog.Track{}, false
		}
		return track, true
	}

	verdict, err := s.deps.Access.Verdict(r, trackID, lobbyID)
	if err != nil {
		writeAccessError(w, r, logger, err)
		return catalog.Track{}, false
	}
	return verdict.Track, true
}

// handleSegment serves one planned segment. Every request re-verifies its
// own token and performs an independent range read.
func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "trackID")
	logger := s.requestLogger(r, "segment").With().Str(log.FieldResourceID, trackID).Logger()

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeNotFound(w, r, "segment not found")
		return
	}
	logger = logger.With().Int(log.FieldSegmentIndex, index).Logger()

	if !s.requireOrigin(w, r, logger, "segment") {
		return
	}
	if !s.requireToken(w, r, logger, token.KindSegment, token.SegmentSubject(trackID, index)) {
		return
	}

	track, err := s.lookupTrack(r.Context(), trackID)
	if err != nil {
		writeFetchError(w, r, logger, err, 0)
		return
	}
	info, err := s.info(r.Context(), track.FileKey)
	if err != nil {
		writeFetchError(w, r, logger, err, 0)
		return
	}
	start, end, err := segment.Bounds(index, s.cfg.SegmentSize, info.Size)
	if err != nil {
		writeFetchError(w, r, logger, err, info.Size)
		return
	}
	end = storage.ClampEnd(start, end, s.cfg.SegmentCeiling)

	data, err := s.readRange(r.Context(), track.FileKey, start, end)
	if err != nil {
		writeFetchError(w, r, logger, err, info.Size)
		return
	}
	end = start + int64(len(data)) - 1

	contentType := s.cfg.SegmentContentType
	if contentType == "" {
		contentType = httpx.ContentTypeOctetStream
	}
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set(httpx.HeaderSegmentIndex, strconv.Itoa(index))
	h.Set(httpx.HeaderSegmentStart, strconv.FormatInt(start, 10))
	h.Set(httpx.HeaderSegmentEnd, strconv.FormatInt(end, 10))
	h.Set(httpx.HeaderTotalSize, strconv.FormatInt(info.Size, 10))
	httpx.NoStore(w)
	w.WriteHeader(http.StatusOK)

	n, err := w.Write(data)
	metrics.AddBytesServed("segment", n)
	if err != nil {
		logger.Debug().Err(err).Msg("client went away")
	}
}

// handleStream serves the full resource with single-range semantics. A
// request without Range is treated as bytes=0-. Every response is clamped to
// the stream ceiling so a whole file never leaves in one response.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "trackID")
	logger := s.requestLogger(r, "stream").With().Str(log.FieldResourceID, trackID).Logger()

	if !s.requireOrigin(w, r, logger, "stream") {
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
	info, err := s.info(r.Context(), track.FileKey)
	if err != nil {
		writeFetchError(w, r, logger, err, 0)
		return
	}

	header := r.Header.Get("Range")
	if header == "" {
		header = "bytes=0-"
	}
	rg, err := httpx.ParseRange(header, info.Size)
	if err != nil {
		logger.Debug().Err(err).Int64(log.FieldTotalSize, info.Size).Msg("range rejected")
		writeRangeNotSatisfiable(w, r, info.Size)
		return
	}
	rg = httpx.ClampRange(rg, s.cfg.StreamCeiling)

	data, err := s.readRange(r.Context(), track.FileKey, rg.Start, rg.End)
	if err != nil {
		writeFetchError(w, r, logger, err, info.Size)
		return
	}
	rg.End = rg.Start + int64(len(data)) - 1

	contentType := streamContentType(track.FileKey)
	if s.cfg.Obfuscate {
		s.deps.Obfuscator.TransformAt(data, rg.Start)
		contentType = httpx.ContentTypeOctetStream
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Range", httpx.FormatContentRange(rg, info.Size))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	httpx.NoStore(w)
	w.WriteHeader(http.StatusPartialContent)

	n, err := w.Write(data)
	metrics.AddBytesServed("stream", n)
	if err != nil {
		logger.Debug().Err(err).Msg("client went away")
	}
}

func streamContentType(fileKey string) string {
	if ct := mime.TypeByExtension(path.Ext(fileKey)); ct != "" {
		return ct
	}
	return httpx.ContentTypeOctetStream
}
