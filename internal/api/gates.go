// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ManuGH/trackgate/internal/catalog"
	"github.com/ManuGH/trackgate/internal/log"
	"github.com/ManuGH/trackgate/internal/metrics"
	"github.com/ManuGH/trackgate/internal/problem"
	"github.com/ManuGH/trackgate/internal/storage"
	"github.com/ManuGH/trackgate/internal/token"
	"github.com/ManuGH/trackgate/internal/workpool"
)

// requireOrigin applies the origin heuristic and answers 403 on failure.
func (s *Server) requireOrigin(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, endpoint string) bool {
	if s.guard.Allow(r) {
		return true
	}
	metrics.IncOriginRejected(endpoint)
	logger.Warn().
		Str(log.FieldEvent, "origin.rejected").
		Bool("has_origin", r.Header.Get("Origin") != "").
		Bool("has_referer", r.Header.Get("Referer") != "").
		Msg("origin check failed")
	problem.Forbidden(w, r)
	return false
}

// checkToken verifies tok for subject. The reason is logged and returned;
// callers decide whether it may reach the client.
func (s *Server) checkToken(logger zerolog.Logger, kind token.Kind, tok, subject string) (token.Reason, bool) {
	_, err := s.deps.Tokens.Verify(tok, subject, s.deps.TTLs.For(kind))
	if err == nil {
		metrics.IncTokenVerification(string(kind), "")
		return "", true
	}
	reason := token.ReasonOf(err)
	if reason == "" {
		reason = token.ReasonMalformed
	}
	metrics.IncTokenVerification(string(kind), string(reason))
	logger.Info().
		Str(log.FieldEvent, "token.rejected").
		Str("kind", string(kind)).
		Str(log.FieldReason, string(reason)).
		Msg("token rejected")
	return reason, false
}

// requireToken verifies the token query parameter and answers a generic 401.
func (s *Server) requireToken(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, kind token.Kind, subject string) bool {
	if _, ok := s.checkToken(logger, kind, r.URL.Query().Get("token"), subject); ok {
		return true
	}
	problem.Unauthorized(w, r)
	return false
}

func (s *Server) lookupTrack(ctx context.Context, trackID string) (catalog.Track, error) {
	return s.deps.Tracks.Lookup(ctx, trackID)
}

func (s *Server) info(ctx context.Context, key string) (storage.Info, error) {
	return workpool.Run(ctx, s.deps.IOPool, func(ctx context.Context) (storage.Info, error) {
		return s.deps.Fetcher.Info(ctx, key)
	})
}

func (s *Server) readRange(ctx context.Context, key string, start, end int64) ([]byte, error) {
	return workpool.Run(ctx, s.deps.IOPool, func(ctx context.Context) ([]byte, error) {
		return s.deps.Fetcher.Range(ctx, key, start, end)
	})
}

// copyObject streams key to w in windows of at most chunk bytes. Each window
// takes its own pool slot so long transfers do not pin one.
func (s *Server) copyObject(ctx context.Context, w http.ResponseWriter, key string, size, chunk int64) (int64, error) {
	var written int64
	for start := int64(0); start < size; start += chunk {
		end := storage.ClampEnd(start, size-1, chunk)
		data, err := s.readRange(ctx, key, start, end)
		if err != nil {
			return written, err
		}
		n, err := w.Write(data)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func (s *Server) requestLogger(r *http.Request, component string) zerolog.Logger {
	return log.WithComponentFromContext(r.Context(), component)
}
