// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ManuGH/trackgate/internal/access"
	"github.com/ManuGH/trackgate/internal/catalog"
	"github.com/ManuGH/trackgate/internal/httpx"
	"github.com/ManuGH/trackgate/internal/log"
	"github.com/ManuGH/trackgate/internal/problem"
	"github.com/ManuGH/trackgate/internal/segment"
	"github.com/ManuGH/trackgate/internal/storage"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", httpx.ContentTypeJSON)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeNotFound(w http.ResponseWriter, r *http.Request, detail string) {
	problem.NotFound(w, r, detail)
}

func writeMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem.Write(w, r, http.StatusMethodNotAllowed, problem.TypeMethodNotAllowed, "Method Not Allowed", "METHOD_NOT_ALLOWED", "", nil)
}

func writeRangeNotSatisfiable(w http.ResponseWriter, r *http.Request, size int64) {
	w.Header().Set("Content-Range", httpx.Format416ContentRange(size))
	problem.Write(w, r, http.StatusRequestedRangeNotSatisfiable, problem.TypeRange, "Range Not Satisfiable", "RANGE_NOT_SATISFIABLE", "", nil)
}

// writeAccessError maps a verdict failure. Unknown tracks are 404 so a
// denied viewer cannot tell them apart from tracks it may not see.
func writeAccessError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, access.ErrUnauthenticated):
		problem.Unauthorized(w, r)
	case errors.Is(err, catalog.ErrTrackNotFound):
		writeNotFound(w, r, "track not found")
	case errors.Is(err, access.ErrForbidden):
		logger.Info().Err(err).Str(log.FieldEvent, "access.denied").Msg("access denied")
		problem.Forbidden(w, r)
	default:
		logger.Error().Err(err).Str(log.FieldEvent, "access.error").Msg("access check failed")
		problem.Internal(w, r)
	}
}

// writeFetchError maps storage and planning failures. Backend failures are
// answered as 404 so storage topology stays hidden, and logged in full.
func writeFetchError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error, size int64) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Warn().Err(err).Str(log.FieldEvent, "fetch.aborted").Msg("fetch aborted")
		problem.Write(w, r, http.StatusServiceUnavailable, problem.TypeUnavailable, "Service Unavailable", "UNAVAILABLE", "", nil)
	case errors.Is(err, storage.ErrRangeUnsatisfiable):
		writeRangeNotSatisfiable(w, r, size)
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, catalog.ErrTrackNotFound):
		writeNotFound(w, r, "resource not found")
	case errors.Is(err, segment.ErrInvalidIndex):
		writeNotFound(w, r, "segment not found")
	case storage.IsFetchFailure(err):
		logger.Error().Err(err).Str(log.FieldEvent, "fetch.failed").Msg("upstream fetch failed")
		writeNotFound(w, r, "resource not found")
	default:
		logger.Error().Err(err).Str(log.FieldEvent, "fetch.error").Msg("request failed")
		problem.Internal(w, r)
	}
}
