// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ManuGH/trackgate/internal/log"
)

const healthTimeout = 2 * time.Second

// Health is the body of /healthz.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			logger := log.WithComponentFromContext(r.Context(), "health")
			logger.Warn().Err(err).Msg("readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, Health{Status: "unavailable", Version: s.cfg.Version})
			return
		}
	}
	writeJSON(w, http.StatusOK, Health{Status: "ok", Version: s.cfg.Version})
}
