// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/base64"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/trackgate/internal/httpx"
	"github.com/ManuGH/trackgate/internal/log"
	"github.com/ManuGH/trackgate/internal/metrics"
	"github.com/ManuGH/trackgate/internal/problem"
	"github.com/ManuGH/trackgate/internal/token"
)

// StreamGrant is the body of a stream token response.
type StreamGrant struct {
	Token       string `json:"token"`
	Nonce       string `json:"nonce"`
	KeyMaterial string `json:"keyMaterial"`
}

// PreloadGrant is the body of a preload token response.
type PreloadGrant struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// handleIssueToken mints a stream token for an authorized viewer together
// with key material from the key-derivation collaborator.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "trackID")
	lobbyID := r.URL.Query().Get("lobby")
	logger := s.requestLogger(r, "token").With().
		Str(log.FieldResourceID, trackID).
		Str(log.FieldLobbyID, lobbyID).
		Logger()

	verdict, err := s.deps.Access.Verdict(r, trackID, lobbyID)
	if err != nil {
		writeAccessError(w, r, logger, err)
		return
	}

	subject := token.StreamSubject(verdict.Track.ID)
	issued, err := s.deps.Tokens.Generate(subject)
	if err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "token.generate_failed").Msg("token generation failed")
		problem.Internal(w, r)
		return
	}
	material, err := s.deps.Keys.Derive(subject, issued.Nonce)
	if err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "keys.derive_failed").Msg("key derivation failed")
		problem.Internal(w, r)
		return
	}
	metrics.IncTokenIssued(string(token.KindStream))

	logger.Info().
		Str(log.FieldEvent, "token.issued").
		Str(log.FieldPrincipal, verdict.PrincipalID).
		Str(log.FieldTenantID, verdict.TenantID).
		Msg("stream token issued")

	httpx.NoStore(w)
	writeJSON(w, http.StatusOK, StreamGrant{
		Token:       issued.Token,
		Nonce:       base64.RawURLEncoding.EncodeToString(issued.Nonce),
		KeyMaterial: material,
	})
}

// handleIssuePreload mints a preload grant for (track, lobby).
func (s *Server) handleIssuePreload(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "trackID")
	lobbyID := r.URL.Query().Get("lobby")
	logger := s.requestLogger(r, "preload").With().
		Str(log.FieldResourceID, trackID).
		Str(log.FieldLobbyID, lobbyID).
		Logger()

	verdict, err := s.deps.Access.Verdict(r, trackID, lobbyID)
	if err != nil {
		writeAccessError(w, r, logger, err)
		return
	}

	issued, err := s.deps.Tokens.Generate(token.PreloadSubject(verdict.Track.ID, lobbyID))
	if err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "token.generate_failed").Msg("token generation failed")
		problem.Internal(w, r)
		return
	}
	metrics.IncTokenIssued(string(token.KindPreload))

	httpx.NoStore(w)
	writeJSON(w, http.StatusOK, PreloadGrant{
		Token:     issued.Token,
		ExpiresAt: issued.IssuedAt.Add(s.deps.TTLs.Preload).UnixMilli(),
	})
}
