// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/trackgate/internal/fsutil"
	"github.com/ManuGH/trackgate/internal/httpx"
	"github.com/ManuGH/trackgate/internal/log"
	"github.com/ManuGH/trackgate/internal/metrics"
	"github.com/ManuGH/trackgate/internal/problem"
	"github.com/ManuGH/trackgate/internal/token"
)

// LegacyFilesPrefix is the mount point of the filename route.
const LegacyFilesPrefix = "/legacy/files/"

// LegacyGrant is the body of a legacy token response.
type LegacyGrant struct {
	Token     string `json:"token"`
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expiresAt"`
}

// legacyURL builds the filename route for key with its token attached.
func legacyURL(key, tok string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return LegacyFilesPrefix + strings.Join(parts, "/") + "?token=" + url.QueryEscape(tok)
}

// handleIssueLegacy mints a filename token for the file behind a track the
// viewer may access.
func (s *Server) handleIssueLegacy(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "trackID")
	lobbyID := r.URL.Query().Get("lobby")
	logger := s.requestLogger(r, "legacy-token").With().
		Str(log.FieldResourceID, trackID).
		Str(log.FieldLobbyID, lobbyID).
		Logger()

	verdict, err := s.deps.Access.Verdict(r, trackID, lobbyID)
	if err != nil {
		writeAccessError(w, r, logger, err)
		return
	}

	key, err := fsutil.NormalizeKey(verdict.Track.FileKey)
	if err != nil {
		logger.Error().Err(err).Str(log.FieldFileKey, verdict.Track.FileKey).Msg("catalog file key is not servable")
		problem.Internal(w, r)
		return
	}

	issued, err := s.deps.Tokens.Generate(token.LegacySubject(key))
	if err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "token.generate_failed").Msg("token generation failed")
		problem.Internal(w, r)
		return
	}
	metrics.IncTokenIssued(string(token.KindLegacy))

	httpx.NoStore(w)
	writeJSON(w, http.StatusOK, LegacyGrant{
		Token:     issued.Token,
		URL:       legacyURL(key, issued.Token),
		ExpiresAt: issued.IssuedAt.Add(s.deps.TTLs.For(token.KindLegacy)).UnixMilli(),
	})
}

// handleLegacyFile serves a raw file to a token bound to its name. Unlike
// every other route it reports the rejection reason to the client; older
// players depend on it.
func (s *Server) handleLegacyFile(w http.ResponseWriter, r *http.Request) {
	name, err := fsutil.NormalizeKey(chi.URLParam(r, "*"))
	logger := s.requestLogger(r, "legacy")
	if err != nil {
		writeNotFound(w, r, "file not found")
		return
	}
	logger = logger.With().Str(log.FieldFileKey, name).Logger()

	if reason, ok := s.checkToken(logger, token.KindLegacy, r.URL.Query().Get("token"), token.LegacySubject(name)); !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":  "unauthorized",
			"reason": string(reason),
		})
		return
	}

	info, err := s.info(r.Context(), name)
	if err != nil {
		writeFetchError(w, r, logger, err, 0)
		return
	}

	w.Header().Set("Content-Type", streamContentType(name))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	n, err := s.copyObject(r.Context(), w, name, info.Size, s.cfg.StreamCeiling)
	metrics.AddBytesServed("legacy", int(n))
	if err != nil {
		logger.Warn().Err(err).Int64("written", n).Msg("legacy copy aborted")
	}
}
