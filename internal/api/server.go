// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api wires the delivery components behind the trackgate HTTP surface.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/trackgate/internal/access"
	"github.com/ManuGH/trackgate/internal/analyzer"
	"github.com/ManuGH/trackgate/internal/catalog"
	"github.com/ManuGH/trackgate/internal/keys"
	"github.com/ManuGH/trackgate/internal/log"
	"github.com/ManuGH/trackgate/internal/middleware"
	"github.com/ManuGH/trackgate/internal/obfuscate"
	"github.com/ManuGH/trackgate/internal/origin"
	"github.com/ManuGH/trackgate/internal/segment"
	"github.com/ManuGH/trackgate/internal/storage"
	"github.com/ManuGH/trackgate/internal/token"
	"github.com/ManuGH/trackgate/internal/workpool"
)

// Default serving limits.
const (
	DefaultStreamCeiling  int64 = 64 * 1024
	DefaultSegmentCeiling int64 = 128 * 1024
	DefaultMaxBodyBytes   int64 = 4 << 20
)

// Config is the immutable serving policy of a Server.
type Config struct {
	Production bool
	Version    string

	SegmentSize    int64
	StreamCeiling  int64
	SegmentCeiling int64
	// Obfuscate XORs full-stream bodies and hides their media type.
	Obfuscate bool
	// SegmentContentType is sent with segment bodies; empty means octet-stream.
	SegmentContentType string
	LegacyRoutes       bool

	Analyzer     analyzer.Options
	MaxBodyBytes int64

	TracingService string
}

// TokenService mints and verifies tokens.
type TokenService interface {
	Generate(subject string) (token.Issued, error)
	Verify(tok, expectedSubject string, ttl time.Duration) (token.Claims, error)
}

// Tracks resolves track metadata.
type Tracks interface {
	Lookup(ctx context.Context, trackID string) (catalog.Track, error)
}

// Deps are the collaborators a Server delegates to.
type Deps struct {
	Tokens     TokenService
	TTLs       token.TTLs
	Planner    *segment.Planner
	Fetcher    storage.Fetcher
	Tracks     Tracks
	Access     *access.Verifier
	Keys       keys.Deriver
	Obfuscator *obfuscate.Obfuscator
	IOPool     *workpool.Pool
	CPUPool    *workpool.Pool
	// Ready reports backend health for /healthz; nil means always ready.
	Ready func(ctx context.Context) error
}

// Server serves the delivery API.
type Server struct {
	cfg    Config
	deps   Deps
	guard  origin.Guard
	router chi.Router
}

// New validates deps and builds the router.
func New(cfg Config, deps Deps) (*Server, error) {
	switch {
	case deps.Tokens == nil:
		return nil, errors.New("api: token service is required")
	case deps.Planner == nil:
		return nil, errors.New("api: planner is required")
	case deps.Fetcher == nil:
		return nil, errors.New("api: fetcher is required")
	case deps.Tracks == nil:
		return nil, errors.New("api: track catalog is required")
	case deps.Access == nil:
		return nil, errors.New("api: access verifier is required")
	case deps.Keys == nil:
		return nil, errors.New("api: key deriver is required")
	}
	if cfg.SegmentSize <= 0 {
		cfg.SegmentSize = segment.DefaultSize
	}
	if cfg.StreamCeiling <= 0 {
		cfg.StreamCeiling = DefaultStreamCeiling
	}
	if cfg.SegmentCeiling <= 0 {
		cfg.SegmentCeiling = DefaultSegmentCeiling
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Analyzer.FFTSize == 0 {
		cfg.Analyzer.FFTSize = analyzer.DefaultFFTSize
	}
	if cfg.Obfuscate && deps.Obfuscator == nil {
		deps.Obfuscator = obfuscate.Default()
	}
	if deps.TTLs == (token.TTLs{}) {
		deps.TTLs = token.DefaultTTLs()
	}
	if deps.IOPool == nil {
		deps.IOPool = workpool.New("io", 64)
	}
	if deps.CPUPool == nil {
		deps.CPUPool = workpool.New("cpu", 4)
	}

	s := &Server{cfg: cfg, deps: deps, guard: origin.Guard{Production: cfg.Production}}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        s.cfg.TracingService,
		EnableLogging:         true,
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeNotFound(w, r, "no such route")
	})
	r.MethodNotAllowed(writeMethodNotAllowed)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/tracks/{trackID}", func(r chi.Router) {
			r.Get("/manifest", s.handleManifest)
			r.Get("/segments/{index}", s.handleSegment)
			r.Get("/stream", s.handleStream)
			r.Post("/token", s.handleIssueToken)
			r.Post("/preload", s.handleIssuePreload)
			if s.cfg.LegacyRoutes {
				r.Post("/legacy-token", s.handleIssueLegacy)
			}
		})
		r.Post("/analyze", s.handleAnalyze)
	})

	r.Route("/proxy/{trackID}", func(r chi.Router) {
		r.Get("/playlist.m3u8", s.handlePlaylist)
		r.Get("/segment/{name}", s.handleHLSSegment)
	})

	if s.cfg.LegacyRoutes {
		r.Get("/legacy/files/*", s.handleLegacyFile)
	}

	logger := log.WithComponent("api")
	logger.Debug().
		Bool("legacy_routes", s.cfg.LegacyRoutes).
		Bool("obfuscate", s.cfg.Obfuscate).
		Bool("production", s.cfg.Production).
		Msg("routes registered")
	return r
}
