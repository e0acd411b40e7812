// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"github.com/ManuGH/trackgate/internal/analyzer"
	"github.com/ManuGH/trackgate/internal/api"
	"github.com/ManuGH/trackgate/internal/cache"
	"github.com/ManuGH/trackgate/internal/catalog"
	"github.com/ManuGH/trackgate/internal/log"
	"github.com/ManuGH/trackgate/internal/segment"
	"github.com/ManuGH/trackgate/internal/storage"
	"github.com/ManuGH/trackgate/internal/telemetry"
	"github.com/ManuGH/trackgate/internal/token"
)

// TokenConfig returns the signing configuration. The secret slice is a copy.
func (c AppConfig) TokenConfig() token.Config {
	return token.Config{Secret: []byte(c.Secret)}
}

// TokenTTLs returns per-kind token lifetimes.
func (c AppConfig) TokenTTLs() token.TTLs {
	return token.TTLs{
		Stream:  c.Tokens.StreamTTL,
		Segment: c.Tokens.SegmentTTL,
		Preload: c.Tokens.PreloadTTL,
	}
}

// PlannerConfig returns the segment planner configuration.
func (c AppConfig) PlannerConfig() segment.Config {
	return segment.Config{ManifestTTL: c.Tokens.ManifestTTL}
}

// AnalyzerOptions returns analyzer options for fftSize (0 selects the default).
func (c AppConfig) AnalyzerOptions(fftSize int) analyzer.Options {
	if fftSize == 0 {
		fftSize = c.Analyzer.DefaultFFTSize
	}
	return analyzer.Options{
		FFTSize:     fftSize,
		MinDecibels: c.Analyzer.MinDecibels,
		MaxDecibels: c.Analyzer.MaxDecibels,
		Smoothing:   c.Analyzer.Smoothing,
	}
}

// RemoteConfig returns the object-store fetcher configuration.
func (c AppConfig) RemoteConfig() storage.RemoteConfig {
	return storage.RemoteConfig{BaseURL: c.Storage.RemoteURL, Timeout: c.Storage.Timeout}
}

// CatalogConfig returns the SQLite catalog configuration.
func (c AppConfig) CatalogConfig() catalog.Config {
	return catalog.DefaultConfig(c.Catalog.Path)
}

// SeedTracks converts configured seeds into catalog tracks.
func (c AppConfig) SeedTracks() []catalog.Track {
	out := make([]catalog.Track, 0, len(c.Catalog.Tracks))
	for _, t := range c.Catalog.Tracks {
		out = append(out, catalog.Track{
			ID:       t.ID,
			FileKey:  t.FileKey,
			TenantID: t.TenantID,
			LobbyID:  t.LobbyID,
			HLSKey:   t.HLSKey,
		})
	}
	return out
}

// LogConfig returns the logger configuration.
func (c AppConfig) LogConfig(service string) log.Config {
	return log.Config{
		Level:      c.Log.Level,
		Service:    service,
		Version:    c.Version,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
	}
}

// APIConfig returns the HTTP serving policy.
func (c AppConfig) APIConfig(tracingService string) api.Config {
	if !c.Telemetry.Enabled {
		tracingService = ""
	}
	return api.Config{
		Production:         c.Production,
		Version:            c.Version,
		SegmentSize:        c.Delivery.SegmentSize,
		StreamCeiling:      c.Delivery.StreamCeiling,
		SegmentCeiling:     c.Delivery.SegmentCeiling,
		Obfuscate:          c.Delivery.Obfuscate,
		SegmentContentType: c.Delivery.SegmentContentType,
		LegacyRoutes:       c.Delivery.LegacyRoutes,
		Analyzer:           c.AnalyzerOptions(0),
		MaxBodyBytes:       c.Analyzer.MaxBodyBytes,
		TracingService:     tracingService,
	}
}

// RedisConfig returns the Redis size cache connection settings.
func (c AppConfig) RedisConfig() cache.RedisConfig {
	return cache.RedisConfig{Addr: c.Cache.RedisAddr, Password: c.Cache.RedisPassword, DB: c.Cache.RedisDB}
}

// TelemetryConfig returns the tracer provider configuration.
func (c AppConfig) TelemetryConfig(service string) telemetry.Config {
	env := "development"
	if c.Production {
		env = "production"
	}
	return telemetry.Config{
		Enabled:        c.Telemetry.Enabled,
		ServiceName:    service,
		ServiceVersion: c.Version,
		Environment:    env,
		ExporterType:   c.Telemetry.Exporter,
		Endpoint:       c.Telemetry.Endpoint,
		SamplingRate:   c.Telemetry.SamplingRate,
	}
}
