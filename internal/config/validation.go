// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/trackgate/internal/analyzer"
	"github.com/ManuGH/trackgate/internal/token"
	"github.com/ManuGH/trackgate/internal/validate"
)

// Validate checks a fully merged configuration.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.MinBytes("Secret", cfg.Secret, token.MinSecretBytes)
	v.NotEmpty("Server.ListenAddr", cfg.Server.ListenAddr)
	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil || cfg.Log.Level == "" {
		v.AddError("Log.Level", "invalid log level (must be: trace, debug, info, warn, error)", cfg.Log.Level)
	}

	validate.Range(v, "Tokens.StreamTTL", cfg.Tokens.StreamTTL, time.Second, 24*time.Hour)
	validate.Range(v, "Tokens.SegmentTTL", cfg.Tokens.SegmentTTL, time.Second, 24*time.Hour)
	validate.Range(v, "Tokens.PreloadTTL", cfg.Tokens.PreloadTTL, time.Second, 24*time.Hour)
	validate.Range(v, "Tokens.ManifestTTL", cfg.Tokens.ManifestTTL, time.Second, cfg.Tokens.SegmentTTL)

	validate.Positive(v, "Delivery.StreamCeiling", cfg.Delivery.StreamCeiling)
	validate.Positive(v, "Delivery.SegmentCeiling", cfg.Delivery.SegmentCeiling)
	validate.Range(v, "Delivery.SegmentSize", cfg.Delivery.SegmentSize, 1, cfg.Delivery.SegmentCeiling)
	v.NotEmpty("Delivery.SegmentContentType", cfg.Delivery.SegmentContentType)

	v.OneOf("Storage.Backend", cfg.Storage.Backend, []string{"local", "remote"})
	switch cfg.Storage.Backend {
	case "local":
		v.Directory("Storage.Root", cfg.Storage.Root)
	case "remote":
		v.URL("Storage.RemoteURL", cfg.Storage.RemoteURL, []string{"http", "https"})
		validate.Range(v, "Storage.BreakerThreshold", cfg.Storage.BreakerThreshold, 1, 1000)
		validate.Positive(v, "Storage.BreakerReset", cfg.Storage.BreakerReset)
		v.Check(!cfg.Storage.Watch, "Storage.Watch", "watching is only supported for the local backend", cfg.Storage.Watch)
	}
	validate.Positive(v, "Storage.Timeout", cfg.Storage.Timeout)

	v.OneOf("Cache.Backend", cfg.Cache.Backend, []string{"memory", "redis", "none"})
	if cfg.Cache.Backend == "redis" {
		v.NotEmpty("Cache.RedisAddr", cfg.Cache.RedisAddr)
	}

	v.NotEmpty("Catalog.Path", cfg.Catalog.Path)
	for i, t := range cfg.Catalog.Tracks {
		field := fmt.Sprintf("Catalog.Tracks[%d]", i)
		v.NotEmpty(field+".ID", t.ID)
		v.NotEmpty(field+".FileKey", t.FileKey)
		v.NotEmpty(field+".LobbyID", t.LobbyID)
	}

	v.Check(analyzer.ValidFFTSize(cfg.Analyzer.DefaultFFTSize), "Analyzer.DefaultFFTSize",
		fmt.Sprintf("must be a power of two in [%d, %d]", analyzer.MinFFTSize, analyzer.MaxFFTSize), cfg.Analyzer.DefaultFFTSize)
	v.Check(cfg.Analyzer.MinDecibels < cfg.Analyzer.MaxDecibels, "Analyzer.MinDecibels",
		"must be below Analyzer.MaxDecibels", cfg.Analyzer.MinDecibels)
	validate.Range(v, "Analyzer.Smoothing", cfg.Analyzer.Smoothing, 0, 1)
	validate.Positive(v, "Analyzer.MaxBodyBytes", cfg.Analyzer.MaxBodyBytes)

	validate.Range(v, "Pools.IO", cfg.Pools.IO, 1, 4096)
	validate.Range(v, "Pools.CPU", cfg.Pools.CPU, 1, 1024)

	if cfg.Telemetry.Enabled {
		v.OneOf("Telemetry.Exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
		validate.Range(v, "Telemetry.SamplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	return v.Err()
}
