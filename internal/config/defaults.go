// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"runtime"
	"time"

	"github.com/ManuGH/trackgate/internal/analyzer"
	"github.com/ManuGH/trackgate/internal/resilience"
	"github.com/ManuGH/trackgate/internal/segment"
	"github.com/ManuGH/trackgate/internal/token"
)

// Serving ceilings. These bound every response regardless of the request.
const (
	DefaultStreamCeiling  int64 = 64 * 1024
	DefaultSegmentCeiling int64 = 128 * 1024
)

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			ListenAddr:        ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
		Tokens: TokenConfig{
			StreamTTL:   token.DefaultStreamTTL,
			SegmentTTL:  token.DefaultSegmentTTL,
			PreloadTTL:  token.DefaultPreloadTTL,
			ManifestTTL: segment.DefaultManifestTTL,
		},
		Delivery: DeliveryConfig{
			SegmentSize:        segment.DefaultSize,
			StreamCeiling:      DefaultStreamCeiling,
			SegmentCeiling:     DefaultSegmentCeiling,
			SegmentContentType: "application/octet-stream",
		},
		Storage: StorageConfig{
			Backend: "local",
			Root:    "./media",
			Timeout: 5 * time.Second,

			BreakerThreshold: resilience.DefaultThreshold,
			BreakerReset:     resilience.DefaultResetTimeout,
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     5 * time.Minute,
		},
		Catalog: CatalogConfig{
			Path: "./trackgate.db",
		},
		Analyzer: AnalyzerConfig{
			DefaultFFTSize: analyzer.DefaultFFTSize,
			MinDecibels:    analyzer.DefaultMinDecibels,
			MaxDecibels:    analyzer.DefaultMaxDecibels,
			MaxBodyBytes:   4 << 20,
		},
		Pools: PoolConfig{
			IO:  64,
			CPU: runtime.GOMAXPROCS(0),
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}
