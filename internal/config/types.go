// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the daemon configuration.
//
// Precedence is ENV > YAML file > defaults. The YAML file is parsed strictly;
// unknown keys fail startup. The signing secret is never read from YAML, only
// from TRACKGATE_SECRET or the file named by TRACKGATE_SECRET_FILE.
package config

import (
	"time"

	"github.com/ManuGH/trackgate/internal/auth"
)

// AppConfig is the complete, immutable daemon configuration.
type AppConfig struct {
	Version    string `yaml:"-"`
	Production bool   `yaml:"production"`

	// Secret is the HMAC signing secret. Populated from ENV or SecretFile.
	Secret     string `yaml:"-"`
	SecretFile string `yaml:"secretFile"`

	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Tokens    TokenConfig     `yaml:"tokens"`
	Delivery  DeliveryConfig  `yaml:"delivery"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Pools     PoolConfig      `yaml:"pools"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	Viewers []auth.Viewer `yaml:"viewers"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	ListenAddr        string        `yaml:"listenAddr"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`
	ReadTimeout       time.Duration `yaml:"readTimeout"`
	WriteTimeout      time.Duration `yaml:"writeTimeout"`
	IdleTimeout       time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`
	MaxHeaderBytes    int           `yaml:"maxHeaderBytes"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
}

// TokenConfig holds token lifetimes.
type TokenConfig struct {
	StreamTTL   time.Duration `yaml:"streamTTL"`
	SegmentTTL  time.Duration `yaml:"segmentTTL"`
	PreloadTTL  time.Duration `yaml:"preloadTTL"`
	ManifestTTL time.Duration `yaml:"manifestTTL"`
}

// DeliveryConfig holds segment and stream serving policy.
type DeliveryConfig struct {
	SegmentSize int64 `yaml:"segmentSize"`
	// StreamCeiling caps bytes per full-stream range response.
	StreamCeiling int64 `yaml:"streamCeiling"`
	// SegmentCeiling caps bytes per segment response.
	SegmentCeiling int64 `yaml:"segmentCeiling"`
	// Obfuscate XORs full-stream responses and serves them as octet-stream.
	Obfuscate bool `yaml:"obfuscate"`
	// SegmentContentType is sent with segment bodies.
	SegmentContentType string `yaml:"segmentContentType"`
	// LegacyRoutes enables the filename-token endpoint.
	LegacyRoutes bool `yaml:"legacyRoutes"`
}

// StorageConfig selects and configures the range fetcher backend.
type StorageConfig struct {
	Backend   string        `yaml:"backend"` // local | remote
	Root      string        `yaml:"root"`
	RemoteURL string        `yaml:"remoteURL"`
	Timeout   time.Duration `yaml:"timeout"`
	Watch     bool          `yaml:"watch"`

	// BreakerThreshold consecutive upstream failures open the remote breaker.
	BreakerThreshold int           `yaml:"breakerThreshold"`
	BreakerReset     time.Duration `yaml:"breakerReset"`
}

// CacheConfig configures the resource size cache.
type CacheConfig struct {
	Backend       string        `yaml:"backend"` // memory | redis | none
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"-"`
	RedisDB       int           `yaml:"redisDB"`
}

// TrackSeed is a catalog entry applied at startup.
type TrackSeed struct {
	ID       string `yaml:"id"`
	FileKey  string `yaml:"fileKey"`
	TenantID string `yaml:"tenantId"`
	LobbyID  string `yaml:"lobbyId"`
	HLSKey   string `yaml:"hlsKey"`
}

// MemberSeed grants a principal lobby membership at startup.
type MemberSeed struct {
	LobbyID     string `yaml:"lobbyId"`
	PrincipalID string `yaml:"principalId"`
}

// CatalogConfig configures the SQLite catalog.
type CatalogConfig struct {
	Path    string       `yaml:"path"`
	Tracks  []TrackSeed  `yaml:"tracks"`
	Members []MemberSeed `yaml:"members"`
}

// AnalyzerConfig configures the analysis endpoint.
type AnalyzerConfig struct {
	DefaultFFTSize int     `yaml:"defaultFFTSize"`
	MinDecibels    float64 `yaml:"minDecibels"`
	MaxDecibels    float64 `yaml:"maxDecibels"`
	Smoothing      float64 `yaml:"smoothing"`
	MaxBodyBytes   int64   `yaml:"maxBodyBytes"`
}

// PoolConfig sizes the worker pools.
type PoolConfig struct {
	IO  int `yaml:"io"`
	CPU int `yaml:"cpu"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"` // grpc | http
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}
