// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment keys.
const (
	EnvConfigFile     = "TRACKGATE_CONFIG"
	EnvSecret         = "TRACKGATE_SECRET"
	EnvSecretFile     = "TRACKGATE_SECRET_FILE"
	EnvProduction     = "TRACKGATE_PRODUCTION"
	EnvListenAddr     = "TRACKGATE_LISTEN_ADDR"
	EnvLogLevel       = "TRACKGATE_LOG_LEVEL"
	EnvLogFile        = "TRACKGATE_LOG_FILE"
	EnvStreamTTL      = "TRACKGATE_STREAM_TTL"
	EnvSegmentTTL     = "TRACKGATE_SEGMENT_TTL"
	EnvPreloadTTL     = "TRACKGATE_PRELOAD_TTL"
	EnvSegmentSize    = "TRACKGATE_SEGMENT_SIZE"
	EnvObfuscate      = "TRACKGATE_OBFUSCATE"
	EnvLegacyRoutes   = "TRACKGATE_LEGACY_ROUTES"
	EnvStorageBackend = "TRACKGATE_STORAGE_BACKEND"
	EnvMediaRoot      = "TRACKGATE_MEDIA_ROOT"
	EnvRemoteURL      = "TRACKGATE_REMOTE_URL"
	EnvStorageTimeout = "TRACKGATE_STORAGE_TIMEOUT"
	EnvWatchMedia     = "TRACKGATE_WATCH_MEDIA"
	EnvCacheBackend   = "TRACKGATE_CACHE_BACKEND"
	EnvCacheTTL       = "TRACKGATE_CACHE_TTL"
	EnvRedisAddr      = "TRACKGATE_REDIS_ADDR"
	EnvRedisPassword  = "TRACKGATE_REDIS_PASSWORD"
	EnvRedisDB        = "TRACKGATE_REDIS_DB"
	EnvCatalogPath    = "TRACKGATE_CATALOG_PATH"
	EnvPoolIO         = "TRACKGATE_POOL_IO"
	EnvPoolCPU        = "TRACKGATE_POOL_CPU"
	EnvOTelEnabled    = "TRACKGATE_OTEL_ENABLED"
	EnvOTelExporter   = "TRACKGATE_OTEL_EXPORTER"
	EnvOTelEndpoint   = "TRACKGATE_OTEL_ENDPOINT"
	EnvOTelSampling   = "TRACKGATE_OTEL_SAMPLING_RATE"
)

// ErrUnknownConfigField classifies strict YAML parse failures caused by unknown keys.
var ErrUnknownConfigField = errors.New("unknown config field")

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, def string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, def)
}

func (l *Loader) envBool(key string, def bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, def)
}

func (l *Loader) envInt(key string, def int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, def)
}

func (l *Loader) envInt64(key string, def int64) int64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt64(key, def)
}

func (l *Loader) envFloat(key string, def float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, def)
}

func (l *Loader) envDuration(key string, def time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, def)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Order: defaults -> strict file parse -> env -> secret resolution -> validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)

	if err := l.resolveSecret(&cfg); err != nil {
		return cfg, err
	}

	if cfg.Storage.Backend == "local" && cfg.Storage.Root != "" {
		if abs, err := filepath.Abs(cfg.Storage.Root); err == nil {
			cfg.Storage.Root = abs
		}
	}

	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes a YAML file over cfg with STRICT parsing.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.Production = l.envBool(EnvProduction, cfg.Production)
	cfg.Server.ListenAddr = l.envString(EnvListenAddr, cfg.Server.ListenAddr)
	cfg.Log.Level = l.envString(EnvLogLevel, cfg.Log.Level)
	cfg.Log.File = l.envString(EnvLogFile, cfg.Log.File)

	cfg.Tokens.StreamTTL = l.envDuration(EnvStreamTTL, cfg.Tokens.StreamTTL)
	cfg.Tokens.SegmentTTL = l.envDuration(EnvSegmentTTL, cfg.Tokens.SegmentTTL)
	cfg.Tokens.PreloadTTL = l.envDuration(EnvPreloadTTL, cfg.Tokens.PreloadTTL)

	cfg.Delivery.SegmentSize = l.envInt64(EnvSegmentSize, cfg.Delivery.SegmentSize)
	cfg.Delivery.Obfuscate = l.envBool(EnvObfuscate, cfg.Delivery.Obfuscate)
	cfg.Delivery.LegacyRoutes = l.envBool(EnvLegacyRoutes, cfg.Delivery.LegacyRoutes)

	cfg.Storage.Backend = l.envString(EnvStorageBackend, cfg.Storage.Backend)
	cfg.Storage.Root = l.envString(EnvMediaRoot, cfg.Storage.Root)
	cfg.Storage.RemoteURL = l.envString(EnvRemoteURL, cfg.Storage.RemoteURL)
	cfg.Storage.Timeout = l.envDuration(EnvStorageTimeout, cfg.Storage.Timeout)
	cfg.Storage.Watch = l.envBool(EnvWatchMedia, cfg.Storage.Watch)

	cfg.Cache.Backend = l.envString(EnvCacheBackend, cfg.Cache.Backend)
	cfg.Cache.TTL = l.envDuration(EnvCacheTTL, cfg.Cache.TTL)
	cfg.Cache.RedisAddr = l.envString(EnvRedisAddr, cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = l.envString(EnvRedisPassword, cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = l.envInt(EnvRedisDB, cfg.Cache.RedisDB)

	cfg.Catalog.Path = l.envString(EnvCatalogPath, cfg.Catalog.Path)

	cfg.Pools.IO = l.envInt(EnvPoolIO, cfg.Pools.IO)
	cfg.Pools.CPU = l.envInt(EnvPoolCPU, cfg.Pools.CPU)

	cfg.Telemetry.Enabled = l.envBool(EnvOTelEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString(EnvOTelExporter, cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString(EnvOTelEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat(EnvOTelSampling, cfg.Telemetry.SamplingRate)
}

// resolveSecret fills cfg.Secret. TRACKGATE_SECRET wins over any secret file.
func (l *Loader) resolveSecret(cfg *AppConfig) error {
	cfg.SecretFile = l.envString(EnvSecretFile, cfg.SecretFile)
	if s := l.envString(EnvSecret, ""); s != "" {
		cfg.Secret = s
		return nil
	}
	if cfg.SecretFile == "" {
		return nil
	}
	// #nosec G304 -- secret file path is provided by the operator
	data, err := os.ReadFile(filepath.Clean(cfg.SecretFile))
	if err != nil {
		return fmt.Errorf("read secret file: %w", err)
	}
	cfg.Secret = strings.TrimSpace(string(data))
	return nil
}
