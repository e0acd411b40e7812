// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/trackgate/internal/validate"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_DefaultsWithEnvSecret(t *testing.T) {
	media := t.TempDir()
	t.Setenv(EnvSecret, testSecret)
	t.Setenv(EnvMediaRoot, media)

	cfg, err := NewLoader("", "v1.2.3").Load()
	require.NoError(t, err)

	assert.Equal(t, "v1.2.3", cfg.Version)
	assert.Equal(t, testSecret, cfg.Secret)
	assert.Equal(t, int64(81920), cfg.Delivery.SegmentSize)
	assert.Equal(t, int64(64*1024), cfg.Delivery.StreamCeiling)
	assert.Equal(t, int64(128*1024), cfg.Delivery.SegmentCeiling)
	assert.Equal(t, 60*time.Second, cfg.Tokens.StreamTTL)
	assert.Equal(t, 300*time.Second, cfg.Tokens.PreloadTTL)
	assert.Equal(t, 55*time.Second, cfg.Tokens.ManifestTTL)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.True(t, filepath.IsAbs(cfg.Storage.Root))
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	media := t.TempDir()
	path := writeFile(t, dir, "trackgate.yaml", `
production: true
server:
  listenAddr: ":9000"
tokens:
  streamTTL: 45s
delivery:
  segmentSize: 65536
  obfuscate: true
storage:
  backend: local
  root: `+media+`
viewers:
  - id: alice
    token: tok-alice
    tenantId: t1
catalog:
  path: `+filepath.Join(dir, "c.db")+`
  tracks:
    - id: trackA
      fileKey: tracks/a.mp3
      lobbyId: lobby-1
  members:
    - lobbyId: lobby-1
      principalId: alice
`)
	t.Setenv(EnvSecret, testSecret)
	t.Setenv(EnvListenAddr, ":9100")

	cfg, err := NewLoader(path, "dev").Load()
	require.NoError(t, err)

	assert.True(t, cfg.Production)
	assert.Equal(t, ":9100", cfg.Server.ListenAddr, "env wins over file")
	assert.Equal(t, 45*time.Second, cfg.Tokens.StreamTTL)
	assert.Equal(t, 60*time.Second, cfg.Tokens.SegmentTTL, "defaults survive partial file")
	assert.Equal(t, int64(65536), cfg.Delivery.SegmentSize)
	assert.True(t, cfg.Delivery.Obfuscate)
	require.Len(t, cfg.Viewers, 1)
	assert.Equal(t, "alice", cfg.Viewers[0].ID)
	require.Len(t, cfg.SeedTracks(), 1)
	assert.Equal(t, "tracks/a.mp3", cfg.SeedTracks()[0].FileKey)
	require.Len(t, cfg.Catalog.Members, 1)
}

func TestLoad_StrictRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.yaml", "delivery:\n  chunkSize: 10\n")
	t.Setenv(EnvSecret, testSecret)

	_, err := NewLoader(path, "").Load()
	require.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoad_SecretIsNotAYAMLField(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.yaml", "secret: "+testSecret+"\n")
	_, err := NewLoader(path, "").Load()
	require.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoad_RejectsMultipleDocuments(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.yaml", "production: false\n---\nproduction: true\n")
	t.Setenv(EnvSecret, testSecret)
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
}

func TestLoad_RejectsNonYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.json", "{}")
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
}

func TestLoad_SecretFile(t *testing.T) {
	dir := t.TempDir()
	secretPath := writeFile(t, dir, "secret", testSecret+"\n")
	t.Setenv(EnvSecretFile, secretPath)
	t.Setenv(EnvMediaRoot, t.TempDir())

	cfg, err := NewLoader("", "").Load()
	require.NoError(t, err)
	assert.Equal(t, testSecret, cfg.Secret)
	assert.Equal(t, []byte(testSecret), cfg.TokenConfig().Secret)
}

func TestLoad_MissingSecretFails(t *testing.T) {
	t.Setenv(EnvMediaRoot, t.TempDir())
	_, err := NewLoader("", "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Secret")
}

func TestLoad_TracksConsumedEnvKeys(t *testing.T) {
	t.Setenv(EnvSecret, testSecret)
	t.Setenv(EnvMediaRoot, t.TempDir())
	l := NewLoader("", "")
	_, err := l.Load()
	require.NoError(t, err)
	for _, k := range []string{EnvSecret, EnvMediaRoot, EnvSegmentSize, EnvRedisAddr} {
		assert.Contains(t, l.ConsumedEnvKeys, k)
	}
}

func validConfig(t *testing.T) AppConfig {
	t.Helper()
	cfg := Defaults()
	cfg.Secret = testSecret
	cfg.Storage.Root = t.TempDir()
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{name: "short secret", mutate: func(c *AppConfig) { c.Secret = "short" }, field: "Secret"},
		{name: "segment above ceiling", mutate: func(c *AppConfig) { c.Delivery.SegmentSize = c.Delivery.SegmentCeiling + 1 }, field: "Delivery.SegmentSize"},
		{name: "unknown backend", mutate: func(c *AppConfig) { c.Storage.Backend = "s3" }, field: "Storage.Backend"},
		{name: "remote without url", mutate: func(c *AppConfig) { c.Storage.Backend = "remote" }, field: "Storage.RemoteURL"},
		{name: "missing root", mutate: func(c *AppConfig) { c.Storage.Root = filepath.Join(c.Storage.Root, "nope") }, field: "Storage.Root"},
		{name: "redis without addr", mutate: func(c *AppConfig) { c.Cache.Backend = "redis" }, field: "Cache.RedisAddr"},
		{name: "fft size", mutate: func(c *AppConfig) { c.Analyzer.DefaultFFTSize = 1000 }, field: "Analyzer.DefaultFFTSize"},
		{name: "log level", mutate: func(c *AppConfig) { c.Log.Level = "loud" }, field: "Log.Level"},
		{name: "manifest outlives segment token", mutate: func(c *AppConfig) { c.Tokens.ManifestTTL = 2 * time.Minute }, field: "Tokens.ManifestTTL"},
		{name: "bad track seed", mutate: func(c *AppConfig) { c.Catalog.Tracks = []TrackSeed{{ID: "a"}} }, field: "Catalog.Tracks[0].FileKey"},
		{name: "otel exporter", mutate: func(c *AppConfig) { c.Telemetry.Enabled = true; c.Telemetry.Exporter = "zipkin" }, field: "Telemetry.Exporter"},
	}
	require.NoError(t, Validate(validConfig(t)))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := Validate(cfg)
			var ve validate.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields(), tt.field)
		})
	}
}

func TestComponentAccessors(t *testing.T) {
	cfg := validConfig(t)
	ttls := cfg.TokenTTLs()
	assert.Equal(t, cfg.Tokens.PreloadTTL, ttls.Preload)
	assert.Equal(t, 55*time.Second, cfg.PlannerConfig().ManifestTTL)

	opts := cfg.AnalyzerOptions(0)
	assert.Equal(t, 2048, opts.FFTSize)
	assert.Equal(t, 512, cfg.AnalyzerOptions(512).FFTSize)
	assert.Equal(t, cfg.Catalog.Path, cfg.CatalogConfig().Path)
	assert.Equal(t, "trackgate", cfg.LogConfig("trackgate").Service)
}
