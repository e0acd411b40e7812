// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package catalog maps public track ids to backing file keys and records
// which lobby owns a track and who may join that lobby.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)
)

// ErrTrackNotFound is returned by Lookup for unknown track ids.
var ErrTrackNotFound = errors.New("track not found")

// Track is the metadata the delivery path needs.
type Track struct {
	ID       string
	FileKey  string
	TenantID string
	LobbyID  string
	// HLSKey is the key prefix of the packaged HLS rendition, if any.
	HLSKey string
}

// Config defines SQLite operational parameters.
type Config struct {
	Path         string
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultConfig returns the recommended configuration.
func DefaultConfig(path string) Config {
	return Config{
		Path:         path,
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 8,
	}
}

// Store provides SQLite persistence for the track catalog.
type Store struct {
	db *sql.DB
}

// Open initializes the database with WAL and busy_timeout pragmas applied to
// every pooled connection, then runs migrations. Path ":memory:" opens a
// private in-memory catalog.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var dsn string
	if cfg.Path == ":memory:" {
		// Single shared connection, otherwise each pooled conn gets its own empty db.
		dsn = fmt.Sprintf("file::memory:?_pragma=busy_timeout(%d)&_pragma=foreign_keys(ON)", cfg.BusyTimeout.Milliseconds())
		cfg.MaxOpenConns = 1
	} else {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
			cfg.Path, cfg.BusyTimeout.Milliseconds())
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open failed: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: ping failed: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tracks (
		id TEXT PRIMARY KEY,
		file_key TEXT NOT NULL,
		tenant_id TEXT NOT NULL DEFAULT '',
		lobby_id TEXT NOT NULL,
		hls_key TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS lobby_members (
		lobby_id TEXT NOT NULL,
		principal_id TEXT NOT NULL,
		PRIMARY KEY (lobby_id, principal_id)
	);

	CREATE INDEX IF NOT EXISTS idx_tracks_lobby ON tracks(lobby_id);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Lookup returns the track with id.
func (s *Store) Lookup(ctx context.Context, id string) (Track, error) {
	var t Track
	err := s.db.QueryRowContext(ctx,
		`SELECT id, file_key, tenant_id, lobby_id, hls_key FROM tracks WHERE id = ?`, id,
	).Scan(&t.ID, &t.FileKey, &t.TenantID, &t.LobbyID, &t.HLSKey)
	if errors.Is(err, sql.ErrNoRows) {
		return Track{}, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	if err != nil {
		return Track{}, fmt.Errorf("lookup track %s: %w", id, err)
	}
	return t, nil
}

// IsMember reports whether principalID belongs to lobbyID.
func (s *Store) IsMember(ctx context.Context, lobbyID, principalID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM lobby_members WHERE lobby_id = ? AND principal_id = ?`, lobbyID, principalID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lobby membership %s: %w", lobbyID, err)
	}
	return true, nil
}

// UpsertTrack inserts or replaces a track.
func (s *Store) UpsertTrack(ctx context.Context, t Track) error {
	if strings.TrimSpace(t.ID) == "" || strings.TrimSpace(t.FileKey) == "" || strings.TrimSpace(t.LobbyID) == "" {
		return fmt.Errorf("track requires id, file key and lobby")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracks (id, file_key, tenant_id, lobby_id, hls_key)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_key = excluded.file_key,
			tenant_id = excluded.tenant_id,
			lobby_id = excluded.lobby_id,
			hls_key = excluded.hls_key
	`, t.ID, t.FileKey, t.TenantID, t.LobbyID, t.HLSKey)
	if err != nil {
		return fmt.Errorf("upsert track %s: %w", t.ID, err)
	}
	return nil
}

// AddMember grants principalID access to lobbyID. Adding twice is a no-op.
func (s *Store) AddMember(ctx context.Context, lobbyID, principalID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO lobby_members (lobby_id, principal_id) VALUES (?, ?)`, lobbyID, principalID)
	if err != nil {
		return fmt.Errorf("add member %s to %s: %w", principalID, lobbyID, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
