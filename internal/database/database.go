// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

// Package database provides the embedded DuckDB store behind the
// change-data-capture boundary: the durable event log the dashboard
// bulk-fetches its snapshot from.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/danvera/pulseboard/internal/config"
	"github.com/danvera/pulseboard/internal/logging"
)

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New creates a database connection and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure the parent directory exists before DuckDB opens the file.
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dbDir, err)
		}
	}

	dsn := fmt.Sprintf("%s?threads=%d&max_memory=%s", cfg.Path, numThreads, cfg.MaxMemory)
	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// DuckDB handles its own internal parallelism; a single writer
	// connection avoids write-write conflicts.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, cfg: cfg}
	if err := db.initSchema(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Int("threads", numThreads).Msg("database ready")
	return db, nil
}

// initSchema creates the tables if they do not exist.
func (db *DB) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS actor_profiles (
			user_id      VARCHAR PRIMARY KEY,
			display_name VARCHAR,
			role         VARCHAR NOT NULL DEFAULT 'subject'
		)`,
		`CREATE TABLE IF NOT EXISTS auth_sessions (
			id             VARCHAR PRIMARY KEY,
			actor_id       VARCHAR NOT NULL,
			login_at       TIMESTAMP NOT NULL,
			last_active_at TIMESTAMP NOT NULL,
			logout_at      TIMESTAMP,
			is_active      BOOLEAN NOT NULL DEFAULT true
		)`,
		`CREATE TABLE IF NOT EXISTS device_logs (
			id          VARCHAR PRIMARY KEY,
			actor_id    VARCHAR NOT NULL,
			session_id  VARCHAR,
			browser     VARCHAR,
			os          VARCHAR,
			device_type VARCHAR,
			screen      VARCHAR,
			network     VARCHAR,
			fingerprint VARCHAR,
			ip_address  VARCHAR,
			created_at  TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS game_responses (
			id                     VARCHAR PRIMARY KEY,
			actor_id               VARCHAR NOT NULL,
			game_type              VARCHAR NOT NULL,
			question_text          VARCHAR,
			response_text          VARCHAR,
			response_data          VARCHAR,
			is_edited              BOOLEAN NOT NULL DEFAULT false,
			original_response_text VARCHAR,
			edited_at              TIMESTAMP,
			created_at             TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS visit_events (
			id           VARCHAR PRIMARY KEY,
			actor_id     VARCHAR NOT NULL,
			event_type   VARCHAR NOT NULL,
			feature_name VARCHAR,
			metadata     VARCHAR,
			created_at   TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}
	return nil
}

// UpsertActorProfile creates or updates the minimal actor profile joined
// onto fetched records.
func (db *DB) UpsertActorProfile(ctx context.Context, userID, displayName, role string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO actor_profiles (user_id, display_name, role)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = excluded.display_name,
			role = excluded.role`,
		userID, displayName, role)
	if err != nil {
		return fmt.Errorf("upsert actor profile %s: %w", userID, err)
	}
	return nil
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// nullTime converts a sql.NullTime to a *time.Time.
func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// nullStr converts a sql.NullString to its string value, empty when null.
func nullStr(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}
