// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danvera/pulseboard/internal/models"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("database: row not found")

// InsertSession stores a new session row.
func (db *DB) InsertSession(ctx context.Context, s *models.Session) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO auth_sessions (id, actor_id, login_at, last_active_at, logout_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.ActorID, s.LoginAt, s.LastActiveAt, s.LogoutAt, s.IsActive)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", s.ID, err)
	}
	return nil
}

// HeartbeatSession advances a session's last_active_at. Returns the row
// before and after the update so the caller can publish a change record
// carrying both.
func (db *DB) HeartbeatSession(ctx context.Context, id string, at time.Time) (old, updated *models.Session, err error) {
	return db.updateSession(ctx, id, func(s *models.Session) {
		s.LastActiveAt = at
	})
}

// CloseSession marks a session signed out. The is_active true-to-false
// transition happens at most once; closing an already-closed session only
// refreshes nothing and reports the unchanged row.
func (db *DB) CloseSession(ctx context.Context, id string, at time.Time) (old, updated *models.Session, err error) {
	return db.updateSession(ctx, id, func(s *models.Session) {
		if s.IsActive {
			s.IsActive = false
			logout := at
			s.LogoutAt = &logout
			s.LastActiveAt = at
		}
	})
}

// updateSession applies mutate to the current row inside a transaction and
// returns the before and after states.
func (db *DB) updateSession(ctx context.Context, id string, mutate func(*models.Session)) (*models.Session, *models.Session, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin session update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	old, err := scanSession(tx.QueryRowContext(ctx, `
		SELECT s.id, s.actor_id, s.login_at, s.last_active_at, s.logout_at, s.is_active,
		       p.display_name, p.role
		FROM auth_sessions s
		LEFT JOIN actor_profiles p ON p.user_id = s.actor_id
		WHERE s.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return nil, nil, fmt.Errorf("load session %s: %w", id, err)
	}

	updated := *old
	if old.LogoutAt != nil {
		logout := *old.LogoutAt
		updated.LogoutAt = &logout
	}
	mutate(&updated)

	_, err = tx.ExecContext(ctx, `
		UPDATE auth_sessions
		SET last_active_at = ?, logout_at = ?, is_active = ?
		WHERE id = ?`,
		updated.LastActiveAt, updated.LogoutAt, updated.IsActive, id)
	if err != nil {
		return nil, nil, fmt.Errorf("update session %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit session update %s: %w", id, err)
	}
	return old, &updated, nil
}

// FetchSessions returns sessions newest-first, joined with actor profiles,
// capped at limit.
func (db *DB) FetchSessions(ctx context.Context, limit int) ([]models.Session, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT s.id, s.actor_id, s.login_at, s.last_active_at, s.logout_at, s.is_active,
		       p.display_name, p.role
		FROM auth_sessions s
		LEFT JOIN actor_profiles p ON p.user_id = s.actor_id
		ORDER BY s.login_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		s           models.Session
		logoutAt    sql.NullTime
		displayName sql.NullString
		role        sql.NullString
	)
	if err := row.Scan(&s.ID, &s.ActorID, &s.LoginAt, &s.LastActiveAt, &logoutAt, &s.IsActive, &displayName, &role); err != nil {
		return nil, err
	}
	s.LogoutAt = nullTime(logoutAt)
	if displayName.Valid || role.Valid {
		s.Actor = &models.ActorProfile{
			DisplayName: nullStr(displayName),
			Role:        nullStr(role),
		}
	}
	return &s, nil
}
