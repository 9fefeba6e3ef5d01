// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/danvera/pulseboard/internal/models"
)

// InsertVisitEvent stores a navigation/engagement signal. Unknown event
// types are stored as-is; the taxonomy is open on purpose.
func (db *DB) InsertVisitEvent(ctx context.Context, v *models.VisitEvent) error {
	meta, err := marshalPayload(v.Metadata)
	if err != nil {
		return fmt.Errorf("encode visit metadata: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO visit_events (id, actor_id, event_type, feature_name, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.ActorID, v.EventType, v.FeatureName, meta, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert visit event %s: %w", v.ID, err)
	}
	return nil
}

// FetchVisitEvents returns visit events newest-first, joined with actor
// profiles, capped at limit.
func (db *DB) FetchVisitEvents(ctx context.Context, limit int) ([]models.VisitEvent, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT v.id, v.actor_id, v.event_type, v.feature_name, v.metadata, v.created_at,
		       p.display_name, p.role
		FROM visit_events v
		LEFT JOIN actor_profiles p ON p.user_id = v.actor_id
		ORDER BY v.created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch visit events: %w", err)
	}
	defer rows.Close()

	var events []models.VisitEvent
	for rows.Next() {
		var (
			v           models.VisitEvent
			featureName sql.NullString
			metadata    sql.NullString
			displayName sql.NullString
			role        sql.NullString
		)
		err := rows.Scan(&v.ID, &v.ActorID, &v.EventType, &featureName, &metadata, &v.CreatedAt, &displayName, &role)
		if err != nil {
			return nil, fmt.Errorf("scan visit event: %w", err)
		}

		v.FeatureName = nullStr(featureName)
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &v.Metadata); err != nil {
				return nil, fmt.Errorf("decode visit metadata for %s: %w", v.ID, err)
			}
		}
		if displayName.Valid || role.Valid {
			v.Actor = &models.ActorProfile{
				DisplayName: nullStr(displayName),
				Role:        nullStr(role),
			}
		}
		events = append(events, v)
	}
	return events, rows.Err()
}
