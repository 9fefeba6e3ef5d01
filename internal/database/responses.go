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

	"github.com/goccy/go-json"

	"github.com/danvera/pulseboard/internal/models"
)

// InsertResponse stores a new game response row.
func (db *DB) InsertResponse(ctx context.Context, r *models.GameResponse) error {
	data, err := marshalPayload(r.ResponseData)
	if err != nil {
		return fmt.Errorf("encode response data: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO game_responses
			(id, actor_id, game_type, question_text, response_text, response_data,
			 is_edited, original_response_text, edited_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ActorID, r.GameType, r.QuestionText, r.ResponseText, data,
		r.IsEdited, r.OriginalResponseText, r.EditedAt, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert response %s: %w", r.ID, err)
	}
	return nil
}

// EditResponse replaces the response text. The original text is captured
// on the first edit only; a second edit leaves original_response_text
// untouched.
func (db *DB) EditResponse(ctx context.Context, id, newText string, newData map[string]any, at time.Time) (old, updated *models.GameResponse, err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin response edit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	old, err = scanResponse(tx.QueryRowContext(ctx, `
		SELECT r.id, r.actor_id, r.game_type, r.question_text, r.response_text, r.response_data,
		       r.is_edited, r.original_response_text, r.edited_at, r.created_at,
		       p.display_name, p.role
		FROM game_responses r
		LEFT JOIN actor_profiles p ON p.user_id = r.actor_id
		WHERE r.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("response %s: %w", id, ErrNotFound)
		}
		return nil, nil, fmt.Errorf("load response %s: %w", id, err)
	}

	edited := *old
	edited.ResponseText = newText
	if newData != nil {
		edited.ResponseData = newData
	}
	edited.IsEdited = true
	editedAt := at
	edited.EditedAt = &editedAt
	if old.OriginalResponseText == nil {
		original := old.ResponseText
		edited.OriginalResponseText = &original
	}

	data, err := marshalPayload(edited.ResponseData)
	if err != nil {
		return nil, nil, fmt.Errorf("encode response data: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE game_responses
		SET response_text = ?, response_data = ?, is_edited = true,
		    original_response_text = ?, edited_at = ?
		WHERE id = ?`,
		edited.ResponseText, data, edited.OriginalResponseText, edited.EditedAt, id)
	if err != nil {
		return nil, nil, fmt.Errorf("update response %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit response edit %s: %w", id, err)
	}
	return old, &edited, nil
}

// FetchResponses returns game responses newest-first, joined with actor
// profiles, capped at limit.
func (db *DB) FetchResponses(ctx context.Context, limit int) ([]models.GameResponse, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT r.id, r.actor_id, r.game_type, r.question_text, r.response_text, r.response_data,
		       r.is_edited, r.original_response_text, r.edited_at, r.created_at,
		       p.display_name, p.role
		FROM game_responses r
		LEFT JOIN actor_profiles p ON p.user_id = r.actor_id
		ORDER BY r.created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch responses: %w", err)
	}
	defer rows.Close()

	var responses []models.GameResponse
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		responses = append(responses, *r)
	}
	return responses, rows.Err()
}

func scanResponse(row rowScanner) (*models.GameResponse, error) {
	var (
		r            models.GameResponse
		questionText sql.NullString
		responseText sql.NullString
		responseData sql.NullString
		originalText sql.NullString
		editedAt     sql.NullTime
		displayName  sql.NullString
		role         sql.NullString
	)
	err := row.Scan(&r.ID, &r.ActorID, &r.GameType, &questionText, &responseText, &responseData,
		&r.IsEdited, &originalText, &editedAt, &r.CreatedAt, &displayName, &role)
	if err != nil {
		return nil, err
	}

	r.QuestionText = nullStr(questionText)
	r.ResponseText = nullStr(responseText)
	r.EditedAt = nullTime(editedAt)
	if originalText.Valid {
		original := originalText.String
		r.OriginalResponseText = &original
	}
	if responseData.Valid && responseData.String != "" {
		if err := json.Unmarshal([]byte(responseData.String), &r.ResponseData); err != nil {
			return nil, fmt.Errorf("decode response data for %s: %w", r.ID, err)
		}
	}
	if displayName.Valid || role.Valid {
		r.Actor = &models.ActorProfile{
			DisplayName: nullStr(displayName),
			Role:        nullStr(role),
		}
	}
	return &r, nil
}

// marshalPayload encodes an open key-value payload as JSON text, or NULL
// when empty.
func marshalPayload(payload map[string]any) (any, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
