// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danvera/pulseboard/internal/models"
)

// InsertDevice stores a device capture. Device records are immutable after
// creation.
func (db *DB) InsertDevice(ctx context.Context, d *models.DeviceRecord) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO device_logs
			(id, actor_id, session_id, browser, os, device_type, screen, network,
			 fingerprint, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ActorID, d.SessionID, d.Browser, d.OS, d.DeviceType, d.Screen,
		d.Network, d.Fingerprint, d.IPAddress, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert device %s: %w", d.ID, err)
	}
	return nil
}

// FetchDevices returns device records newest-first, joined with actor
// profiles, capped at limit.
func (db *DB) FetchDevices(ctx context.Context, limit int) ([]models.DeviceRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT d.id, d.actor_id, d.session_id, d.browser, d.os, d.device_type,
		       d.screen, d.network, d.fingerprint, d.ip_address, d.created_at,
		       p.display_name, p.role
		FROM device_logs d
		LEFT JOIN actor_profiles p ON p.user_id = d.actor_id
		ORDER BY d.created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch devices: %w", err)
	}
	defer rows.Close()

	var devices []models.DeviceRecord
	for rows.Next() {
		var (
			d           models.DeviceRecord
			sessionID   sql.NullString
			browser     sql.NullString
			osName      sql.NullString
			deviceType  sql.NullString
			screen      sql.NullString
			network     sql.NullString
			fingerprint sql.NullString
			ipAddress   sql.NullString
			displayName sql.NullString
			role        sql.NullString
		)
		err := rows.Scan(&d.ID, &d.ActorID, &sessionID, &browser, &osName, &deviceType,
			&screen, &network, &fingerprint, &ipAddress, &d.CreatedAt, &displayName, &role)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}

		d.SessionID = nullStr(sessionID)
		d.Browser = nullStr(browser)
		d.OS = nullStr(osName)
		d.DeviceType = nullStr(deviceType)
		d.Screen = nullStr(screen)
		d.Network = nullStr(network)
		d.Fingerprint = nullStr(fingerprint)
		d.IPAddress = nullStr(ipAddress)
		if displayName.Valid || role.Valid {
			d.Actor = &models.ActorProfile{
				DisplayName: nullStr(displayName),
				Role:        nullStr(role),
			}
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}
