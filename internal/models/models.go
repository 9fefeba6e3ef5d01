// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

// Package models defines the persisted record types observed by the
// dashboard (sessions, device logs, game responses, visit events), the
// derived in-memory ActivityEvent, and actor classification.
package models

import (
	"time"
)

// Table names used by the store and the change feed. The dashboard engine
// routes change records by these names.
const (
	TableSessions  = "auth_sessions"
	TableDevices   = "device_logs"
	TableResponses = "game_responses"
	TableVisits    = "visit_events"
)

// Visit event types. The set is open: unrecognized types are still stored
// and notified under the generic "other" category.
const (
	VisitPageView     = "page_view"
	VisitFeatureOpen  = "feature_open"
	VisitFeatureClose = "feature_close"
	VisitPageClose    = "page_close"
	VisitTabHidden    = "tab_hidden"
	VisitTabVisible   = "tab_visible"
	VisitLockedTap    = "locked_feature_tap"
	VisitHeartbeat    = "heartbeat"
)

// ActorProfile is the minimal joined profile attached to records fetched
// from the store. Realtime-pushed records may arrive without it; actor
// classification falls back to the configured owner id in that case.
type ActorProfile struct {
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
}

// Session represents one continuous visit.
//
// Lifecycle: created on sign-in, LastActiveAt updated by heartbeats roughly
// every 30 seconds, closed once by an explicit sign-out. Never deleted.
type Session struct {
	ID           string        `json:"id"`
	ActorID      string        `json:"actor_id"`
	LoginAt      time.Time     `json:"login_at"`
	LastActiveAt time.Time     `json:"last_active_at"`
	LogoutAt     *time.Time    `json:"logout_at,omitempty"`
	IsActive     bool          `json:"is_active"`
	Actor        *ActorProfile `json:"actor,omitempty"`
}

// OnlineWindow is how recently a session must have heartbeated to count
// as online.
const OnlineWindow = 120 * time.Second

// Online reports whether the session counts as currently online at the
// given instant: still active and heartbeated within the online window.
func (s *Session) Online(now time.Time) bool {
	return s.IsActive && now.Sub(s.LastActiveAt) < OnlineWindow
}

// EngagedTime returns the elapsed time between login and the session's end
// marker (last heartbeat, or logout if no heartbeat was recorded). Sessions
// with no usable end marker contribute zero, never a negative duration.
func (s *Session) EngagedTime() time.Duration {
	end := s.LastActiveAt
	if end.IsZero() && s.LogoutAt != nil {
		end = *s.LogoutAt
	}
	if end.IsZero() {
		return 0
	}
	d := end.Sub(s.LoginAt)
	if d < 0 {
		return 0
	}
	return d
}

// DeviceRecord is a static capture of the browser/OS/hardware environment
// taken once per login. Immutable after creation. Loosely coupled to its
// session: in the live feed it may arrive slightly before or after the
// session record.
type DeviceRecord struct {
	ID          string        `json:"id"`
	ActorID     string        `json:"actor_id"`
	SessionID   string        `json:"session_id,omitempty"`
	Browser     string        `json:"browser,omitempty"`
	OS          string        `json:"os,omitempty"`
	DeviceType  string        `json:"device_type,omitempty"`
	Screen      string        `json:"screen,omitempty"`
	Network     string        `json:"network,omitempty"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	IPAddress   string        `json:"ip_address,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	Actor       *ActorProfile `json:"actor,omitempty"`
}

// GameResponse is an answer submitted while playing one of the game
// components. OriginalResponseText is captured lazily on the first edit
// only; later edits never overwrite it.
type GameResponse struct {
	ID                   string         `json:"id"`
	ActorID              string         `json:"actor_id"`
	GameType             string         `json:"game_type"`
	QuestionText         string         `json:"question_text,omitempty"`
	ResponseText         string         `json:"response_text,omitempty"`
	ResponseData         map[string]any `json:"response_data,omitempty"`
	IsEdited             bool           `json:"is_edited"`
	OriginalResponseText *string        `json:"original_response_text,omitempty"`
	EditedAt             *time.Time     `json:"edited_at,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	Actor                *ActorProfile  `json:"actor,omitempty"`
}

// VisitEvent is a discrete, timestamped navigation or engagement signal.
// There is no pairing field linking a feature_open to its feature_close;
// pairing is inferred positionally by the aggregator.
type VisitEvent struct {
	ID          string         `json:"id"`
	ActorID     string         `json:"actor_id"`
	EventType   string         `json:"event_type"`
	FeatureName string         `json:"feature_name,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Actor       *ActorProfile  `json:"actor,omitempty"`
}
