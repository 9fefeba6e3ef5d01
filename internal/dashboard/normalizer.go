// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package dashboard

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/danvera/pulseboard/internal/changefeed"
	"github.com/danvera/pulseboard/internal/metrics"
	"github.com/danvera/pulseboard/internal/models"
)

// Normalizer converts raw change-feed records into working-set mutations
// and zero or one ActivityEvent each. It never fails on record content:
// unknown visit event types fall through to the generic "other" category
// and records without a joined profile classify via the id fallback.
type Normalizer struct {
	classifier models.Classifier
	logger     zerolog.Logger
	nextID     atomic.Int64
}

// NewNormalizer builds a normalizer using the given actor classifier.
func NewNormalizer(classifier models.Classifier, logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		classifier: classifier,
		logger:     logger.With().Str("component", "normalizer").Logger(),
	}
}

// Apply routes one change record into the working set and returns the
// derived activity event, or nil when the record mutates state without
// notifying (owner activity, non-terminal session updates).
//
// Owner records are still stored so aggregates that intentionally span
// all actors keep seeing them; only the notification is suppressed.
func (n *Normalizer) Apply(ws *WorkingSet, rec *changefeed.Record) (*models.ActivityEvent, error) {
	switch rec.Table {
	case models.TableSessions:
		return n.applySession(ws, rec)
	case models.TableDevices:
		return n.applyDevice(ws, rec)
	case models.TableResponses:
		return n.applyResponse(ws, rec)
	case models.TableVisits:
		return n.applyVisit(ws, rec)
	default:
		n.logger.Warn().Str("table", rec.Table).Msg("change record for unknown table dropped")
		return nil, nil
	}
}

func (n *Normalizer) applySession(ws *WorkingSet, rec *changefeed.Record) (*models.ActivityEvent, error) {
	var s models.Session
	if err := json.Unmarshal(rec.New, &s); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}

	if rec.Op == changefeed.OpInsert {
		ws.AddSession(s)
		if !n.classifier.IsSubject(s.ActorID, s.Actor) {
			return nil, nil
		}
		return n.event(models.CategorySessionStart,
			fmt.Sprintf("%s signed in", displayName(s.Actor)),
			map[string]any{"session_id": s.ID, "login_at": s.LoginAt},
			s.LoginAt), nil
	}

	ws.MergeSession(s)
	if !n.classifier.IsSubject(s.ActorID, s.Actor) {
		return nil, nil
	}

	// Only the one-time is_active true-to-false transition notifies.
	// Heartbeat updates mutate state silently.
	var old models.Session
	if len(rec.Old) > 0 {
		if err := json.Unmarshal(rec.Old, &old); err != nil {
			return nil, fmt.Errorf("decode session old row: %w", err)
		}
	}
	if !old.IsActive || s.IsActive {
		return nil, nil
	}
	return n.event(models.CategorySessionEnd,
		fmt.Sprintf("%s signed out", displayName(s.Actor)),
		map[string]any{"session_id": s.ID, "logout_at": s.LogoutAt},
		rec.Timestamp), nil
}

func (n *Normalizer) applyDevice(ws *WorkingSet, rec *changefeed.Record) (*models.ActivityEvent, error) {
	if rec.Op != changefeed.OpInsert {
		n.logger.Warn().Str("op", string(rec.Op)).Msg("device records are immutable, update dropped")
		return nil, nil
	}

	var d models.DeviceRecord
	if err := json.Unmarshal(rec.New, &d); err != nil {
		return nil, fmt.Errorf("decode device record: %w", err)
	}

	ws.AddDevice(d)
	if !n.classifier.IsSubject(d.ActorID, d.Actor) {
		return nil, nil
	}
	return n.event(models.CategoryDeviceLogin,
		fmt.Sprintf("%s logged in from %s on %s", displayName(d.Actor), orUnknown(d.Browser), orUnknown(d.OS)),
		map[string]any{
			"device_type": d.DeviceType,
			"browser":     d.Browser,
			"os":          d.OS,
			"screen":      d.Screen,
			"network":     d.Network,
			"fingerprint": d.Fingerprint,
			"ip_address":  d.IPAddress,
		},
		d.CreatedAt), nil
}

func (n *Normalizer) applyResponse(ws *WorkingSet, rec *changefeed.Record) (*models.ActivityEvent, error) {
	var r models.GameResponse
	if err := json.Unmarshal(rec.New, &r); err != nil {
		return nil, fmt.Errorf("decode response record: %w", err)
	}

	if rec.Op == changefeed.OpInsert {
		ws.AddResponse(r)
		if !n.classifier.IsSubject(r.ActorID, r.Actor) {
			return nil, nil
		}
		return n.event(models.CategoryResponseSubmitted,
			fmt.Sprintf("%s answered a %s question", displayName(r.Actor), r.GameType),
			map[string]any{
				"response_id": r.ID,
				"game_type":   r.GameType,
				"question":    r.QuestionText,
				"answer":      r.ResponseText,
			},
			r.CreatedAt), nil
	}

	ws.MergeResponse(r)
	if !n.classifier.IsSubject(r.ActorID, r.Actor) || !r.IsEdited {
		return nil, nil
	}
	details := map[string]any{
		"response_id": r.ID,
		"game_type":   r.GameType,
		"answer":      r.ResponseText,
	}
	if r.OriginalResponseText != nil {
		details["original"] = *r.OriginalResponseText
	}
	ts := rec.Timestamp
	if r.EditedAt != nil {
		ts = *r.EditedAt
	}
	return n.event(models.CategoryResponseEdited,
		fmt.Sprintf("%s edited a %s answer", displayName(r.Actor), r.GameType),
		details, ts), nil
}

func (n *Normalizer) applyVisit(ws *WorkingSet, rec *changefeed.Record) (*models.ActivityEvent, error) {
	if rec.Op != changefeed.OpInsert {
		n.logger.Warn().Str("op", string(rec.Op)).Msg("visit events are immutable, update dropped")
		return nil, nil
	}

	var v models.VisitEvent
	if err := json.Unmarshal(rec.New, &v); err != nil {
		return nil, fmt.Errorf("decode visit event: %w", err)
	}

	ws.AddEvent(v)
	if !n.classifier.IsSubject(v.ActorID, v.Actor) {
		return nil, nil
	}

	name := displayName(v.Actor)
	category, message := visitNotification(name, &v)
	details := map[string]any{"event_type": v.EventType}
	if v.FeatureName != "" {
		details["feature"] = v.FeatureName
	}
	for k, val := range v.Metadata {
		details[k] = val
	}
	return n.event(category, message, details, v.CreatedAt), nil
}

// visitNotification maps a visit event type to its category and message
// template. The taxonomy is open: an unrecognized type still produces a
// generic notification carrying the literal type string, never a drop.
func visitNotification(name string, v *models.VisitEvent) (models.Category, string) {
	switch v.EventType {
	case models.VisitPageView:
		return models.CategoryPageView, fmt.Sprintf("%s opened the page", name)
	case models.VisitFeatureOpen:
		return models.CategoryFeatureOpen, fmt.Sprintf("%s opened %s", name, orUnknown(v.FeatureName))
	case models.VisitFeatureClose:
		return models.CategoryFeatureClose, fmt.Sprintf("%s closed %s", name, orUnknown(v.FeatureName))
	case models.VisitPageClose:
		return models.CategoryPageClose, fmt.Sprintf("%s left the page", name)
	case models.VisitTabHidden:
		return models.CategoryTabHidden, fmt.Sprintf("%s switched away from the tab", name)
	case models.VisitTabVisible:
		return models.CategoryTabVisible, fmt.Sprintf("%s came back to the tab", name)
	case models.VisitLockedTap:
		return models.CategoryLockedTap, fmt.Sprintf("%s tapped the locked %s", name, orUnknown(v.FeatureName))
	default:
		return models.CategoryOther, fmt.Sprintf("%s activity: %s", name, v.EventType)
	}
}

// event assembles an ActivityEvent with the next locally-assigned id.
func (n *Normalizer) event(category models.Category, message string, details map[string]any, ts time.Time) *models.ActivityEvent {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	metrics.RecordNotification(string(category))
	return &models.ActivityEvent{
		ID:        n.nextID.Add(1),
		Category:  category,
		Message:   message,
		Details:   details,
		Timestamp: ts,
	}
}

// displayName returns the joined profile's display name, or a neutral
// placeholder for records pushed before their profile is populated.
func displayName(p *models.ActorProfile) string {
	if p != nil && p.DisplayName != "" {
		return p.DisplayName
	}
	return "She"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
