// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

// Package dashboard implements the live engine at the heart of
// Pulseboard: the in-memory working set populated by a bulk snapshot,
// the normalizer that turns raw change records into activity events,
// the pure aggregator that derives the subject-activity views, and the
// bounded notification feed.
package dashboard

import (
	"github.com/danvera/pulseboard/internal/models"
)

// WorkingSet is the in-memory copy of the four observed collections.
// Every slice is ordered newest-first: snapshot fetches return rows in
// descending timestamp order and live inserts prepend. The aggregator's
// order-sensitive scans rely on this.
//
// Mutations replace whole slices (prepend or merge-by-id produce a new
// slice header) so a reader holding a slice from a previous tick never
// observes a torn update.
type WorkingSet struct {
	Sessions  []models.Session
	Responses []models.GameResponse
	Events    []models.VisitEvent
	Devices   []models.DeviceRecord
}

// NewWorkingSet returns an empty working set.
func NewWorkingSet() *WorkingSet {
	return &WorkingSet{}
}

// AddSession prepends a session.
func (ws *WorkingSet) AddSession(s models.Session) {
	ws.Sessions = append([]models.Session{s}, ws.Sessions...)
}

// MergeSession merges an updated session into the set by id. New values
// win; fields the update leaves unset keep their previous value. An
// update for an id never seen is treated as an insert, which makes
// replay after a subscription drop safe.
func (ws *WorkingSet) MergeSession(s models.Session) {
	for i := range ws.Sessions {
		if ws.Sessions[i].ID != s.ID {
			continue
		}
		old := ws.Sessions[i]
		merged := s
		if merged.LoginAt.IsZero() {
			merged.LoginAt = old.LoginAt
		}
		if merged.LastActiveAt.IsZero() {
			merged.LastActiveAt = old.LastActiveAt
		}
		if merged.LogoutAt == nil {
			merged.LogoutAt = old.LogoutAt
		}
		if merged.Actor == nil {
			merged.Actor = old.Actor
		}
		ws.Sessions[i] = merged
		return
	}
	ws.AddSession(s)
}

// AddResponse prepends a game response.
func (ws *WorkingSet) AddResponse(r models.GameResponse) {
	ws.Responses = append([]models.GameResponse{r}, ws.Responses...)
}

// MergeResponse merges an updated response by id, falling back to insert
// for an unknown id. The first-edit original text is preserved when the
// update does not carry one.
func (ws *WorkingSet) MergeResponse(r models.GameResponse) {
	for i := range ws.Responses {
		if ws.Responses[i].ID != r.ID {
			continue
		}
		old := ws.Responses[i]
		merged := r
		if merged.CreatedAt.IsZero() {
			merged.CreatedAt = old.CreatedAt
		}
		if merged.GameType == "" {
			merged.GameType = old.GameType
		}
		if merged.QuestionText == "" {
			merged.QuestionText = old.QuestionText
		}
		if merged.ResponseData == nil {
			merged.ResponseData = old.ResponseData
		}
		if merged.OriginalResponseText == nil {
			merged.OriginalResponseText = old.OriginalResponseText
		}
		if merged.EditedAt == nil {
			merged.EditedAt = old.EditedAt
		}
		if merged.Actor == nil {
			merged.Actor = old.Actor
		}
		ws.Responses[i] = merged
		return
	}
	ws.AddResponse(r)
}

// AddEvent prepends a visit event. Visit events are immutable; there is
// no merge path.
func (ws *WorkingSet) AddEvent(v models.VisitEvent) {
	ws.Events = append([]models.VisitEvent{v}, ws.Events...)
}

// AddDevice prepends a device record. Device records are immutable.
func (ws *WorkingSet) AddDevice(d models.DeviceRecord) {
	ws.Devices = append([]models.DeviceRecord{d}, ws.Devices...)
}
