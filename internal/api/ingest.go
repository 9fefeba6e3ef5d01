// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/danvera/pulseboard/internal/changefeed"
	"github.com/danvera/pulseboard/internal/database"
	"github.com/danvera/pulseboard/internal/logging"
	"github.com/danvera/pulseboard/internal/metrics"
	"github.com/danvera/pulseboard/internal/models"
)

type sessionCreateRequest struct {
	ID          string     `json:"id"`
	ActorID     string     `json:"actor_id" validate:"required"`
	LoginAt     *time.Time `json:"login_at"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
}

// CreateSession records a sign-in: a new session row plus an optional
// actor-profile upsert when the client sends identity fields.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	loginAt := time.Now().UTC()
	if req.LoginAt != nil {
		loginAt = req.LoginAt.UTC()
	}
	s := models.Session{
		ID:           orNewID(req.ID),
		ActorID:      req.ActorID,
		LoginAt:      loginAt,
		LastActiveAt: loginAt,
		IsActive:     true,
	}
	if req.DisplayName != "" || req.Role != "" {
		if err := h.db.UpsertActorProfile(r.Context(), req.ActorID, req.DisplayName, req.Role); err != nil {
			logging.Error().Err(err).Str("actor_id", req.ActorID).Msg("actor profile upsert failed")
		}
		s.Actor = &models.ActorProfile{DisplayName: req.DisplayName, Role: req.Role}
	}

	if err := h.db.InsertSession(r.Context(), &s); err != nil {
		metrics.RecordIngestError(models.TableSessions)
		logging.Error().Err(err).Str("session_id", s.ID).Msg("session insert failed")
		writeError(w, http.StatusInternalServerError, "failed to store session")
		return
	}
	h.publishChange(r.Context(), models.TableSessions, changefeed.OpInsert, &s, nil)
	writeJSON(w, http.StatusCreated, &s)
}

type heartbeatRequest struct {
	At *time.Time `json:"at"`
}

// HeartbeatSession advances a session's last-active timestamp.
func (h *Handlers) HeartbeatSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req heartbeatRequest
	// An empty body means "now"; anything else malformed is a 400.
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	at := time.Now().UTC()
	if req.At != nil {
		at = req.At.UTC()
	}

	old, updated, err := h.db.HeartbeatSession(r.Context(), id, at)
	if err != nil {
		h.sessionUpdateError(w, id, err)
		return
	}
	h.publishChange(r.Context(), models.TableSessions, changefeed.OpUpdate, updated, old)
	writeJSON(w, http.StatusOK, updated)
}

// LogoutSession marks a session signed out.
func (h *Handlers) LogoutSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req heartbeatRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	at := time.Now().UTC()
	if req.At != nil {
		at = req.At.UTC()
	}

	old, updated, err := h.db.CloseSession(r.Context(), id, at)
	if err != nil {
		h.sessionUpdateError(w, id, err)
		return
	}
	h.publishChange(r.Context(), models.TableSessions, changefeed.OpUpdate, updated, old)
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) sessionUpdateError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	metrics.RecordIngestError(models.TableSessions)
	logging.Error().Err(err).Str("session_id", id).Msg("session update failed")
	writeError(w, http.StatusInternalServerError, "failed to update session")
}

type deviceCreateRequest struct {
	ID          string `json:"id"`
	ActorID     string `json:"actor_id" validate:"required"`
	SessionID   string `json:"session_id"`
	Browser     string `json:"browser"`
	OS          string `json:"os"`
	DeviceType  string `json:"device_type"`
	Screen      string `json:"screen"`
	Network     string `json:"network"`
	Fingerprint string `json:"fingerprint"`
	IPAddress   string `json:"ip_address"`
}

// CreateDevice records the device capture taken at login.
func (h *Handlers) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d := models.DeviceRecord{
		ID:          orNewID(req.ID),
		ActorID:     req.ActorID,
		SessionID:   req.SessionID,
		Browser:     req.Browser,
		OS:          req.OS,
		DeviceType:  req.DeviceType,
		Screen:      req.Screen,
		Network:     req.Network,
		Fingerprint: req.Fingerprint,
		IPAddress:   req.IPAddress,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.db.InsertDevice(r.Context(), &d); err != nil {
		metrics.RecordIngestError(models.TableDevices)
		logging.Error().Err(err).Str("device_id", d.ID).Msg("device insert failed")
		writeError(w, http.StatusInternalServerError, "failed to store device")
		return
	}
	h.publishChange(r.Context(), models.TableDevices, changefeed.OpInsert, &d, nil)
	writeJSON(w, http.StatusCreated, &d)
}

type responseCreateRequest struct {
	ID           string         `json:"id"`
	ActorID      string         `json:"actor_id" validate:"required"`
	GameType     string         `json:"game_type" validate:"required"`
	QuestionText string         `json:"question_text"`
	ResponseText string         `json:"response_text"`
	ResponseData map[string]any `json:"response_data"`
}

// CreateResponse records a freshly submitted game answer.
func (h *Handlers) CreateResponse(w http.ResponseWriter, r *http.Request) {
	var req responseCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := models.GameResponse{
		ID:           orNewID(req.ID),
		ActorID:      req.ActorID,
		GameType:     req.GameType,
		QuestionText: req.QuestionText,
		ResponseText: req.ResponseText,
		ResponseData: req.ResponseData,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.db.InsertResponse(r.Context(), &resp); err != nil {
		metrics.RecordIngestError(models.TableResponses)
		logging.Error().Err(err).Str("response_id", resp.ID).Msg("response insert failed")
		writeError(w, http.StatusInternalServerError, "failed to store response")
		return
	}
	h.publishChange(r.Context(), models.TableResponses, changefeed.OpInsert, &resp, nil)
	writeJSON(w, http.StatusCreated, &resp)
}

type responseEditRequest struct {
	ResponseText string         `json:"response_text" validate:"required"`
	ResponseData map[string]any `json:"response_data"`
}

// EditResponse rewrites an answer. The store captures the pre-edit text
// as the original on the first edit only.
func (h *Handlers) EditResponse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req responseEditRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	old, updated, err := h.db.EditResponse(r.Context(), id, req.ResponseText, req.ResponseData, time.Now().UTC())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "response not found")
			return
		}
		metrics.RecordIngestError(models.TableResponses)
		logging.Error().Err(err).Str("response_id", id).Msg("response edit failed")
		writeError(w, http.StatusInternalServerError, "failed to edit response")
		return
	}
	h.publishChange(r.Context(), models.TableResponses, changefeed.OpUpdate, updated, old)
	writeJSON(w, http.StatusOK, updated)
}

type visitCreateRequest struct {
	ID          string         `json:"id"`
	ActorID     string         `json:"actor_id" validate:"required"`
	EventType   string         `json:"event_type" validate:"required"`
	FeatureName string         `json:"feature_name"`
	Metadata    map[string]any `json:"metadata"`
}

// CreateVisit records a navigation/engagement signal. Event types
// outside the known set are accepted as-is.
func (h *Handlers) CreateVisit(w http.ResponseWriter, r *http.Request) {
	var req visitCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	v := models.VisitEvent{
		ID:          orNewID(req.ID),
		ActorID:     req.ActorID,
		EventType:   req.EventType,
		FeatureName: req.FeatureName,
		Metadata:    req.Metadata,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.db.InsertVisitEvent(r.Context(), &v); err != nil {
		metrics.RecordIngestError(models.TableVisits)
		logging.Error().Err(err).Str("visit_id", v.ID).Msg("visit insert failed")
		writeError(w, http.StatusInternalServerError, "failed to store visit event")
		return
	}
	h.publishChange(r.Context(), models.TableVisits, changefeed.OpInsert, &v, nil)
	writeJSON(w, http.StatusCreated, &v)
}

func orNewID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}
