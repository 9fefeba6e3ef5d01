// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	gorillaws "github.com/gorilla/websocket"

	"github.com/danvera/pulseboard/internal/changefeed"
	"github.com/danvera/pulseboard/internal/dashboard"
	"github.com/danvera/pulseboard/internal/database"
	"github.com/danvera/pulseboard/internal/logging"
	"github.com/danvera/pulseboard/internal/metrics"
	"github.com/danvera/pulseboard/internal/websocket"
)

// ChangePublisher is the slice of the change-feed publisher the
// handlers need.
type ChangePublisher interface {
	PublishRecord(ctx context.Context, rec *changefeed.Record) error
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	db        *database.DB
	publisher ChangePublisher
	engine    *dashboard.Engine
	hub       *websocket.Hub
	validate  *validator.Validate
	upgrader  gorillaws.Upgrader
}

// NewHandlers wires the handlers.
func NewHandlers(db *database.DB, publisher ChangePublisher, engine *dashboard.Engine, hub *websocket.Hub) *Handlers {
	return &Handlers{
		db:        db,
		publisher: publisher,
		engine:    engine,
		hub:       hub,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The CORS middleware already gates origins; the upgrader
			// does not need to re-check.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Health reports liveness of the store.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		logging.Error().Err(err).Msg("health check failed")
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status})
}

// publishChange sends a change record to the feed. A publish failure is
// logged but does not fail the request: the row is already durable in
// the store and the next manual refresh will pick it up.
func (h *Handlers) publishChange(ctx context.Context, table string, op changefeed.Op, newRow, oldRow any) {
	rec, err := changefeed.NewRecord(table, op, newRow, oldRow)
	if err != nil {
		logging.Error().Err(err).Str("table", table).Msg("failed to build change record")
		return
	}
	if err := h.publisher.PublishRecord(ctx, rec); err != nil {
		logging.Error().Err(err).Str("table", table).Str("op", string(op)).
			Msg("failed to publish change record")
		return
	}
	metrics.RecordIngest(table, string(op))
}
