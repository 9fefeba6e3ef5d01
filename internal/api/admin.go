// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/danvera/pulseboard/internal/logging"
	"github.com/danvera/pulseboard/internal/websocket"
)

// Dashboard returns the current presentation snapshot: derived stats,
// toast queue, and activity log.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// Refresh re-runs the bulk snapshot load. A partially failed refresh
// still returns the current state; failed collections keep their
// previous data and the failure is logged, not surfaced as an error
// page. This is the only non-live reload path; there is no polling.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Refresh(r.Context()); err != nil {
		logging.Warn().Err(err).Msg("manual refresh incomplete")
	}
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// DismissToast removes a toast before its timer fires. Dismissing an
// unknown or already-dismissed toast succeeds; dismissal is idempotent.
func (h *Handlers) DismissToast(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "toast id must be an integer")
		return
	}
	h.engine.DismissToast(id)
	writeJSON(w, http.StatusNoContent, nil)
}

// WebSocket upgrades the connection and attaches it to the hub. The
// client immediately receives the current snapshot so it never renders
// from nothing.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()

	h.hub.BroadcastDashboard(h.engine.Snapshot())
}
