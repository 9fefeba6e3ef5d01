// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

// Package api provides the HTTP surface: the ingest endpoints the
// front end writes through, and the authenticated admin endpoints the
// dashboard reads from.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danvera/pulseboard/internal/config"
)

// Router builds the chi handler tree.
type Router struct {
	cfg *config.Config
	h   *Handlers
}

// NewRouter creates a router over the given handlers.
func NewRouter(cfg *config.Config, h *Handlers) *Router {
	return &Router{cfg: cfg, h: h}
}

// Setup wires middleware and routes.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(rt.cfg.Security.CORSOrigins))

	r.Get("/health", rt.h.Health)
	r.Handle("/metrics", promhttp.Handler())

	// Ingest: the end-user app's write path. No auth beyond rate
	// limiting; the app fronts this on a private network.
	r.Route("/api/v1/ingest", func(r chi.Router) {
		r.Use(RateLimit(rt.cfg.Security))

		r.Post("/sessions", rt.h.CreateSession)
		r.Post("/sessions/{id}/heartbeat", rt.h.HeartbeatSession)
		r.Post("/sessions/{id}/logout", rt.h.LogoutSession)
		r.Post("/devices", rt.h.CreateDevice)
		r.Post("/responses", rt.h.CreateResponse)
		r.Put("/responses/{id}", rt.h.EditResponse)
		r.Post("/visits", rt.h.CreateVisit)
	})

	// Admin: the dashboard's read path. Shared-secret JWT.
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(RateLimit(rt.cfg.Security))
		r.Use(JWTAuth(rt.cfg.Security.JWTSecret))

		r.Get("/dashboard", rt.h.Dashboard)
		r.Post("/refresh", rt.h.Refresh)
		r.Delete("/toasts/{id}", rt.h.DismissToast)
		r.Get("/ws", rt.h.WebSocket)
	})

	return r
}
