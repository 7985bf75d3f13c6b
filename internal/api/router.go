// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/swaralive/swaralive/internal/middleware"
)

// Router assembles the HTTP surface: REST endpoints, the websocket
// handshake, health probes, and the Prometheus scrape endpoint.
type Router struct {
	handler   *Handler
	handshake http.Handler
}

// NewRouter creates the router. handshake is the websocket endpoint handler;
// it is mounted outside the JSON middleware stack because upgrades speak
// their own protocol.
func NewRouter(handler *Handler, handshake http.Handler) *Router {
	return &Router{handler: handler, handshake: handshake}
}

// Setup wires all routes and returns the root handler.
func (rt *Router) Setup() http.Handler {
	cfg := rt.handler.cfg

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))

	rateLimit := func(requests int) func(http.Handler) http.Handler {
		if cfg.Security.RateLimitDisabled {
			return func(next http.Handler) http.Handler { return next }
		}
		return httprate.Limit(requests, cfg.Security.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP))
	}

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", rt.handler.HealthLive)
		r.Get("/ready", rt.handler.HealthReady)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		// Strict limit against credential stuffing.
		r.With(rateLimit(10)).Post("/login", rt.handler.Login)
	})

	r.Route("/api/v1/livechat", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(rateLimit(cfg.Security.RateLimitReqs))

		r.Post("/session", rt.handler.CreateSession)
		r.Get("/messages/approved", rt.handler.ApprovedMessages)

		r.Group(func(r chi.Router) {
			r.Use(rt.handler.StaffAuth)
			r.Use(rt.handler.Authorize)
			r.Get("/messages/pending", rt.handler.PendingMessages)
			r.Post("/messages/{id}/moderate", rt.handler.ModerateMessage)
			r.Get("/audit", rt.handler.AuditEvents)
		})
	})

	// Websocket handshake: authenticated via query token, upgraded in place.
	r.Handle("/livechat/ws", rt.handshake)

	r.Handle("/metrics", promhttp.Handler())

	return r
}
