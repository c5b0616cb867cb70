// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/watchpoints/watchpoints/internal/auth"
	"github.com/watchpoints/watchpoints/internal/middleware"
)

// Router wires handlers, authentication, and the middleware stack into
// one http.Handler.
type Router struct {
	handler       *Handler
	authMW        *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates the router. mwConfig may be nil for defaults.
func NewRouter(handler *Handler, authMW *auth.Middleware, mwConfig *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		authMW:        authMW,
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight always matches

	// Monitoring probes get permissive rate limiting and no auth.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Sign-in is the only unauthenticated mutation; it gets the strict
	// limit.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAuth())
		r.Use(middleware.PrometheusMetrics)
		r.Post("/signin", router.handler.SignIn)
	})

	// Everything below requires a valid bearer token.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.authMW.Authenticate)

		// Playback sessions. Samples arrive once per playing second, so
		// they carry their own permissive limit.
		r.Route("/sessions", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitSamples())
			r.Post("/", router.handler.StartSession)
			r.Post("/{id}/samples", router.handler.RecordSample)
			r.Post("/{id}/events", router.handler.PlaybackEvent)
			r.Delete("/{id}", router.handler.EndSession)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", router.handler.Me)
				r.Get("/history", router.handler.History)
				r.Get("/history/daily", router.handler.HistoryDaily)
				r.Get("/rewards", router.handler.Rewards)
			})

			r.Route("/premium", func(r chi.Router) {
				r.Get("/plans", router.handler.PremiumPlans)
				r.Post("/purchase", router.handler.PremiumPurchase)
			})

			r.Get("/videos", router.handler.Videos)
			r.Get("/videos/top", router.handler.TopVideos)
			r.Get("/videos/{id}", router.handler.Video)
			r.Get("/shorts", router.handler.Shorts)
		})

		r.Get("/ws", router.handler.WebSocket)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
