// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

// Package main is the entry point for the Watchpoints server.
//
// Watchpoints turns watch time into XP for a browser video-streaming
// service: playback sessions report playhead samples, continuous viewing
// accrues XP in fixed windows, level-ups unlock rewards, and accumulated
// XP buys premium entitlements.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, YAML, env vars)
//  2. Ledger: BadgerDB store holding the authoritative user records
//  3. History: DuckDB store holding the append-only watch history
//  4. Event bus: Watermill GoChannel with a circuit-breakered publisher
//  5. WebSocket hub and consumer: real-time XP and level-up pushes
//  6. Session manager: playback tracking, skip detection, idle reaping
//  7. HTTP server: Chi-routed REST API plus /ws and /metrics
//
// All long-running components live under a suture supervisor tree so a
// crash in one layer restarts only that layer.
//
// # Configuration
//
// Key environment variables:
//   - HTTP_HOST, HTTP_PORT: listen address (default 0.0.0.0:8710)
//   - LEDGER_PATH: Badger data directory (empty = in-memory)
//   - DUCKDB_PATH: history database file (":memory:" for ephemeral)
//   - JWT_SECRET: 32+ character secret for token signing
//   - AUTH_MODE: "jwt" (default) or "none" (development only)
//   - CORS_ORIGINS: comma-separated allowed origins
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests, the hub closes client connections, and both stores
// close cleanly.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/watchpoints/watchpoints/internal/api"
	"github.com/watchpoints/watchpoints/internal/auth"
	"github.com/watchpoints/watchpoints/internal/catalog"
	"github.com/watchpoints/watchpoints/internal/config"
	"github.com/watchpoints/watchpoints/internal/entitlement"
	"github.com/watchpoints/watchpoints/internal/eventbus"
	"github.com/watchpoints/watchpoints/internal/history"
	"github.com/watchpoints/watchpoints/internal/ledger"
	"github.com/watchpoints/watchpoints/internal/logging"
	"github.com/watchpoints/watchpoints/internal/session"
	"github.com/watchpoints/watchpoints/internal/supervisor"
	"github.com/watchpoints/watchpoints/internal/supervisor/services"
	ws "github.com/watchpoints/watchpoints/internal/websocket"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("ledger_path", cfg.Ledger.Path).
		Str("history_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Starting Watchpoints")

	// Ledger store (BadgerDB). An empty path selects the in-memory store,
	// which loses all balances on restart.
	store, err := ledger.OpenStore(ledger.StoreOptions{
		Path:     cfg.Ledger.Path,
		InMemory: cfg.Ledger.Path == "",
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing ledger store")
		}
	}()
	if cfg.Ledger.Path == "" {
		logging.Warn().Msg("Ledger is in-memory; balances will not survive a restart")
	}

	// Watch history store (DuckDB).
	hist, err := history.Open(history.Options{
		Path:      cfg.Database.Path,
		MaxMemory: cfg.Database.MaxMemory,
		Threads:   cfg.Database.Threads,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer func() {
		if err := hist.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing history database")
		}
	}()

	led := ledger.New(store, cfg.XP, hist)

	// Event bus with a circuit-breakered publisher. Events are
	// notifications, never state; the ledger commits first.
	bus := eventbus.NewBus(cfg.Events.BufferSize)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()
	publisher := eventbus.NewPublisher(bus, eventbus.PublisherConfig{
		BreakerMaxFailures: cfg.Events.BreakerMaxFailures,
		BreakerTimeout:     cfg.Events.BreakerTimeout,
	})
	defer func() {
		if err := publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event publisher")
		}
	}()

	wsHub := ws.NewHub()
	consumer := ws.NewConsumer(bus, wsHub)

	sessions := session.NewManager(session.Config{
		IdleTimeout:  cfg.Session.IdleTimeout,
		ReapInterval: cfg.Session.ReapInterval,
	}, cfg.XP, led, publisher)

	entitlements := entitlement.NewService(led, nil)

	var jwtManager *auth.JWTManager
	switch cfg.Security.AuthMode {
	case "jwt":
		jwtManager, err = auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		logging.Info().Msg("JWT authentication enabled")
	case "none":
		logging.Warn().Msg("Authentication is DISABLED (AUTH_MODE=none); development only")
	}

	authMW := auth.NewMiddleware(jwtManager, cfg.Security.AuthMode)

	handler := api.NewHandler(api.HandlerDeps{
		Ledger:       led,
		Sessions:     sessions,
		Entitlements: entitlements,
		History:      hist,
		Catalog:      catalog.New(),
		JWT:          jwtManager,
		Policy:       cfg.XP,
		WSHub:        wsHub,
		Version:      version,
	})

	router := api.NewRouter(handler, authMW, &api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		RateLimitRequests:  cfg.Security.RateLimitReqs,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	tree.AddMessagingService(services.NewRunnerService("websocket-hub", wsHub))
	tree.AddMessagingService(services.NewRunnerService("event-consumer", consumer))
	tree.AddMessagingService(services.NewRunnerService("session-reaper", sessions))
	if cfg.Ledger.Path != "" && cfg.Ledger.GCInterval > 0 {
		tree.AddMessagingService(services.NewGCService(store, cfg.Ledger.GCInterval))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Watchpoints stopped gracefully")
}
