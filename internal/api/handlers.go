// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package api

import (
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/watchpoints/watchpoints/internal/auth"
	"github.com/watchpoints/watchpoints/internal/catalog"
	"github.com/watchpoints/watchpoints/internal/entitlement"
	"github.com/watchpoints/watchpoints/internal/history"
	"github.com/watchpoints/watchpoints/internal/ledger"
	"github.com/watchpoints/watchpoints/internal/session"
	"github.com/watchpoints/watchpoints/internal/websocket"
	"github.com/watchpoints/watchpoints/internal/xp"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	ledger       *ledger.Ledger
	sessions     *session.Manager
	entitlements *entitlement.Service
	history      *history.DB
	catalog      *catalog.Catalog
	jwt          *auth.JWTManager
	policy       xp.Policy

	wsHub    *websocket.Hub
	upgrader gorillaws.Upgrader

	startTime time.Time
	version   string
}

// HandlerDeps carries the dependencies for NewHandler. wsHub may be nil
// when the realtime surface is disabled; /ws then answers 503.
type HandlerDeps struct {
	Ledger       *ledger.Ledger
	Sessions     *session.Manager
	Entitlements *entitlement.Service
	History      *history.DB
	Catalog      *catalog.Catalog
	JWT          *auth.JWTManager
	Policy       xp.Policy
	WSHub        *websocket.Hub
	Version      string
}

// NewHandler creates the HTTP handler set.
func NewHandler(deps HandlerDeps) *Handler {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		ledger:       deps.Ledger,
		sessions:     deps.Sessions,
		entitlements: deps.Entitlements,
		history:      deps.History,
		catalog:      deps.Catalog,
		jwt:          deps.JWT,
		policy:       deps.Policy,
		wsHub:        deps.WSHub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect cross-origin in development; the
			// bearer token already gates the upgrade.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		startTime: time.Now(),
		version:   version,
	}
}

// claims returns the authenticated identity or writes a 401 and returns
// nil. The auth middleware normally guarantees presence; this covers
// misconfigured route groups.
func (h *Handler) claims(w http.ResponseWriter, r *http.Request) *auth.Claims {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		NewResponseWriter(w, r).Unauthorized("Authentication required")
		return nil
	}
	return claims
}
