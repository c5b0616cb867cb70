// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package api

import (
	"net/http"

	"github.com/watchpoints/watchpoints/internal/logging"
	"github.com/watchpoints/watchpoints/internal/websocket"
)

// WebSocket handles GET /ws. The connection is bound to the
// authenticated user at upgrade time; XP and level-up notifications for
// that user are then pushed over it.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	claims := h.claims(w, r)
	if claims == nil {
		return
	}

	if h.wsHub == nil {
		logging.Warn().Msg("websocket connection rejected: hub not initialized")
		NewResponseWriter(w, r).Error(http.StatusServiceUnavailable, ErrCodeUnavailable, "Realtime service unavailable")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error to the client.
		logging.Error().Err(err).Msg("websocket upgrade error")
		return
	}

	client := websocket.NewClient(h.wsHub, conn, claims.UserID)
	h.wsHub.Register <- client
	client.Start()
}
