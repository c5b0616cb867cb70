// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the payload of GET /health.
type HealthStatus struct {
	Status           string  `json:"status"`
	Version          string  `json:"version"`
	HistoryConnected bool    `json:"history_connected"`
	ActiveSessions   int     `json:"active_sessions"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
}

// Health handles GET /health. Degraded means the history store is
// unreachable; the ledger and session paths still work, so the process
// keeps serving.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	historyUp := h.history != nil && h.history.Ping(r.Context()) == nil

	status := "healthy"
	if !historyUp {
		status = "degraded"
	}

	NewResponseWriter(w, r).Success(HealthStatus{
		Status:           status,
		Version:          h.version,
		HistoryConnected: historyUp,
		ActiveSessions:   h.sessions.ActiveCount(),
		UptimeSeconds:    time.Since(h.startTime).Seconds(),
	})
}

// HealthLive handles GET /health/live, the liveness probe. It answers
// 200 whenever the process is up, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// HealthReady handles GET /health/ready, the readiness probe.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.history == nil || h.history.Ping(r.Context()) != nil {
		NewResponseWriter(w, r).Error(http.StatusServiceUnavailable, ErrCodeUnavailable, "History store not ready")
		return
	}
	NewResponseWriter(w, r).Success(map[string]string{"status": "ready"})
}
