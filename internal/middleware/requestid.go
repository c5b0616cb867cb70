// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

// Package middleware provides the HTTP middleware shared by all routes:
// request ID propagation and Prometheus instrumentation. Authentication
// middleware lives in the auth package.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/watchpoints/watchpoints/internal/logging"
)

// RequestID tags every request with an ID, honoring one supplied by an
// upstream proxy, and exposes it in the response header and the logging
// context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)
		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
