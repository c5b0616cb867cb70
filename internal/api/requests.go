// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package api

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/watchpoints/watchpoints/internal/validation"
)

// SignInRequest is the body of POST /auth/signin. Sign-in is mock-mode:
// any name and email pair yields an identity, created on first use.
type SignInRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=64"`
	Email string `json:"email" validate:"required,email"`
}

// StartSessionRequest is the body of POST /sessions.
type StartSessionRequest struct {
	VideoID string `json:"video_id" validate:"required,min=1,max=128"`
}

// SampleRequest is the body of POST /sessions/{id}/samples. Position is
// the playhead offset in seconds; fractional values are accepted.
type SampleRequest struct {
	PositionSeconds float64 `json:"position_seconds" validate:"min=0"`
}

// PlaybackEventRequest is the body of POST /sessions/{id}/events.
type PlaybackEventRequest struct {
	Type            string  `json:"type" validate:"required,oneof=play pause ended"`
	PositionSeconds float64 `json:"position_seconds" validate:"min=0"`
}

// PurchaseRequest is the body of POST /premium/purchase.
type PurchaseRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

// decodeAndValidate parses a JSON body into dst and runs struct
// validation. On failure it writes the error response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		NewResponseWriter(w, r).BadRequest("Invalid request body")
		return false
	}
	if err := validation.ValidateStruct(dst); err != nil {
		writeDomainError(w, r, err)
		return false
	}
	return true
}

// queryInt reads an integer query parameter, clamped to [0, maxVal].
// Missing or malformed values fall back to def.
func queryInt(r *http.Request, name string, def, maxVal int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
