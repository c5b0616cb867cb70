// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// StartSessionResponse is the payload of POST /sessions.
type StartSessionResponse struct {
	SessionID string `json:"session_id"`
	VideoID   string `json:"video_id"`
}

// StartSession handles POST /sessions. The video must exist in the
// catalog; XP accrual begins with the first sample.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	claims := h.claims(w, r)
	if claims == nil {
		return
	}

	var req StartSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if _, err := h.catalog.Get(r.Context(), req.VideoID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	sess, err := h.sessions.Start(r.Context(), claims.UserID, req.VideoID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	NewResponseWriter(w, r).Created(StartSessionResponse{
		SessionID: sess.ID,
		VideoID:   sess.VideoID,
	})
}

// RecordSample handles POST /sessions/{id}/samples. Clients post the
// playhead position on a fixed cadence; credit is computed server-side.
func (h *Handler) RecordSample(w http.ResponseWriter, r *http.Request) {
	if h.claims(w, r) == nil {
		return
	}

	var req SampleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	position := time.Duration(req.PositionSeconds * float64(time.Second))
	result, err := h.sessions.RecordSample(r.Context(), chi.URLParam(r, "id"), position)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	NewResponseWriter(w, r).Success(result)
}

// PlaybackEvent handles POST /sessions/{id}/events for play, pause, and
// ended transitions.
func (h *Handler) PlaybackEvent(w http.ResponseWriter, r *http.Request) {
	if h.claims(w, r) == nil {
		return
	}

	var req PlaybackEventRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	position := time.Duration(req.PositionSeconds * float64(time.Second))
	result, err := h.sessions.HandleEvent(r.Context(), chi.URLParam(r, "id"), req.Type, position)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(result)
}

// EndSession handles DELETE /sessions/{id}. The session is abandoned;
// any uncredited partial window is forfeit.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	if h.claims(w, r) == nil {
		return
	}

	if err := h.sessions.End(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}

	NewResponseWriter(w, r).NoContent()
}
