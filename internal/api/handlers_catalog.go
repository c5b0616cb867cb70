// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Videos handles GET /videos with an optional category filter.
func (h *Handler) Videos(w http.ResponseWriter, r *http.Request) {
	videos := h.catalog.List(r.Context(), r.URL.Query().Get("category"))
	NewResponseWriter(w, r).Success(map[string]any{"videos": videos})
}

// Video handles GET /videos/{id}.
func (h *Handler) Video(w http.ResponseWriter, r *http.Request) {
	video, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(video)
}

// Shorts handles GET /shorts.
func (h *Handler) Shorts(w http.ResponseWriter, r *http.Request) {
	shorts := h.catalog.Shorts(r.Context())
	NewResponseWriter(w, r).Success(map[string]any{"shorts": shorts})
}

// TopVideos handles GET /videos/top, the global most-watched ranking
// built from the history store.
func (h *Handler) TopVideos(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10, 100)
	top, err := h.history.TopVideos(r.Context(), limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(map[string]any{"videos": top})
}
