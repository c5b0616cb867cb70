// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package api

import (
	"errors"
	"net/http"

	"github.com/watchpoints/watchpoints/internal/catalog"
	"github.com/watchpoints/watchpoints/internal/entitlement"
	"github.com/watchpoints/watchpoints/internal/ledger"
	"github.com/watchpoints/watchpoints/internal/session"
	"github.com/watchpoints/watchpoints/internal/validation"
)

// writeDomainError translates domain errors into the standardized error
// envelope. Unrecognized errors become opaque 500s so internal details
// never leak to clients.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)

	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		rw.ValidationError("Request validation failed", verr.Fields)
		return
	}

	switch {
	case errors.Is(err, ledger.ErrUserNotFound):
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "User not found")
	case errors.Is(err, catalog.ErrVideoNotFound):
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "Video not found")
	case errors.Is(err, ledger.ErrUserExists):
		rw.Error(http.StatusConflict, ErrCodeConflict, "User already exists")
	case errors.Is(err, ledger.ErrInvalidAmount):
		rw.Error(http.StatusBadRequest, ErrCodeInvalidAmount, "Invalid XP amount")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		rw.Error(http.StatusPaymentRequired, ErrCodeInsufficientXP, "Not enough XP for this purchase")
	case errors.Is(err, session.ErrInvalidSession):
		rw.Error(http.StatusNotFound, ErrCodeInvalidSession, "Unknown or ended session")
	case errors.Is(err, entitlement.ErrUnknownPlan):
		rw.Error(http.StatusBadRequest, ErrCodeUnknownPlan, "Unknown premium plan")
	default:
		rw.StorageError(err)
	}
}
