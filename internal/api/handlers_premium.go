// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package api

import (
	"net/http"

	"github.com/watchpoints/watchpoints/internal/entitlement"
)

// PremiumPlans handles GET /premium/plans.
func (h *Handler) PremiumPlans(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]any{"plans": entitlement.Plans()})
}

// PremiumPurchase handles POST /premium/purchase. The XP debit and the
// subscription extension commit atomically; a failed purchase changes
// nothing.
func (h *Handler) PremiumPurchase(w http.ResponseWriter, r *http.Request) {
	claims := h.claims(w, r)
	if claims == nil {
		return
	}

	var req PurchaseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.entitlements.Purchase(r.Context(), claims.UserID, req.PlanID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	NewResponseWriter(w, r).Success(result)
}
