// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/watchpoints/watchpoints/internal/ledger"
	"github.com/watchpoints/watchpoints/internal/logging"
	"github.com/watchpoints/watchpoints/internal/models"
)

// SignInResponse is the payload of a successful sign-in.
type SignInResponse struct {
	Token string             `json:"token"`
	User  models.UserSummary `json:"user"`
}

// SignIn handles POST /auth/signin. Sign-in is mock-mode: the email is
// the identity key, and an unknown email creates a fresh ledger record.
// Real identity providers slot in behind the same token contract.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.ledger.GetByEmail(r.Context(), req.Email)
	switch {
	case errors.Is(err, ledger.ErrUserNotFound):
		user = &models.UserRecord{
			ID:       uuid.New().String(),
			Name:     req.Name,
			Email:    req.Email,
			JoinDate: time.Now().UTC(),
		}
		if err := h.ledger.CreateUser(r.Context(), user); err != nil {
			// Concurrent first sign-in with the same email; re-read the
			// winner's record.
			if errors.Is(err, ledger.ErrUserExists) {
				user, err = h.ledger.GetByEmail(r.Context(), req.Email)
				if err != nil {
					writeDomainError(w, r, err)
					return
				}
			} else {
				writeDomainError(w, r, err)
				return
			}
		} else {
			logging.Ctx(r.Context()).Info().
				Str("user_id", user.ID).
				Str("email", user.Email).
				Msg("new user registered")
		}
	case err != nil:
		writeDomainError(w, r, err)
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		logging.Error().Err(err).Msg("token generation failed")
		NewResponseWriter(w, r).InternalError("Could not issue token")
		return
	}

	NewResponseWriter(w, r).Success(SignInResponse{
		Token: token,
		User:  h.summarize(user),
	})
}
