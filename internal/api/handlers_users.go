// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package api

import (
	"math"
	"net/http"
	"time"

	"github.com/watchpoints/watchpoints/internal/models"
	"github.com/watchpoints/watchpoints/internal/xp"
)

// summarize builds the profile read model from a ledger record.
func (h *Handler) summarize(u *models.UserRecord) models.UserSummary {
	now := time.Now().UTC()
	summary := models.UserSummary{
		ID:              u.ID,
		Name:            u.Name,
		XP:              u.XP,
		Level:           u.Level,
		ProgressPercent: h.policy.LevelProgressPercent(u.XP, u.Level),
		IsPremium:       u.IsPremium(now),
		SubscriptionEnd: u.SubscriptionExpiry,
	}
	if summary.IsPremium {
		remaining := u.SubscriptionExpiry.Sub(now)
		summary.DaysRemaining = int(math.Ceil(remaining.Hours() / 24))
	}
	return summary
}

// ProfileResponse joins the ledger summary with the history aggregates.
type ProfileResponse struct {
	models.UserSummary
	Watch *models.WatchSummary `json:"watch,omitempty"`
}

// Me handles GET /users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims := h.claims(w, r)
	if claims == nil {
		return
	}

	user, err := h.ledger.Get(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := ProfileResponse{UserSummary: h.summarize(user)}
	if watch, err := h.history.UserSummary(r.Context(), claims.UserID); err == nil {
		resp.Watch = watch
	}

	NewResponseWriter(w, r).Success(resp)
}

// HistoryResponse is one page of a user's watch history.
type HistoryResponse struct {
	Events []models.WatchEvent `json:"events"`
}

// History handles GET /users/me/history with limit/offset pagination.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	claims := h.claims(w, r)
	if claims == nil {
		return
	}

	limit := queryInt(r, "limit", 50, 500)
	offset := queryInt(r, "offset", 0, 0)

	events, err := h.history.UserHistory(r.Context(), claims.UserID, limit, offset)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	NewResponseWriter(w, r).SuccessWithPagination(HistoryResponse{Events: events}, &PaginationMeta{
		Count:   len(events),
		Offset:  offset,
		Limit:   limit,
		HasMore: len(events) == limit,
	})
}

// HistoryDaily handles GET /users/me/history/daily.
func (h *Handler) HistoryDaily(w http.ResponseWriter, r *http.Request) {
	claims := h.claims(w, r)
	if claims == nil {
		return
	}

	days := queryInt(r, "days", 30, 365)
	totals, err := h.history.DailyTotals(r.Context(), claims.UserID, days)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	NewResponseWriter(w, r).Success(map[string]any{"days": totals})
}

// RewardsResponse lists everything the user has unlocked plus the next
// reward still ahead of them.
type RewardsResponse struct {
	Level    int         `json:"level"`
	Unlocked []xp.Reward `json:"unlocked"`
	Next     *xp.Reward  `json:"next,omitempty"`
}

// Rewards handles GET /users/me/rewards.
func (h *Handler) Rewards(w http.ResponseWriter, r *http.Request) {
	claims := h.claims(w, r)
	if claims == nil {
		return
	}

	user, err := h.ledger.Get(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := RewardsResponse{
		Level:    user.Level,
		Unlocked: xp.RewardsUpToLevel(user.Level),
	}
	if upcoming := xp.NewRewardsAtLevel(user.Level, user.Level+50); len(upcoming) > 0 {
		resp.Next = &upcoming[0]
	}

	NewResponseWriter(w, r).Success(resp)
}
