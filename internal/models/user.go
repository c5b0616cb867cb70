// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

// Package models defines the data structures shared across the Watchpoints
// application: user records, watch events, catalog entries, and
// notification payloads.
package models

import "time"

// UserRecord is the authoritative per-user ledger record.
//
// Invariants:
//   - XP never goes negative. Credits only increase it; debits are gated by
//     a sufficiency check inside the ledger's per-user critical section.
//   - Level is derived from XP; the cached value always equals
//     Policy.LevelForXP(XP) after every mutation.
//   - Watch history is append-only and lives in the history store, keyed by
//     the user ID; it is never embedded here to keep records small.
type UserRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`

	XP    int `json:"xp"`
	Level int `json:"level"`

	// SubscriptionExpiry is nil until the first premium purchase. Premium
	// status is derived: active when the expiry lies in the future.
	SubscriptionExpiry *time.Time `json:"subscription_expiry,omitempty"`

	JoinDate  time.Time `json:"join_date"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPremium reports whether the record carries an active entitlement at
// the given instant.
func (u *UserRecord) IsPremium(now time.Time) bool {
	return u.SubscriptionExpiry != nil && u.SubscriptionExpiry.After(now)
}

// UserSummary is the read model returned to interface layers: everything a
// profile page needs without re-deriving from ambient state.
type UserSummary struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	XP              int        `json:"xp"`
	Level           int        `json:"level"`
	ProgressPercent float64    `json:"progress_percent"`
	IsPremium       bool       `json:"is_premium"`
	DaysRemaining   int        `json:"days_remaining"`
	SubscriptionEnd *time.Time `json:"subscription_end,omitempty"`
}

// CreditResult describes exactly what a ledger credit changed, so callers
// can react without re-reading the record.
type CreditResult struct {
	NewXP     int  `json:"new_xp"`
	NewLevel  int  `json:"new_level"`
	LeveledUp bool `json:"leveled_up"`
}

// DebitResult describes the outcome of a ledger debit.
type DebitResult struct {
	RemainingXP int `json:"remaining_xp"`
}
