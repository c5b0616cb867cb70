// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package models

import "time"

// Video is a catalog entry. The catalog is presentation plumbing backed by
// mock data; only the ID and duration matter to the XP engine.
type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	VideoURL    string    `json:"video_url"`
	Channel     string    `json:"channel"`
	Category    string    `json:"category,omitempty"`
	Duration    int       `json:"duration_seconds"`
	Views       int64     `json:"views"`
	Likes       int64     `json:"likes"`
	UploadedAt  time.Time `json:"uploaded_at"`

	// Short marks short-form entries served on the shorts feed.
	Short bool `json:"short,omitempty"`
}

// LevelUpNotification is the websocket payload broadcast when a credit
// crosses a level boundary. Rewards carries only the newly unlocked set.
type LevelUpNotification struct {
	UserID    string    `json:"user_id"`
	OldLevel  int       `json:"old_level"`
	NewLevel  int       `json:"new_level"`
	XP        int       `json:"xp"`
	Rewards   []string  `json:"rewards,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
