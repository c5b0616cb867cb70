// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package models

import "time"

// WatchEvent is one immutable entry in a user's watch history: a credited
// span of playback against a single video. Entries are append-only; the
// history store never mutates or reorders them.
type WatchEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	VideoID   string    `json:"video_id"`
	SessionID string    `json:"session_id,omitempty"`
	WatchTime int       `json:"watch_time_seconds"`
	XPEarned  int       `json:"xp_earned"`
	Timestamp time.Time `json:"timestamp"`
}

// WatchSummary aggregates a user's history for the profile page.
type WatchSummary struct {
	TotalVideos    int `json:"total_videos"`
	TotalWatchTime int `json:"total_watch_time_seconds"`
	TotalXPEarned  int `json:"total_xp_earned"`
}

// DailyWatchTotal is one bucket of the per-day watch-time series.
type DailyWatchTotal struct {
	Day            time.Time `json:"day"`
	WatchTime      int       `json:"watch_time_seconds"`
	XPEarned       int       `json:"xp_earned"`
	SessionsPlayed int       `json:"sessions_played"`
}

// TopVideo is one row of the most-watched ranking.
type TopVideo struct {
	VideoID        string `json:"video_id"`
	Plays          int    `json:"plays"`
	TotalWatchTime int    `json:"total_watch_time_seconds"`
}
