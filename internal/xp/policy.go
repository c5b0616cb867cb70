// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

// Package xp implements the XP economy rules: how watch time converts to
// experience points, how cumulative XP maps to levels, and which rewards a
// level unlocks. All functions are pure and operate only on the explicit
// Policy value, so they are safe to call concurrently from any number of
// callers and trivially overridable in tests.
package xp

import (
	"math"
	"time"
)

// Policy holds the XP conversion constants. Immutable after construction;
// pass it explicitly to every component that applies economy rules.
type Policy struct {
	// BaseVideoXP is the flat credit for finishing a video.
	BaseVideoXP int `koanf:"base_video_xp"`

	// WatchTimeMultiplier converts watched seconds into bonus XP on the
	// one-shot completion credit.
	WatchTimeMultiplier float64 `koanf:"watch_time_multiplier"`

	// LevelUpThreshold is the cumulative XP per level.
	LevelUpThreshold int `koanf:"level_up_threshold"`

	// ContinuousWatchWindow is the span of uninterrupted playback that
	// earns one window credit.
	ContinuousWatchWindow time.Duration `koanf:"continuous_watch_window"`

	// XPPerWindow is the credit for each completed continuous-watch window.
	XPPerWindow int `koanf:"xp_per_window"`

	// SkipTolerance is the largest position jump still treated as
	// buffering jitter rather than a seek.
	SkipTolerance time.Duration `koanf:"skip_tolerance"`
}

// DefaultPolicy returns the production policy constants.
func DefaultPolicy() Policy {
	return Policy{
		BaseVideoXP:           50,
		WatchTimeMultiplier:   0.1,
		LevelUpThreshold:      1000,
		ContinuousWatchWindow: 5 * time.Minute,
		XPPerWindow:           50,
		SkipTolerance:         1500 * time.Millisecond,
	}
}

// VideoCompletionXP returns the one-shot credit for having watched a video:
// the base credit plus a bonus proportional to watched seconds.
func (p Policy) VideoCompletionXP(watchTime time.Duration) int {
	bonus := int(math.Floor(watchTime.Seconds() * p.WatchTimeMultiplier))
	return p.BaseVideoXP + bonus
}

// LevelForXP returns the level for a cumulative XP total. Levels start at 1
// and the result is non-decreasing in totalXP.
func (p Policy) LevelForXP(totalXP int) int {
	if totalXP < 0 {
		return 1
	}
	return totalXP/p.LevelUpThreshold + 1
}

// XPRequiredForLevel returns the cumulative XP needed to leave the given
// level behind.
func (p Policy) XPRequiredForLevel(level int) int {
	return level * p.LevelUpThreshold
}

// LevelProgressPercent returns progress toward the next level in [0,100].
// The clamp is mandatory: a caller holding a stale level may pass XP beyond
// the threshold and must still never see a value above 100.
func (p Policy) LevelProgressPercent(currentXP, currentLevel int) float64 {
	required := p.XPRequiredForLevel(currentLevel)
	if required <= 0 {
		return 0
	}
	progress := float64(currentXP) / float64(required) * 100
	return math.Min(progress, 100)
}

// DidLevelUp reports whether moving from oldXP to newXP crossed a level
// boundary.
func (p Policy) DidLevelUp(oldXP, newXP int) bool {
	return p.LevelForXP(newXP) > p.LevelForXP(oldXP)
}

// WindowsCompleted returns how many full continuous-watch windows fit in
// the accumulated span.
func (p Policy) WindowsCompleted(continuous time.Duration) int {
	if continuous <= 0 || p.ContinuousWatchWindow <= 0 {
		return 0
	}
	return int(continuous / p.ContinuousWatchWindow)
}

// WindowXP returns the cumulative window credit for the accumulated span.
func (p Policy) WindowXP(continuous time.Duration) int {
	return p.WindowsCompleted(continuous) * p.XPPerWindow
}
