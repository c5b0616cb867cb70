// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package xp

import (
	"testing"
	"time"
)

func TestVideoCompletionXP(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name      string
		watchTime time.Duration
		want      int
	}{
		{"zero watch time", 0, 50},
		{"one second", time.Second, 50},
		{"ten seconds", 10 * time.Second, 51},
		{"ten minutes", 10 * time.Minute, 110},
		{"fractional bonus floors", 95 * time.Second, 59},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.VideoCompletionXP(tt.watchTime); got != tt.want {
				t.Errorf("VideoCompletionXP(%v) = %d, want %d", tt.watchTime, got, tt.want)
			}
		})
	}
}

func TestLevelForXP(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{999, 1},
		{1000, 2},
		{1001, 2},
		{4999, 5},
		{5000, 6},
		{-10, 1},
	}

	for _, tt := range tests {
		if got := p.LevelForXP(tt.xp); got != tt.want {
			t.Errorf("LevelForXP(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestLevelForXP_Monotonic(t *testing.T) {
	p := DefaultPolicy()

	prev := 0
	for x := 0; x <= 20000; x += 37 {
		level := p.LevelForXP(x)
		if level < 1 {
			t.Fatalf("LevelForXP(%d) = %d, below 1", x, level)
		}
		if level < prev {
			t.Fatalf("LevelForXP decreased at xp=%d: %d < %d", x, level, prev)
		}
		prev = level
	}
}

func TestXPRequiredForLevel_RoundTrip(t *testing.T) {
	p := DefaultPolicy()

	// The XP required for a computed level must never be less than or equal
	// to the floor boundary beneath the input XP.
	for x := 0; x <= 10000; x += 111 {
		level := p.LevelForXP(x)
		required := p.XPRequiredForLevel(level)
		if required <= x-p.LevelUpThreshold {
			t.Errorf("xp=%d level=%d required=%d violates floor boundary", x, level, required)
		}
		if x >= required {
			t.Errorf("xp=%d should still be within level %d (required %d)", x, level, required)
		}
	}
}

func TestLevelProgressPercent_Clamped(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name  string
		xp    int
		level int
		want  float64
	}{
		{"empty", 0, 1, 0},
		{"halfway", 500, 1, 50},
		{"at threshold", 1000, 1, 100},
		{"stale level overflow", 2500, 1, 100},
		{"level two partial", 1500, 2, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.LevelProgressPercent(tt.xp, tt.level)
			if got != tt.want {
				t.Errorf("LevelProgressPercent(%d, %d) = %v, want %v", tt.xp, tt.level, got, tt.want)
			}
			if got > 100 {
				t.Errorf("progress exceeded 100: %v", got)
			}
		})
	}
}

func TestDidLevelUp(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		oldXP, newXP int
		want         bool
	}{
		{0, 999, false},
		{950, 1000, true},
		{999, 1000, true},
		{1000, 1999, false},
		{1000, 2000, true},
		{0, 5000, true},
	}

	for _, tt := range tests {
		if got := p.DidLevelUp(tt.oldXP, tt.newXP); got != tt.want {
			t.Errorf("DidLevelUp(%d, %d) = %v, want %v", tt.oldXP, tt.newXP, got, tt.want)
		}
	}
}

func TestWindowXP(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		continuous time.Duration
		want       int
	}{
		{0, 0},
		{299 * time.Second, 0},
		{300 * time.Second, 50},
		{600 * time.Second, 100},
		{900 * time.Second, 150},
		{899 * time.Second, 100},
	}

	for _, tt := range tests {
		if got := p.WindowXP(tt.continuous); got != tt.want {
			t.Errorf("WindowXP(%v) = %d, want %d", tt.continuous, got, tt.want)
		}
	}
}

func TestRewardsUpToLevel(t *testing.T) {
	tests := []struct {
		level int
		count int
	}{
		{1, 0},
		{4, 0},
		{5, 1},
		{10, 2},
		{20, 3},
		{50, 4},
		{99, 4},
	}

	for _, tt := range tests {
		got := RewardsUpToLevel(tt.level)
		if len(got) != tt.count {
			t.Errorf("RewardsUpToLevel(%d) returned %d rewards, want %d", tt.level, len(got), tt.count)
		}
	}
}

func TestNewRewardsAtLevel(t *testing.T) {
	got := NewRewardsAtLevel(4, 5)
	if len(got) != 1 || got[0].Name != "profile_badge" {
		t.Fatalf("NewRewardsAtLevel(4, 5) = %+v, want the badge only", got)
	}

	got = NewRewardsAtLevel(5, 9)
	if len(got) != 0 {
		t.Errorf("NewRewardsAtLevel(5, 9) = %+v, want empty", got)
	}

	// Multi-level jumps grant every crossed threshold at once.
	got = NewRewardsAtLevel(1, 20)
	if len(got) != 3 {
		t.Errorf("NewRewardsAtLevel(1, 20) returned %d rewards, want 3", len(got))
	}
}
