// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package session

import (
	"testing"
	"time"

	"github.com/watchpoints/watchpoints/internal/xp"
)

func feedSeconds(t *tracker, from, to int) int {
	credited := 0
	for pos := from; pos <= to; pos++ {
		credited += t.sample(time.Duration(pos) * time.Second)
	}
	return credited
}

func TestTrackerSkipDetection(t *testing.T) {
	// The jump from 4 to 40 exceeds the 1.5s tolerance: continuity is
	// zeroed and no later sample in the run credits anything.
	tr := newTracker(xp.DefaultPolicy())
	tr.play(0)

	for _, pos := range []int{0, 2, 4} {
		tr.sample(time.Duration(pos) * time.Second)
	}
	if tr.hasSkipped() {
		t.Fatal("skipped before the jump")
	}

	tr.sample(40 * time.Second)
	if !tr.hasSkipped() {
		t.Fatal("40s jump not detected as skip")
	}
	if tr.continuous != 0 {
		t.Errorf("continuous = %v after skip, want 0", tr.continuous)
	}

	// Samples after the skip accrue nothing within the same run
	if credited := feedSeconds(tr, 41, 400); credited != 0 {
		t.Errorf("credited %d XP after skip, want 0", credited)
	}
}

func TestTrackerSmallDeltasAreJitter(t *testing.T) {
	tr := newTracker(xp.DefaultPolicy())
	tr.play(0)

	for _, pos := range []int{0, 2, 4} {
		tr.sample(time.Duration(pos) * time.Second)
	}
	if tr.hasSkipped() {
		t.Error("2s deltas within tolerance flagged as skip")
	}
	if tr.continuous != 4*time.Second {
		t.Errorf("continuous = %v, want 4s", tr.continuous)
	}
}

func TestTrackerBackwardSeekIsSkip(t *testing.T) {
	tr := newTracker(xp.DefaultPolicy())
	tr.play(0)

	feedSeconds(tr, 0, 100)
	tr.sample(10 * time.Second)
	if !tr.hasSkipped() {
		t.Error("backward seek not detected as skip")
	}
	if tr.continuous != 0 {
		t.Errorf("continuous = %v after backward seek, want 0", tr.continuous)
	}
}

func TestTrackerIncrementalWindowCredits(t *testing.T) {
	// 300, 600, 900 seconds of continuous watch credit 50, 100, 150
	// cumulative XP as three separate +50 increments.
	tr := newTracker(xp.DefaultPolicy())
	tr.play(0)

	first := feedSeconds(tr, 0, 300)
	if first != 50 {
		t.Errorf("credit at 300s = %d, want 50", first)
	}
	second := feedSeconds(tr, 301, 600)
	if second != 50 {
		t.Errorf("credit at 600s = %d, want 50", second)
	}
	third := feedSeconds(tr, 601, 900)
	if third != 50 {
		t.Errorf("credit at 900s = %d, want 50", third)
	}
}

func TestTrackerNoDoubleCreditOnRepeatedSamples(t *testing.T) {
	tr := newTracker(xp.DefaultPolicy())
	tr.play(0)

	feedSeconds(tr, 0, 300)

	// Re-sampling the same position yields no new credit
	if got := tr.sample(300 * time.Second); got != 0 {
		t.Errorf("repeated sample credited %d, want 0", got)
	}
}

func TestTrackerPlayResetsRun(t *testing.T) {
	tr := newTracker(xp.DefaultPolicy())
	tr.play(0)

	feedSeconds(tr, 0, 10)
	tr.sample(100 * time.Second) // skip
	if !tr.hasSkipped() {
		t.Fatal("skip not detected")
	}

	// A new play run restores accrual
	tr.play(100 * time.Second)
	if tr.hasSkipped() {
		t.Error("skip flag survived play reset")
	}
	if credited := feedSeconds(tr, 101, 400); credited != 50 {
		t.Errorf("credited %d after play reset, want 50", credited)
	}
}

func TestTrackerWatchedTimeSurvivesSkips(t *testing.T) {
	tr := newTracker(xp.DefaultPolicy())
	tr.play(0)

	feedSeconds(tr, 0, 10)
	tr.sample(100 * time.Second) // skip, jump itself not counted
	feedSeconds(tr, 101, 110)

	want := 20 * time.Second
	if tr.watchedTime() != want {
		t.Errorf("watchedTime = %v, want %v", tr.watchedTime(), want)
	}
}
