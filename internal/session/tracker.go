// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

// Package session tracks live playback sessions: it turns position samples
// into continuous-watch accumulation, detects skips, and emits incremental
// XP credits through the ledger. Session state is ephemeral; abandoning a
// session loses nothing but uncredited partial windows.
package session

import (
	"time"

	"github.com/watchpoints/watchpoints/internal/xp"
)

// tracker is the per-session accrual state machine. A session belongs to
// one playback stream, so the manager serializes access to it; the tracker
// itself holds no locks.
type tracker struct {
	policy xp.Policy

	// lastSample is the last observed playback position.
	lastSample time.Duration

	// continuous accumulates uninterrupted watch time. Reset on every
	// skip and on play.
	continuous time.Duration

	// skipped latches when any jump beyond tolerance is seen. Once set,
	// no XP accrues until the next play resets the run.
	skipped bool

	// credited is the window XP already emitted for the current run,
	// guarding against double-crediting on recomputation.
	credited int

	// watched is the total span credited toward the completion bonus,
	// independent of skip state.
	watched time.Duration
}

func newTracker(policy xp.Policy) *tracker {
	return &tracker{policy: policy}
}

// play resets the accrual run. position is the playback position at which
// play (or resume after seek) happened.
func (t *tracker) play(position time.Duration) {
	t.lastSample = position
	t.continuous = 0
	t.skipped = false
	t.credited = 0
}

// sample consumes one position sample and returns the XP to credit now.
// Zero means the sample advanced no completed window.
func (t *tracker) sample(position time.Duration) int {
	delta := position - t.lastSample
	t.lastSample = position

	// Any jump beyond tolerance, forward or backward, breaks continuity
	// for the rest of the run.
	if delta > t.policy.SkipTolerance || delta < 0 {
		t.skipped = true
		t.continuous = 0
		return 0
	}

	t.watched += delta
	if t.skipped {
		return 0
	}

	t.continuous += delta
	earned := t.policy.WindowXP(t.continuous)
	if earned <= t.credited {
		return 0
	}
	increment := earned - t.credited
	t.credited = earned
	return increment
}

// hasSkipped reports whether the current run saw a skip.
func (t *tracker) hasSkipped() bool {
	return t.skipped
}

// watchedTime returns the skip-free span observed across the session, used
// for the one-shot completion credit.
func (t *tracker) watchedTime() time.Duration {
	return t.watched
}
