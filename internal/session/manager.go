// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/watchpoints/watchpoints/internal/eventbus"
	"github.com/watchpoints/watchpoints/internal/ledger"
	"github.com/watchpoints/watchpoints/internal/logging"
	"github.com/watchpoints/watchpoints/internal/metrics"
	"github.com/watchpoints/watchpoints/internal/models"
	"github.com/watchpoints/watchpoints/internal/xp"
)

// ErrInvalidSession is returned for samples or events against an unknown
// or already ended session.
var ErrInvalidSession = errors.New("invalid session")

// EventTypes accepted by HandleEvent.
const (
	EventPlay  = "play"
	EventPause = "pause"
	EventEnded = "ended"
)

// EventPublisher receives XP lifecycle notifications. Publish failures are
// logged and swallowed; the ledger write has already committed.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *eventbus.XPEvent) error
}

// Session is one live playback stream.
type Session struct {
	ID      string
	UserID  string
	VideoID string

	mu           sync.Mutex
	tracker      *tracker
	lastActivity time.Time
	ended        bool
}

// SampleResult reports what one sample changed.
type SampleResult struct {
	CreditedXP int  `json:"credited_xp"`
	NewXP      int  `json:"new_xp,omitempty"`
	NewLevel   int  `json:"new_level,omitempty"`
	LeveledUp  bool `json:"leveled_up"`
	Skipped    bool `json:"skipped"`
}

// Config tunes session lifecycle handling.
type Config struct {
	// IdleTimeout is how long a session may go without samples before
	// the reaper discards it.
	IdleTimeout time.Duration

	// ReapInterval is how often the reaper scans for idle sessions.
	ReapInterval time.Duration
}

// DefaultConfig returns production session lifecycle settings.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:  30 * time.Minute,
		ReapInterval: time.Minute,
	}
}

// Manager owns all live playback sessions. Each session's tracker is
// confined behind the session mutex; the manager map has its own lock so
// sessions for different users never contend.
type Manager struct {
	cfg       Config
	policy    xp.Policy
	ledger    *ledger.Ledger
	publisher EventPublisher
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager. publisher may be nil to disable
// notifications.
func NewManager(cfg Config, policy xp.Policy, l *ledger.Ledger, publisher EventPublisher) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultConfig().IdleTimeout
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = DefaultConfig().ReapInterval
	}
	return &Manager{
		cfg:       cfg,
		policy:    policy,
		ledger:    l,
		publisher: publisher,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// Start opens a playback session for the user and video. The user must
// exist in the ledger.
func (m *Manager) Start(ctx context.Context, userID, videoID string) (*Session, error) {
	if _, err := m.ledger.Get(ctx, userID); err != nil {
		return nil, err
	}

	session := &Session{
		ID:           uuid.New().String(),
		UserID:       userID,
		VideoID:      videoID,
		tracker:      newTracker(m.policy),
		lastActivity: m.now(),
	}
	session.tracker.play(0)

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	metrics.SessionsStarted.Inc()
	metrics.SessionsActive.Inc()
	logging.Ctx(ctx).Debug().
		Str("session_id", session.ID).
		Str("user_id", userID).
		Str("video_id", videoID).
		Msg("playback session started")
	return session, nil
}

func (m *Manager) lookup(sessionID string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrInvalidSession)
	}
	return session, nil
}

// RecordSample feeds one playback position sample into the session's
// tracker and credits any newly completed continuous-watch windows.
func (m *Manager) RecordSample(ctx context.Context, sessionID string, position time.Duration) (*SampleResult, error) {
	session, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.ended {
		return nil, fmt.Errorf("session %s ended: %w", sessionID, ErrInvalidSession)
	}
	session.lastActivity = m.now()

	skippedBefore := session.tracker.hasSkipped()
	increment := session.tracker.sample(position)
	if !skippedBefore && session.tracker.hasSkipped() {
		metrics.SkipsDetected.Inc()
		logging.Ctx(ctx).Debug().
			Str("session_id", sessionID).
			Dur("position", position).
			Msg("skip detected, accrual halted for this run")
	}

	result := &SampleResult{Skipped: session.tracker.hasSkipped()}
	if increment == 0 {
		return result, nil
	}

	windowSeconds := 0
	if m.policy.XPPerWindow > 0 {
		windows := increment / m.policy.XPPerWindow
		windowSeconds = int((time.Duration(windows) * m.policy.ContinuousWatchWindow).Seconds())
	}

	credit, err := m.credit(ctx, session, increment, windowSeconds)
	if err != nil {
		return nil, err
	}
	metrics.WatchSecondsAccrued.Add(float64(windowSeconds))

	result.CreditedXP = increment
	result.NewXP = credit.NewXP
	result.NewLevel = credit.NewLevel
	result.LeveledUp = credit.LeveledUp
	return result, nil
}

// HandleEvent applies a discrete playback signal. play resets the accrual
// run at the given position, pause only refreshes activity, ended grants
// the one-shot completion credit and closes the session.
func (m *Manager) HandleEvent(ctx context.Context, sessionID, eventType string, position time.Duration) (*SampleResult, error) {
	session, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.ended {
		return nil, fmt.Errorf("session %s ended: %w", sessionID, ErrInvalidSession)
	}
	session.lastActivity = m.now()

	switch eventType {
	case EventPlay:
		session.tracker.play(position)
		return &SampleResult{}, nil

	case EventPause:
		return &SampleResult{Skipped: session.tracker.hasSkipped()}, nil

	case EventEnded:
		watched := session.tracker.watchedTime()
		amount := m.policy.VideoCompletionXP(watched)
		credit, err := m.credit(ctx, session, amount, int(watched.Seconds()))
		if err != nil {
			return nil, err
		}
		session.ended = true
		m.remove(session.ID)
		logging.Ctx(ctx).Debug().
			Str("session_id", sessionID).
			Dur("watched", watched).
			Int("completion_xp", amount).
			Msg("playback session ended")
		return &SampleResult{
			CreditedXP: amount,
			NewXP:      credit.NewXP,
			NewLevel:   credit.NewLevel,
			LeveledUp:  credit.LeveledUp,
		}, nil

	default:
		return nil, fmt.Errorf("event %q: %w", eventType, ErrInvalidSession)
	}
}

// End abandons the session without a completion credit. Unfinished partial
// windows are discarded with it.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	session, err := m.lookup(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	session.ended = true
	session.mu.Unlock()
	m.remove(sessionID)

	logging.Ctx(ctx).Debug().
		Str("session_id", sessionID).
		Msg("playback session abandoned")
	return nil
}

func (m *Manager) remove(sessionID string) {
	m.mu.Lock()
	if _, ok := m.sessions[sessionID]; ok {
		delete(m.sessions, sessionID)
		metrics.SessionsActive.Dec()
	}
	m.mu.Unlock()
}

// credit writes the ledger credit and fans out notifications. Callers hold
// the session mutex.
func (m *Manager) credit(ctx context.Context, session *Session, amount, watchSeconds int) (*models.CreditResult, error) {
	event := &models.WatchEvent{
		ID:        uuid.New().String(),
		UserID:    session.UserID,
		VideoID:   session.VideoID,
		SessionID: session.ID,
		WatchTime: watchSeconds,
		Timestamp: m.now().UTC(),
	}

	result, err := m.ledger.Credit(ctx, session.UserID, amount, event)
	if err != nil {
		return nil, err
	}

	m.notify(ctx, session, amount, result)
	return result, nil
}

func (m *Manager) notify(ctx context.Context, session *Session, amount int, result *models.CreditResult) {
	if m.publisher == nil {
		return
	}

	credited := eventbus.NewXPEvent(eventbus.EventXPCredited, session.UserID)
	credited.VideoID = session.VideoID
	credited.SessionID = session.ID
	credited.Amount = amount
	credited.NewXP = result.NewXP
	credited.NewLevel = result.NewLevel
	if err := m.publisher.PublishEvent(ctx, credited); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("publish xp_credited failed")
	}

	if !result.LeveledUp {
		return
	}

	oldLevel := m.policy.LevelForXP(result.NewXP - amount)
	levelUp := eventbus.NewXPEvent(eventbus.EventLevelUp, session.UserID)
	levelUp.VideoID = session.VideoID
	levelUp.SessionID = session.ID
	levelUp.Amount = amount
	levelUp.NewXP = result.NewXP
	levelUp.OldLevel = oldLevel
	levelUp.NewLevel = result.NewLevel
	for _, reward := range xp.NewRewardsAtLevel(oldLevel, result.NewLevel) {
		levelUp.Rewards = append(levelUp.Rewards, reward.Name)
	}
	if err := m.publisher.PublishEvent(ctx, levelUp); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("publish level_up failed")
	}
}

// ActiveCount returns the number of live sessions.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Run reaps idle sessions until ctx is cancelled. Intended to run under
// the supervisor.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.reapIdle()
		}
	}
}

func (m *Manager) reapIdle() {
	cutoff := m.now().Add(-m.cfg.IdleTimeout)

	m.mu.Lock()
	var stale []string
	for id, session := range m.sessions {
		session.mu.Lock()
		idle := session.lastActivity.Before(cutoff)
		session.mu.Unlock()
		if idle {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		delete(m.sessions, id)
		metrics.SessionsActive.Dec()
		metrics.SessionsReaped.Inc()
	}
	m.mu.Unlock()

	if len(stale) > 0 {
		logging.Debug().Int("count", len(stale)).Msg("idle playback sessions reaped")
	}
}
