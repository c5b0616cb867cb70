// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package ledger

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/watchpoints/watchpoints/internal/logging"
	"github.com/watchpoints/watchpoints/internal/metrics"
	"github.com/watchpoints/watchpoints/internal/models"
	"github.com/watchpoints/watchpoints/internal/xp"
)

// lockStripes is the number of per-user mutex stripes. Operations on the
// same user always map to the same stripe, so credits and debits for one
// user are serialized while different users proceed concurrently.
const lockStripes = 64

// HistoryAppender receives watch events that produced an XP credit. The
// ledger calls it synchronously after the balance update commits.
type HistoryAppender interface {
	AppendWatchEvent(ctx context.Context, event *models.WatchEvent) error
}

// Ledger is the authoritative XP balance store. All balance changes go
// through Credit and Debit, which serialize per user and never leave a
// record with negative XP.
type Ledger struct {
	store   *Store
	policy  xp.Policy
	history HistoryAppender
	locks   [lockStripes]sync.Mutex
}

// New creates a Ledger over the given store. history may be nil, in which
// case watch events are not recorded.
func New(store *Store, policy xp.Policy, history HistoryAppender) *Ledger {
	return &Ledger{store: store, policy: policy, history: history}
}

func (l *Ledger) stripe(userID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return &l.locks[h.Sum32()%lockStripes]
}

// CreateUser registers a new user record. The record's Level is derived
// from its XP regardless of what the caller set.
func (l *Ledger) CreateUser(ctx context.Context, user *models.UserRecord) error {
	user.Level = l.policy.LevelForXP(user.XP)
	user.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	return l.store.db.Update(func(txn *badger.Txn) error {
		userKey := []byte(userKeyPrefix + user.ID)
		if _, err := txn.Get(userKey); err == nil {
			return ErrUserExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check user: %w", err)
		}

		emailKey := []byte(emailKeyPrefix + user.Email)
		if _, err := txn.Get(emailKey); err == nil {
			return ErrUserExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check email: %w", err)
		}

		if err := txn.Set(userKey, data); err != nil {
			return fmt.Errorf("set user: %w", err)
		}
		if err := txn.Set(emailKey, []byte(user.ID)); err != nil {
			return fmt.Errorf("set email index: %w", err)
		}
		return nil
	})
}

// Get returns a snapshot of the user record.
func (l *Ledger) Get(ctx context.Context, userID string) (*models.UserRecord, error) {
	start := time.Now()
	user, err := l.get(userID)
	metrics.RecordLedgerOperation("get", time.Since(start), err)
	return user, err
}

func (l *Ledger) get(userID string) (*models.UserRecord, error) {
	var user models.UserRecord
	err := l.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail resolves a user record through the email index.
func (l *Ledger) GetByEmail(ctx context.Context, email string) (*models.UserRecord, error) {
	var userID string
	err := l.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(emailKeyPrefix + email))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get email index: %w", err)
		}
		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return l.Get(ctx, userID)
}

// Apply runs fn against the user's record under the per-user lock and
// persists the result. fn sees the current record and may mutate it; if fn
// returns an error nothing is written. The returned record is the persisted
// state.
func (l *Ledger) Apply(ctx context.Context, userID string, fn func(*models.UserRecord) error) (*models.UserRecord, error) {
	mu := l.stripe(userID)
	mu.Lock()
	defer mu.Unlock()

	return l.applyLocked(userID, fn)
}

// applyLocked performs a read-modify-write cycle. Callers must hold the
// user's stripe lock.
func (l *Ledger) applyLocked(userID string, fn func(*models.UserRecord) error) (*models.UserRecord, error) {
	user, err := l.get(userID)
	if err != nil {
		return nil, err
	}

	if err := fn(user); err != nil {
		return nil, err
	}

	user.Level = l.policy.LevelForXP(user.XP)
	user.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}

	err = l.store.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(userKeyPrefix+userID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("write user: %w", err)
	}
	return user, nil
}

// Credit adds amount XP to the user's balance and recomputes the level.
// amount must be non-negative; a zero credit is a no-op that still records
// the watch event. event may be nil for credits with no associated
// playback (such as administrative grants).
func (l *Ledger) Credit(ctx context.Context, userID string, amount int, event *models.WatchEvent) (*models.CreditResult, error) {
	start := time.Now()
	result, err := l.credit(ctx, userID, amount, event)
	metrics.RecordLedgerOperation("credit", time.Since(start), err)
	if err == nil {
		metrics.RecordCredit(amount, result.LeveledUp)
	}
	return result, err
}

func (l *Ledger) credit(ctx context.Context, userID string, amount int, event *models.WatchEvent) (*models.CreditResult, error) {
	if amount < 0 {
		return nil, fmt.Errorf("credit %d: %w", amount, ErrInvalidAmount)
	}

	mu := l.stripe(userID)
	mu.Lock()
	defer mu.Unlock()

	var oldLevel int
	user, err := l.applyLocked(userID, func(u *models.UserRecord) error {
		oldLevel = u.Level
		u.XP += amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The history row is written inside the stripe lock so per-user history
	// order matches ledger order. A history failure does not undo the
	// credit; the balance is authoritative.
	if event != nil && l.history != nil {
		event.XPEarned = amount
		if err := l.history.AppendWatchEvent(ctx, event); err != nil {
			logging.Warn().
				Err(err).
				Str("user_id", userID).
				Str("video_id", event.VideoID).
				Msg("watch history append failed")
		}
	}

	result := &models.CreditResult{
		NewXP:     user.XP,
		NewLevel:  user.Level,
		LeveledUp: user.Level > oldLevel,
	}

	if result.LeveledUp {
		logging.Info().
			Str("user_id", userID).
			Int("old_level", oldLevel).
			Int("new_level", user.Level).
			Int("xp", user.XP).
			Msg("user leveled up")
	}
	return result, nil
}

// Debit removes amount XP from the user's balance. The sufficiency check
// and the write happen under the same per-user lock, so a concurrent debit
// cannot drive the balance negative. amount must be non-negative.
func (l *Ledger) Debit(ctx context.Context, userID string, amount int) (*models.DebitResult, error) {
	start := time.Now()
	result, err := l.debit(ctx, userID, amount)
	metrics.RecordLedgerOperation("debit", time.Since(start), err)
	if err == nil {
		metrics.XPDebitedTotal.Add(float64(amount))
	}
	return result, err
}

func (l *Ledger) debit(ctx context.Context, userID string, amount int) (*models.DebitResult, error) {
	if amount < 0 {
		return nil, fmt.Errorf("debit %d: %w", amount, ErrInvalidAmount)
	}

	mu := l.stripe(userID)
	mu.Lock()
	defer mu.Unlock()

	user, err := l.applyLocked(userID, func(u *models.UserRecord) error {
		if u.XP < amount {
			return fmt.Errorf("balance %d, debit %d: %w", u.XP, amount, ErrInsufficientFunds)
		}
		u.XP -= amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.DebitResult{RemainingXP: user.XP}, nil
}
