// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package entitlement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/watchpoints/watchpoints/internal/ledger"
	"github.com/watchpoints/watchpoints/internal/logging"
	"github.com/watchpoints/watchpoints/internal/metrics"
	"github.com/watchpoints/watchpoints/internal/models"
)

// ErrUnknownPlan is returned for plan IDs outside the plan table.
var ErrUnknownPlan = errors.New("unknown plan")

// Service performs premium purchases against the ledger.
type Service struct {
	ledger *ledger.Ledger
	now    func() time.Time
}

// NewService creates an entitlement service. nowFn overrides the clock in
// tests; pass nil for wall time.
func NewService(l *ledger.Ledger, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{ledger: l, now: nowFn}
}

// PurchaseResult describes the ledger and subscription state after a
// successful purchase.
type PurchaseResult struct {
	Plan               Plan      `json:"plan"`
	RemainingXP        int       `json:"remaining_xp"`
	NewLevel           int       `json:"new_level"`
	SubscriptionExpiry time.Time `json:"subscription_expiry"`
}

// Purchase debits the plan's cost and extends the subscription. The XP
// sufficiency check, the debit, and the expiry update are one atomic
// operation; a failed purchase changes nothing. An active subscription is
// extended from its current expiry, not from now.
func (s *Service) Purchase(ctx context.Context, userID, planID string) (*PurchaseResult, error) {
	plan, ok := PlanByID(planID)
	if !ok {
		return nil, fmt.Errorf("plan %q: %w", planID, ErrUnknownPlan)
	}

	now := s.now().UTC()
	user, err := s.ledger.Apply(ctx, userID, func(u *models.UserRecord) error {
		if u.XP < plan.CostXP {
			return fmt.Errorf("balance %d, cost %d: %w", u.XP, plan.CostXP, ledger.ErrInsufficientFunds)
		}
		u.XP -= plan.CostXP

		base := now
		if u.SubscriptionExpiry != nil && u.SubscriptionExpiry.After(now) {
			base = *u.SubscriptionExpiry
		}
		expiry := base.Add(plan.Duration)
		u.SubscriptionExpiry = &expiry
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PremiumPurchases.WithLabelValues(plan.ID).Inc()
	logging.Ctx(ctx).Info().
		Str("user_id", userID).
		Str("plan", plan.ID).
		Int("cost_xp", plan.CostXP).
		Time("expiry", *user.SubscriptionExpiry).
		Msg("premium purchased")

	return &PurchaseResult{
		Plan:               plan,
		RemainingXP:        user.XP,
		NewLevel:           user.Level,
		SubscriptionExpiry: *user.SubscriptionExpiry,
	}, nil
}

// IsActive reports whether the user currently holds a premium
// subscription.
func (s *Service) IsActive(ctx context.Context, userID string) (bool, error) {
	user, err := s.ledger.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsPremium(s.now().UTC()), nil
}

// DaysRemaining returns the whole days of subscription left, rounded up.
// Zero means no active subscription.
func (s *Service) DaysRemaining(ctx context.Context, userID string) (int, error) {
	user, err := s.ledger.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	now := s.now().UTC()
	if user.SubscriptionExpiry == nil || !user.SubscriptionExpiry.After(now) {
		return 0, nil
	}
	remaining := user.SubscriptionExpiry.Sub(now)
	return int(math.Ceil(remaining.Hours() / 24)), nil
}
