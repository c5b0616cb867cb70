// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

// Package entitlement manages premium subscriptions purchased with XP.
// Plans debit a fixed XP cost from the ledger and extend the user's
// subscription expiry; both happen under the same per-user serialization
// the ledger provides.
package entitlement

import "time"

// Plan is a purchasable premium tier.
type Plan struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	CostXP   int           `json:"cost_xp"`
	Duration time.Duration `json:"-"`
	Days     int           `json:"duration_days"`
}

// The plan table. Costs and durations are fixed at build time; there is no
// runtime plan administration.
var plans = []Plan{
	{ID: "monthly", Name: "Premium Monthly", CostXP: 1000, Duration: 30 * 24 * time.Hour, Days: 30},
	{ID: "quarterly", Name: "Premium Quarterly", CostXP: 2500, Duration: 90 * 24 * time.Hour, Days: 90},
	{ID: "biannual", Name: "Premium Six Months", CostXP: 4500, Duration: 180 * 24 * time.Hour, Days: 180},
}

// Plans returns all purchasable plans in display order.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// PlanByID looks up a plan. The second return is false for unknown IDs.
func PlanByID(id string) (Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
