// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package xp

// Reward describes a perk unlocked at a level threshold.
type Reward struct {
	Level       int    `json:"level"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// rewardTable lists unlockable rewards in ascending threshold order.
var rewardTable = []Reward{
	{Level: 5, Name: "profile_badge", Description: "Custom Profile Badge"},
	{Level: 10, Name: "premium_trial", Description: "Premium Trial (7 days)"},
	{Level: 20, Name: "profile_theme", Description: "Custom Profile Theme"},
	{Level: 50, Name: "premium_month", Description: "Premium Subscription (1 month)"},
}

// RewardsUpToLevel returns every reward whose threshold the given level
// meets, in threshold order. This is a read of "what you have", not a
// diff; use NewRewardsAtLevel for the just-unlocked set.
func RewardsUpToLevel(level int) []Reward {
	var unlocked []Reward
	for _, r := range rewardTable {
		if level >= r.Level {
			unlocked = append(unlocked, r)
		}
	}
	return unlocked
}

// NewRewardsAtLevel returns only the rewards unlocked by moving from
// oldLevel to newLevel. Empty when no threshold was crossed.
func NewRewardsAtLevel(oldLevel, newLevel int) []Reward {
	var unlocked []Reward
	for _, r := range rewardTable {
		if oldLevel < r.Level && newLevel >= r.Level {
			unlocked = append(unlocked, r)
		}
	}
	return unlocked
}
