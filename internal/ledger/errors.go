// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package ledger

import "errors"

var (
	// ErrUserNotFound is returned when no ledger record exists for the user.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidAmount is returned when a credit or debit amount is negative.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds is returned when a debit would drive the balance
	// below zero. The balance is left unchanged.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUserExists is returned when creating a user whose ID or email is
	// already registered.
	ErrUserExists = errors.New("user already exists")
)
