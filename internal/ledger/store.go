// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

// Package ledger provides the durable per-user XP ledger backed by BadgerDB.
// Each user record is stored as a JSON value under a "user:" prefixed key,
// with a secondary "user_email:" index for sign-in lookups.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/watchpoints/watchpoints/internal/logging"
)

// Key prefixes for BadgerDB storage
const (
	userKeyPrefix  = "user:"
	emailKeyPrefix = "user_email:"
)

// StoreOptions configures the underlying BadgerDB instance.
type StoreOptions struct {
	// Path is the on-disk directory for the database. Ignored when InMemory
	// is set.
	Path string

	// InMemory opens an ephemeral database. Intended for tests.
	InMemory bool

	// SyncWrites forces fsync on every write. Slower but durable across
	// power loss.
	SyncWrites bool

	// GCRatio is the value log GC discard ratio. Defaults to 0.5.
	GCRatio float64
}

// Store owns the BadgerDB handle for the user ledger.
type Store struct {
	db      *badger.DB
	gcRatio float64
}

// OpenStore opens (or creates) the ledger database.
func OpenStore(opts StoreOptions) (*Store, error) {
	var badgerOpts badger.Options
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		badgerOpts = badger.DefaultOptions(opts.Path)
	}
	badgerOpts.SyncWrites = opts.SyncWrites

	// Reduce logging verbosity
	badgerOpts.Logger = nil

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	gcRatio := opts.GCRatio
	if gcRatio == 0 {
		gcRatio = 0.5
	}

	logging.Info().
		Str("path", opts.Path).
		Bool("in_memory", opts.InMemory).
		Msg("ledger store opened")

	return &Store{db: db, gcRatio: gcRatio}, nil
}

// RunGC triggers BadgerDB value log garbage collection. It loops until no
// further cleanup is possible.
func (s *Store) RunGC() error {
	for {
		err := s.db.RunValueLogGC(s.gcRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if errors.Is(err, badger.ErrRejected) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	start := time.Now()
	err := s.db.Close()
	logging.Debug().
		Dur("duration", time.Since(start)).
		Msg("ledger store closed")
	return err
}
