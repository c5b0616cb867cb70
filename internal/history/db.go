// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

// Package history persists the append-only watch history in DuckDB and
// serves the aggregate queries built on top of it. The ledger writes one
// row per credited watch event; nothing in this package ever updates or
// deletes a row.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/watchpoints/watchpoints/internal/logging"
)

// Options configures the DuckDB connection.
type Options struct {
	// Path is the database file. ":memory:" opens an ephemeral database.
	Path string

	// MaxMemory caps DuckDB's memory usage, e.g. "512MB".
	MaxMemory string

	// Threads limits DuckDB's worker threads. Zero means NumCPU.
	Threads int
}

// DB wraps the DuckDB connection for watch history storage.
type DB struct {
	conn *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS watch_events (
    id             VARCHAR PRIMARY KEY,
    user_id        VARCHAR NOT NULL,
    video_id       VARCHAR NOT NULL,
    session_id     VARCHAR,
    watch_seconds  INTEGER NOT NULL,
    xp_earned      INTEGER NOT NULL,
    occurred_at    TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_watch_events_user ON watch_events (user_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_watch_events_video ON watch_events (video_id);
`

// Open creates the DuckDB connection and initializes the schema.
func Open(opts Options) (*DB, error) {
	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := opts.MaxMemory
	if maxMemory == "" {
		maxMemory = "512MB"
	}

	// Ensure parent directory exists for the database file
	if opts.Path != ":memory:" {
		dbDir := filepath.Dir(opts.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dbDir, err)
			}
		}
	}

	// Disable auto-install/auto-load to prevent hangs in restricted
	// network environments.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		opts.Path, threads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// DuckDB is embedded; a single writer connection avoids write-write
	// conflicts while reads share it freely.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.initialize(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logging.Info().
		Str("path", opts.Path).
		Int("threads", threads).
		Str("max_memory", maxMemory).
		Msg("watch history database opened")
	return db, nil
}

// OpenForTesting opens an in-memory database. Intended for unit tests.
func OpenForTesting() (*DB, error) {
	return Open(Options{Path: ":memory:"})
}

func (db *DB) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies the connection is still usable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
