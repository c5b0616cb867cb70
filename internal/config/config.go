// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

// Package config provides centralized configuration for all Watchpoints
// components, loaded via Koanf v2 with layered sources:
//
//  1. Defaults: built-in sensible defaults for every setting
//  2. Config file: optional YAML file (config.yaml) for persistent settings
//  3. Environment variables: override any setting (highest priority)
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"time"

	"github.com/watchpoints/watchpoints/internal/xp"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Ledger   LedgerConfig   `koanf:"ledger"`
	XP       xp.Policy      `koanf:"xp"`
	Session  SessionConfig  `koanf:"session"`
	Security SecurityConfig `koanf:"security"`
	Events   EventsConfig   `koanf:"events"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// Environment toggles development conveniences; set "production" to
	// enable strict startup checks.
	Environment string `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings for the watch-history store.
//
// Environment Variables:
//   - DUCKDB_PATH: database file path (":memory:" for ephemeral)
//   - DUCKDB_MAX_MEMORY: memory limit passed to DuckDB (e.g. "1GB")
//   - DUCKDB_THREADS: worker threads (0 = runtime.NumCPU())
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// LedgerConfig holds BadgerDB settings for the user-record store.
type LedgerConfig struct {
	// Path is the Badger data directory. Empty selects an in-memory store,
	// which is only suitable for tests and development.
	Path string `koanf:"path"`

	// GCInterval controls how often Badger value-log garbage collection
	// runs. Zero disables the GC loop.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// SessionConfig holds playback-session bookkeeping settings.
type SessionConfig struct {
	// IdleTimeout is how long a session may go without samples before the
	// reaper discards it. Abandoned sessions carry no cleanup obligation
	// beyond freeing their tracker state.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// ReapInterval is how often the reaper scans for idle sessions.
	ReapInterval time.Duration `koanf:"reap_interval"`
}

// SecurityConfig holds authentication and rate-limit settings.
//
// AuthMode "jwt" (default) validates bearer tokens issued by the mock
// sign-in endpoint. AuthMode "none" disables authentication entirely and
// must never be used outside development.
type SecurityConfig struct {
	AuthMode        string        `koanf:"auth_mode"`
	JWTSecret       string        `koanf:"jwt_secret"`
	TokenTTL        time.Duration `koanf:"token_ttl"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// EventsConfig holds event-bus settings.
type EventsConfig struct {
	// BufferSize is the GoChannel subscriber buffer; publishes never block
	// the credit path while the buffer has room.
	BufferSize int `koanf:"buffer_size"`

	// Circuit breaker protecting the publish path.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// LoggingConfig holds log level and format settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
