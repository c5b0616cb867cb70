// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/watchpoints/watchpoints/internal/xp"
)

// DefaultConfigPaths lists where config files are searched, first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/watchpoints/config.yaml",
	"/etc/watchpoints/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. These are
// loaded first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8710,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/watchpoints.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Ledger: LedgerConfig{
			Path:       "/data/ledger",
			GCInterval: 10 * time.Minute,
		},
		XP: xp.DefaultPolicy(),
		Session: SessionConfig{
			IdleTimeout:  30 * time.Minute,
			ReapInterval: 5 * time.Minute,
		},
		Security: SecurityConfig{
			AuthMode:        "jwt",
			JWTSecret:       "",
			TokenTTL:        24 * time.Hour,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{},
		},
		Events: EventsConfig{
			BufferSize:         256,
			BreakerMaxFailures: 5,
			BreakerTimeout:     30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources, validates
// it, and returns the immutable result. Precedence: ENV > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Environment variables map to koanf paths:
	// HTTP_PORT -> server.port, DUCKDB_PATH -> database.path, etc.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unrecognized variables are dropped so unrelated environment noise never
// lands in the config tree.
func envTransformFunc(key string) string {
	mappings := map[string]string{
		"HTTP_HOST":    "server.host",
		"HTTP_PORT":    "server.port",
		"HTTP_TIMEOUT": "server.timeout",
		"ENVIRONMENT":  "server.environment",

		"DUCKDB_PATH":       "database.path",
		"DUCKDB_MAX_MEMORY": "database.max_memory",
		"DUCKDB_THREADS":    "database.threads",

		"LEDGER_PATH":        "ledger.path",
		"LEDGER_GC_INTERVAL": "ledger.gc_interval",

		"XP_BASE_VIDEO_XP":           "xp.base_video_xp",
		"XP_WATCH_TIME_MULTIPLIER":   "xp.watch_time_multiplier",
		"XP_LEVEL_UP_THRESHOLD":      "xp.level_up_threshold",
		"XP_CONTINUOUS_WATCH_WINDOW": "xp.continuous_watch_window",
		"XP_PER_WINDOW":              "xp.xp_per_window",
		"XP_SKIP_TOLERANCE":          "xp.skip_tolerance",

		"SESSION_IDLE_TIMEOUT":  "session.idle_timeout",
		"SESSION_REAP_INTERVAL": "session.reap_interval",

		"AUTH_MODE":         "security.auth_mode",
		"JWT_SECRET":        "security.jwt_secret",
		"TOKEN_TTL":         "security.token_ttl",
		"RATE_LIMIT_REQS":   "security.rate_limit_reqs",
		"RATE_LIMIT_WINDOW": "security.rate_limit_window",
		"CORS_ORIGINS":      "security.cors_origins",

		"EVENTS_BUFFER_SIZE":          "events.buffer_size",
		"EVENTS_BREAKER_MAX_FAILURES": "events.breaker_max_failures",
		"EVENTS_BREAKER_TIMEOUT":      "events.breaker_timeout",

		"LOG_LEVEL":  "logging.level",
		"LOG_FORMAT": "logging.format",
		"LOG_CALLER": "logging.caller",
	}

	if path, ok := mappings[strings.ToUpper(key)]; ok {
		return path
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices.
// Env vars arrive as plain strings, so slice fields need splitting.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// the known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw := k.Get(path)
		str, ok := raw.(string)
		if !ok || str == "" {
			continue
		}
		parts := strings.Split(str, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}
