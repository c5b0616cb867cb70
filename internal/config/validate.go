// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateXP(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateXP() error {
	if c.XP.LevelUpThreshold <= 0 {
		return fmt.Errorf("XP_LEVEL_UP_THRESHOLD must be positive, got %d", c.XP.LevelUpThreshold)
	}
	if c.XP.ContinuousWatchWindow <= 0 {
		return fmt.Errorf("XP_CONTINUOUS_WATCH_WINDOW must be positive, got %v", c.XP.ContinuousWatchWindow)
	}
	if c.XP.XPPerWindow < 0 {
		return fmt.Errorf("XP_PER_WINDOW must be non-negative, got %d", c.XP.XPPerWindow)
	}
	if c.XP.SkipTolerance < 0 {
		return fmt.Errorf("XP_SKIP_TOLERANCE must be non-negative, got %v", c.XP.SkipTolerance)
	}
	if c.XP.WatchTimeMultiplier < 0 {
		return fmt.Errorf("XP_WATCH_TIME_MULTIPLIER must be non-negative, got %f", c.XP.WatchTimeMultiplier)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "jwt":
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters when AUTH_MODE=jwt")
		}
	case "none":
		if c.Server.Environment == "production" {
			return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be one of jwt, none; got %q", c.Security.AuthMode)
	}

	if c.Security.RateLimitReqs < 0 {
		return fmt.Errorf("RATE_LIMIT_REQS must be non-negative, got %d", c.Security.RateLimitReqs)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be a valid level, got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
