package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1-65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1-65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1-65535, got %d", c.Redis.Port))
	}

	if c.Limits.MessageRateBase < 1 {
		errs = append(errs, fmt.Sprintf("MESSAGE_RATE_LIMIT must be positive, got %d", c.Limits.MessageRateBase))
	}
	if c.Limits.WSIdleTimeout <= 0 {
		errs = append(errs, "WEBSOCKET_TIMEOUT must be a positive duration")
	}

	// Warn-only: the service still runs, chat replies degrade to apologies.
	if c.Gemini.APIKey == "" {
		slog.Warn("GEMINI_API_KEY is empty, generation requests will fail")
	}
	if c.Identity.TokenSecret == "" {
		slog.Warn("IDENTITY_TOKEN_SECRET is empty, bearer tokens are not verified")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
