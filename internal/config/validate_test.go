package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8000},
		DB: DBConfig{
			Host: "localhost", Port: 5432, User: "agentchat",
			Password: "secret", Name: "agentchat", SSLMode: "disable", MaxConns: 25,
		},
		Redis:  RedisConfig{Host: "localhost", Port: 6379},
		Gemini: GeminiConfig{APIKey: "test-key", Model: "gemini-2.0-flash-exp"},
		Limits: LimitsConfig{
			MessageRateBase:       500,
			ChatThrottlePerMinute: 60,
			WSIdleTimeout:         5 * time.Minute,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidate_DBPasswordRequired(t *testing.T) {
	cfg := validConfig()
	cfg.DB.Password = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DB_PASSWORD") {
		t.Fatalf("expected DB_PASSWORD error, got: %v", err)
	}
}

func TestValidate_InvalidPorts(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.DB.Port = 99999
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected port validation errors")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("expected SERVER_PORT error in: %v", err)
	}
	if !strings.Contains(err.Error(), "DB_PORT") {
		t.Errorf("expected DB_PORT error in: %v", err)
	}
}

func TestValidate_MessageRateMustBePositive(t *testing.T) {
	cfg := validConfig()
	cfg.Limits.MessageRateBase = -1
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "MESSAGE_RATE_LIMIT") {
		t.Fatalf("expected MESSAGE_RATE_LIMIT error, got: %v", err)
	}
}

func TestValidate_WSIdleTimeoutMustBePositive(t *testing.T) {
	cfg := validConfig()
	cfg.Limits.WSIdleTimeout = 0
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "WEBSOCKET_TIMEOUT") {
		t.Fatalf("expected WEBSOCKET_TIMEOUT error, got: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Port: 0},
		DB:     DBConfig{Port: 5432},
		Redis:  RedisConfig{Port: 6379},
		Limits: LimitsConfig{MessageRateBase: 500, WSIdleTimeout: time.Minute},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected multiple validation errors")
	}
	errStr := err.Error()
	for _, substr := range []string{"DB_PASSWORD", "SERVER_PORT"} {
		if !strings.Contains(errStr, substr) {
			t.Errorf("expected %q in error: %s", substr, errStr)
		}
	}
}
