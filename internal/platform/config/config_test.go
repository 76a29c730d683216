package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		DatabaseURL:        "postgres://localhost/teamspark",
		TokenTTL:           time.Hour,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 60,
		AuditRetentionDays: 365,
	}
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = "  "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestValidateProductionRequiresJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "production"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing JWT_SECRET in production")
	}
	cfg.JWTSecret = "super-secret"
	cfg.RunSeed = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsBadLimits(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimitPerMinute = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive rate limit")
	}

	cfg = validConfig()
	cfg.AuditRetentionDays = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive retention window")
	}

	cfg = validConfig()
	cfg.MaxBodyBytes = 100
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for tiny body limit")
	}
}

func TestValidateEmailRequiresHost(t *testing.T) {
	cfg := validConfig()
	cfg.EmailEnabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when email enabled without SMTP_HOST")
	}
}
