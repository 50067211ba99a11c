package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "")
	t.Setenv("AUTH_ALLOW_ADMIN_REGISTRATION", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Store.Driver != StoreDriverMemory {
		t.Errorf("Store.Driver = %q, want %q", cfg.Store.Driver, StoreDriverMemory)
	}
	if got := cfg.Auth.AccessTokenTTL(); got != 30*time.Minute {
		t.Errorf("AccessTokenTTL() = %v, want 30m", got)
	}
	if !cfg.Auth.AllowAdminRegistration {
		t.Error("AllowAdminRegistration should default to true")
	}
	if cfg.RateLimit.RegisterPerMinute != 3 || cfg.RateLimit.LoginPerMinute != 5 {
		t.Errorf("rate limits = %d/%d, want 3/5", cfg.RateLimit.RegisterPerMinute, cfg.RateLimit.LoginPerMinute)
	}
}

func TestLoadPostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("POSTGRES_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without POSTGRES_DSN")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject unknown store driver")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "5")
	t.Setenv("AUTH_ALLOW_ADMIN_REGISTRATION", "false")
	t.Setenv("CACHE_STATS_TTL_SECONDS", "0")
	t.Setenv("APP_HOST", "")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.Auth.AccessTokenTTL(); got != 5*time.Minute {
		t.Errorf("AccessTokenTTL() = %v, want 5m", got)
	}
	if cfg.Auth.AllowAdminRegistration {
		t.Error("AllowAdminRegistration should be false")
	}
	if got := cfg.Cache.StatsTTL(); got != 0 {
		t.Errorf("StatsTTL() = %v, want 0", got)
	}
	if got := cfg.App.Addr(); got != "0.0.0.0:9090" {
		t.Errorf("Addr() = %q, want %q", got, "0.0.0.0:9090")
	}
}
