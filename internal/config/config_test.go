package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.ServerAddr() != "0.0.0.0:8080" {
		t.Fatalf("addr = %q", cfg.ServerAddr())
	}
	if !cfg.Auth.AutoProvision {
		t.Fatal("auto provisioning should default on")
	}
	if cfg.Auth.SessionTTL != 12*time.Hour {
		t.Fatalf("session ttl = %v", cfg.Auth.SessionTTL)
	}
	if cfg.Postgres.DSN != "" {
		t.Fatalf("dsn should default empty, got %q", cfg.Postgres.DSN)
	}
	if cfg.OIDC.Enabled() {
		t.Fatal("oidc should default off")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PORTAL_SERVER_PORT", "9999")
	t.Setenv("PORTAL_AUTH_AUTO_PROVISION", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Fatalf("server port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Auth.AutoProvision {
		t.Fatal("auto provisioning should be disabled via env")
	}
}

func TestValidateIncompleteOIDC(t *testing.T) {
	t.Setenv("PORTAL_OIDC_ISSUER", "https://issuer.example.com")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation failure without client credentials")
	}
}
