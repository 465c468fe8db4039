package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("HTTP_READ_TIMEOUT_SEC", "")
	t.Setenv("HTTP_WRITE_TIMEOUT_SEC", "")
	t.Setenv("HTTP_SHUTDOWN_TIMEOUT_SEC", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("USER_DB_FILE", "")
	t.Setenv("SESSION_SECRET_FILE", "")
	t.Setenv("SESSION_TTL_SEC", "")
	t.Setenv("AUDIT_LOG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("expected default HTTP addr :8080, got %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.ReadTimeout != 10*time.Second {
		t.Fatalf("expected default read timeout 10s, got %v", cfg.HTTP.ReadTimeout)
	}
	if cfg.HTTP.WriteTimeout != 15*time.Second {
		t.Fatalf("expected default write timeout 15s, got %v", cfg.HTTP.WriteTimeout)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("expected default database url to be empty, got %q", cfg.DatabaseURL)
	}
	if cfg.UserDBFile != "./data/users.json" {
		t.Fatalf("expected default user db file ./data/users.json, got %q", cfg.UserDBFile)
	}
	if cfg.SessionSecretFile != "./secret.key" {
		t.Fatalf("expected default session secret file ./secret.key, got %q", cfg.SessionSecretFile)
	}
	if cfg.SessionTTL != 43200*time.Second {
		t.Fatalf("expected default session ttl 43200s, got %v", cfg.SessionTTL)
	}
	if cfg.AuditLogFile != "./data/audit.log" {
		t.Fatalf("expected default audit log file ./data/audit.log, got %q", cfg.AuditLogFile)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/authdb")
	t.Setenv("SESSION_TTL_SEC", "60")
	t.Setenv("SESSION_SECRET_FILE", "/etc/portal/secret.key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("expected HTTP addr :9090, got %q", cfg.HTTP.Addr)
	}
	if cfg.DatabaseURL != "postgres://localhost/authdb" {
		t.Fatalf("unexpected database url %q", cfg.DatabaseURL)
	}
	if cfg.SessionTTL != time.Minute {
		t.Fatalf("expected session ttl 60s, got %v", cfg.SessionTTL)
	}
	if cfg.SessionSecretFile != "/etc/portal/secret.key" {
		t.Fatalf("unexpected session secret file %q", cfg.SessionSecretFile)
	}
}

func TestLoadRejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("SESSION_TTL_SEC", "-5")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-positive session TTL")
	}
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT_SEC", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.HTTP.ReadTimeout != 10*time.Second {
		t.Fatalf("expected fallback read timeout 10s, got %v", cfg.HTTP.ReadTimeout)
	}
}
