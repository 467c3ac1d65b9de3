package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("SLA_DEFAULT_PRODUCT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Storage.Backend != StorageMemory {
		t.Errorf("Backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Storage.DocumentKey != "tickets" {
		t.Errorf("DocumentKey = %q", cfg.Storage.DocumentKey)
	}
	if cfg.App.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q", cfg.App.Addr())
	}
	if cfg.SLA.DefaultProduct != "Support Platform" {
		t.Errorf("DefaultProduct = %q", cfg.SLA.DefaultProduct)
	}
}

func TestLoadOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("STORAGE_BACKEND", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/tickets.db")
	t.Setenv("SLA_MONITOR_INTERVAL_SECONDS", "15")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Storage.Backend != StorageSQLite {
		t.Errorf("Backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if cfg.SLA.MonitorInterval() != 15*time.Second {
		t.Errorf("MonitorInterval() = %v", cfg.SLA.MonitorInterval())
	}
	if cfg.Auth.AccessTokenTTL() != time.Hour {
		t.Errorf("invalid int should fall back, got %v", cfg.Auth.AccessTokenTTL())
	}
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	chdirTemp(t)
	t.Setenv("REDIS_DB", "zero")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric REDIS_DB")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Storage: StorageConfig{Backend: StorageMemory, DocumentKey: "t"}}, false},
		{"redis", Config{Storage: StorageConfig{Backend: StorageRedis, DocumentKey: "t"}}, false},
		{"postgres without dsn", Config{Storage: StorageConfig{Backend: StoragePostgres, DocumentKey: "t"}}, true},
		{"postgres with dsn", Config{
			Storage:  StorageConfig{Backend: StoragePostgres, DocumentKey: "t"},
			Postgres: PostgresConfig{DSN: "postgres://localhost/tickets"},
		}, false},
		{"sqlite without path", Config{Storage: StorageConfig{Backend: StorageSQLite, DocumentKey: "t"}}, true},
		{"unknown backend", Config{Storage: StorageConfig{Backend: "s3", DocumentKey: "t"}}, true},
		{"empty key", Config{Storage: StorageConfig{Backend: StorageMemory}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequestTimeout(t *testing.T) {
	if got := (AppConfig{RequestTimeoutSeconds: 0}).RequestTimeout(); got != 0 {
		t.Errorf("RequestTimeout() = %v, want 0", got)
	}
	if got := (AppConfig{RequestTimeoutSeconds: 5}).RequestTimeout(); got != 5*time.Second {
		t.Errorf("RequestTimeout() = %v, want 5s", got)
	}
}

// chdirTemp changes into a fresh temp dir and restores the previous working
// directory on cleanup (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
