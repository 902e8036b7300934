package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pgwire.ini")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeTestConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Connection.Port != 5432 {
		t.Errorf("Port = %d, want 5432", cfg.Connection.Port)
	}
	if cfg.Connection.Host != "/tmp/.s.PGSQL.5432" {
		t.Errorf("Host = %q, want unix socket default", cfg.Connection.Host)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should default to false")
	}
	if cfg.Metrics.Listen != ":9090" {
		t.Errorf("Metrics.Listen = %q, want :9090", cfg.Metrics.Listen)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := writeTestConfig(t, `
[connection]
host = db.internal
port = 5433
user = app
password = secret
dbname = orders
options = sslmode=disable

[metrics]
enabled = true
listen = :9999
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Connection.Host != "db.internal" || cfg.Connection.Port != 5433 {
		t.Fatalf("unexpected connection host/port: %+v", cfg.Connection)
	}
	if cfg.Connection.User != "app" || cfg.Connection.Database != "orders" {
		t.Fatalf("unexpected connection user/database: %+v", cfg.Connection)
	}
	if cfg.Connection.Password != "secret" {
		t.Errorf("Password = %q, want secret", cfg.Connection.Password)
	}
	if cfg.Connection.Options != "sslmode=disable" {
		t.Errorf("Options = %q, want sslmode=disable", cfg.Connection.Options)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Listen != ":9999" {
		t.Fatalf("unexpected metrics config: %+v", cfg.Metrics)
	}
}

func TestLoadPasswordEnvOverride(t *testing.T) {
	path := writeTestConfig(t, `
[connection]
password = fromfile
`)
	os.Setenv("PGWIRE_PASSWORD", "fromenv")
	defer os.Unsetenv("PGWIRE_PASSWORD")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Connection.Password != "fromenv" {
		t.Errorf("Password = %q, want env override fromenv", cfg.Connection.Password)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.ini")); err == nil {
		t.Fatal("expected an error loading a missing config file")
	}
}
