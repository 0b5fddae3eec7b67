package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SYSGD_CONFIG", "SYSGD_API_URL", "SYSGD_API_TOKEN", "SYSGD_USER_ID", "MYSQL_DSN", "SQLITE_PATH", "HTTP_ADDR", "SYNC_INTERVAL", "TICK_INTERVAL"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaultsFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SYSGD_API_TOKEN", "tok")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.BaseURL != "http://localhost:3000" || cfg.Backend.APIToken != "tok" {
		t.Fatalf("unexpected backend config: %+v", cfg.Backend)
	}
	if cfg.Sync.Interval != 30*time.Second || cfg.Ticker.Interval != time.Second {
		t.Fatalf("unexpected intervals: sync=%v tick=%v", cfg.Sync.Interval, cfg.Ticker.Interval)
	}
	if cfg.HTTP.Addr != "" || cfg.MySQL.DSN != "" || cfg.SQLite.Path != "" {
		t.Fatalf("optional surfaces should default off: %+v", cfg)
	}
}

func TestLoadRequiresToken(t *testing.T) {
	clearEnv(t)
	t.Setenv("MYSQL_DSN", "u:p@tcp(h:3306)/db")
	cfg, err := Load("")
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if cfg.MySQL.DSN != "u:p@tcp(h:3306)/db" {
		t.Fatalf("config should still be populated, got %+v", cfg.MySQL)
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sysgd.yaml")
	data := []byte(`
backend:
  base_url: https://sysgd.example.com
  api_token: from-file
  user_id: u-1
sqlite:
  path: /tmp/snap.sqlite
sync:
  interval: 1m
http:
  addr: ":8080"
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SYSGD_API_TOKEN", "from-env")
	t.Setenv("TICK_INTERVAL", "250ms")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.BaseURL != "https://sysgd.example.com" || cfg.Backend.UserID != "u-1" {
		t.Fatalf("file values not applied: %+v", cfg.Backend)
	}
	if cfg.Backend.APIToken != "from-env" {
		t.Fatalf("env should override file, got %q", cfg.Backend.APIToken)
	}
	if cfg.Sync.Interval != time.Minute || cfg.Ticker.Interval != 250*time.Millisecond {
		t.Fatalf("unexpected intervals: sync=%v tick=%v", cfg.Sync.Interval, cfg.Ticker.Interval)
	}
	if cfg.SQLite.Path != "/tmp/snap.sqlite" || cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected sink/http: %+v", cfg)
	}
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sysgd.yaml")
	if err := os.WriteFile(path, []byte("backend:\n  api_token: file-token\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SYSGD_CONFIG", path)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.APIToken != "file-token" {
		t.Fatalf("expected token from SYSGD_CONFIG file, got %q", cfg.Backend.APIToken)
	}
}

func TestValidateChecksSinksBeforeToken(t *testing.T) {
	clearEnv(t)
	t.Setenv("MYSQL_DSN", "u:p@tcp(h:3306)/db")
	t.Setenv("SQLITE_PATH", "x.sqlite")
	_, err := Load("")
	if err == nil || errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected sink conflict error, got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"bad sync interval", map[string]string{"SYNC_INTERVAL": "soon"}},
		{"negative tick", map[string]string{"TICK_INTERVAL": "-1s"}},
		{"both sinks", map[string]string{"MYSQL_DSN": "u:p@tcp(h:3306)/db", "SQLITE_PATH": "x.sqlite"}},
		{"missing file", map[string]string{"SYSGD_CONFIG": "/nonexistent/sysgd.yaml"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("SYSGD_API_TOKEN", "tok")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
