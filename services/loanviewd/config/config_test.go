package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
listen: " :6000 "
params: " params.toml "
rpc:
  url: "http://127.0.0.1:8080"
  allow_insecure: true
auth:
  hmac_secret: " secret "
price:
  poll_interval: 5s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ListenAddress != ":6000" || cfg.ParamsPath != "params.toml" {
		t.Fatalf("unexpected trimmed values: %+v", cfg)
	}
	if cfg.Price.PollInterval != 5*time.Second || cfg.Price.MaxAge != defaultMaxAge {
		t.Fatalf("unexpected price config: %+v", cfg.Price)
	}
	if cfg.Auth.HMACSecret != "secret" || cfg.Auth.ClockSkew != 2*time.Minute {
		t.Fatalf("unexpected auth config: %+v", cfg.Auth)
	}
	if cfg.Journal.DSN != defaultJournalDSN {
		t.Fatalf("expected default journal dsn, got %q", cfg.Journal.DSN)
	}
	if cfg.RateLimit.RequestsPerMinute != 120 || cfg.RateLimit.Burst != 20 {
		t.Fatalf("unexpected rate limit: %+v", cfg.RateLimit)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("LENDVIEW_ENV", "staging")
	t.Setenv("LENDVIEW_JWT_SECRET", "from-env")
	t.Setenv("LENDVIEW_JOURNAL_DSN", "postgres://journal")
	path := writeConfig(t, `
params: params.toml
rpc:
  url: "https://node.example"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Environment != "staging" || cfg.Auth.HMACSecret != "from-env" || cfg.Journal.DSN != "postgres://journal" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("LENDVIEW_JWT_SECRET", "")
	path := writeConfig(t, `
params: params.toml
rpc:
  url: "https://node.example"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error without hmac secret")
	}
}

func TestLoadConfigValidatesRPC(t *testing.T) {
	t.Setenv("LENDVIEW_JWT_SECRET", "")
	path := writeConfig(t, `
params: params.toml
rpc:
  url: "http://node.example"
auth:
  hmac_secret: secret
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for plaintext rpc without allow_insecure")
	}
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
params: params.toml
bogus: true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadConfigMaxAgeBelowPoll(t *testing.T) {
	t.Setenv("LENDVIEW_JWT_SECRET", "")
	path := writeConfig(t, `
params: params.toml
rpc:
  url: "https://node.example"
auth:
  hmac_secret: secret
price:
  poll_interval: 1m
  max_age: 10s
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error when max_age is shorter than poll_interval")
	}
}

func TestLoadConfigNotifyWindow(t *testing.T) {
	t.Setenv("LENDVIEW_JWT_SECRET", "")
	path := writeConfig(t, `
params: params.toml
rpc:
  url: "https://node.example"
auth:
  hmac_secret: secret
notify:
  webhook_url: "https://hooks.example/loans"
  limit: 5
  window: 30s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Notify.Limit != 5 || cfg.Notify.Window != 30*time.Second {
		t.Fatalf("unexpected notify config: %+v", cfg.Notify)
	}

	path = writeConfig(t, `
params: params.toml
rpc:
  url: "https://node.example"
auth:
  hmac_secret: secret
notify:
  window: -1s
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for negative notify window")
	}
}
