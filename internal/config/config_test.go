package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "campaign_layer.yaml")
	content := `
chain:
  rpc_url: http://rpc.example:8899
  timeout_seconds: 5
  requests_per_second: 2
database:
  dsn: postgres://localhost/campaigns
http:
  addr: ":9090"
reconcile:
  schedule: "@every 1m"
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chain.RPCURL != "http://rpc.example:8899" {
		t.Fatalf("rpc url %q", cfg.Chain.RPCURL)
	}
	if cfg.Chain.Timeout() != 5*time.Second {
		t.Fatalf("timeout %v", cfg.Chain.Timeout())
	}
	if cfg.Database.DSN != "postgres://localhost/campaigns" {
		t.Fatalf("dsn %q", cfg.Database.DSN)
	}
	if cfg.HTTP.Addr != ":9090" || cfg.Reconcile.Schedule != "@every 1m" || cfg.LogLevel != "debug" {
		t.Fatalf("config %+v", cfg)
	}
}

func TestLoadFromPath_DefaultsFillGaps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "campaign_layer.yaml")
	if err := os.WriteFile(path, []byte("log_level: warn\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chain.RPCURL == "" || cfg.HTTP.Addr == "" {
		t.Fatalf("defaults missing: %+v", cfg)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("log level %q", cfg.LogLevel)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHAIN_RPC_URL", "http://override:8899")
	t.Setenv("HTTP_ADDR", ":7000")

	cfg := LoadOrDefault()
	if cfg.Chain.RPCURL != "http://override:8899" {
		t.Fatalf("rpc url %q", cfg.Chain.RPCURL)
	}
	if cfg.HTTP.Addr != ":7000" {
		t.Fatalf("addr %q", cfg.HTTP.Addr)
	}
}

func TestLoadFromPath_MissingFile(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
