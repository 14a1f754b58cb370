package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTempConfig writes a minimal TOML file and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
mode = "bins"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Mode != "bins" {
		t.Errorf("mode = %q, want bins", cfg.Mode)
	}
	if cfg.Solana.RPCURL == "" {
		t.Error("default RPC URL should be populated")
	}
	if cfg.Graph.RefreshInterval.Duration <= 0 {
		t.Error("default graph refresh interval should be positive")
	}
	if cfg.Engine.BinsToTrade < 1 {
		t.Errorf("default bins_to_trade = %d, want >= 1", cfg.Engine.BinsToTrade)
	}
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeTempConfig(t, `
mode = "bins"

[reserves]
debounce = "250ms"
max_age = "5s"

[graph]
refresh_interval = "2m"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Reserves.Debounce.Duration != 250*time.Millisecond {
		t.Errorf("debounce = %v, want 250ms", cfg.Reserves.Debounce.Duration)
	}
	if cfg.Reserves.MaxAge.Duration != 5*time.Second {
		t.Errorf("max_age = %v, want 5s", cfg.Reserves.MaxAge.Duration)
	}
	if cfg.Graph.RefreshInterval.Duration != 2*time.Minute {
		t.Errorf("refresh_interval = %v, want 2m", cfg.Graph.RefreshInterval.Duration)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DEXARB_SOLANA_RPC_URL", "https://rpc.example.com")
	t.Setenv("DEXARB_REDIS_ADDR", "redis.example.com:6380")
	t.Setenv("DEXARB_JITO_ENABLED", "true")
	t.Setenv("DEXARB_RESERVES_MAX_AGE", "7s")

	path := writeTempConfig(t, `
mode = "bins"

[solana]
rpc_url = "https://from-file.example.com"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Solana.RPCURL != "https://rpc.example.com" {
		t.Errorf("env override lost: %q", cfg.Solana.RPCURL)
	}
	if cfg.Redis.Addr != "redis.example.com:6380" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr)
	}
	if !cfg.Jito.Enabled {
		t.Error("jito enabled override lost")
	}
	if cfg.Reserves.MaxAge.Duration != 7*time.Second {
		t.Errorf("max_age = %v, want 7s", cfg.Reserves.MaxAge.Duration)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "bins"
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults in bins mode should validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		mutate func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Mode = "turbo" }},
		{"unknown log level", func(c *Config) { c.LogLevel = "loud" }},
		{"empty rpc url", func(c *Config) { c.Solana.RPCURL = "" }},
		{"bad commitment", func(c *Config) { c.Solana.Commitment = "soon" }},
		{"jito without relay", func(c *Config) {
			c.Jito.Enabled = true
			c.Jito.RelayURL = ""
		}},
		{"ttl below interval", func(c *Config) {
			c.Solana.BlockhashTTL.Duration = c.Solana.BlockhashInterval.Duration / 2
		}},
		{"listen mode without keys", func(c *Config) { c.Mode = "listen" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Mode = "bins"
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Wallet.OperatorKey = "super-secret"
	cfg.Postgres.Password = "hunter2"

	red := RedactedConfig(&cfg)
	if red.Wallet.OperatorKey == "super-secret" {
		t.Error("operator key not redacted")
	}
	if red.Postgres.Password == "hunter2" {
		t.Error("postgres password not redacted")
	}
	// The original is untouched.
	if cfg.Wallet.OperatorKey != "super-secret" {
		t.Error("redaction mutated the source config")
	}
}
