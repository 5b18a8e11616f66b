package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"TrendSentinel/internal/backtest"
	"TrendSentinel/internal/drill"
	"TrendSentinel/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Engine.Drill.Floor != model.FiveMinutes || cfg.Backtest.BlockSize != 2 {
		t.Errorf("engine defaults not applied: %+v", cfg.Engine.Drill)
	}
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
symbols: [NIFTY, BANKNIFTY]
data_source:
  provider: http
  base_url: http://example.test
cache:
  backend: none
  ttl: 90m
engine:
  drill:
    mode: widen
    ceiling: 40
  predictor:
    periods: 1
backtest:
  transition: rotate
  max_cycles: 10
`)
	t.Setenv("SYMBOLS", "SPX, NDX ,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATA_SOURCE_API_KEY", "k")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Symbols) != 2 || cfg.Symbols[0] != "SPX" || cfg.Symbols[1] != "NDX" {
		t.Errorf("symbols = %v", cfg.Symbols)
	}
	if cfg.Log.Level != "debug" || cfg.DataSource.APIKey != "k" || cfg.DataSource.Provider != ProviderHTTP {
		t.Errorf("overrides not applied: %+v", cfg.DataSource)
	}
	if cfg.Cache.TTL != 90*time.Minute {
		t.Errorf("ttl = %v", cfg.Cache.TTL)
	}
	d := cfg.Engine.Drill
	if d.Mode != drill.ModeWiden || d.Ceiling != model.FortyMinutes || d.Floor != model.FiveMinutes {
		t.Errorf("drill = %+v", d)
	}
	if cfg.Engine.Predictor.Periods != 1 || cfg.Engine.Predictor.Decay != 0.85 {
		t.Errorf("predictor = %+v", cfg.Engine.Predictor)
	}
	if cfg.Backtest.Transition != backtest.TransitionRotate || cfg.Backtest.MaxCycles != 10 || cfg.Backtest.Resolution != model.FiveMinutes {
		t.Errorf("backtest = %+v", cfg.Backtest)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "symbols: [unterminated")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no symbols", func(c *Config) { c.Symbols = nil }},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "x" }},
		{"http without url", func(c *Config) { c.DataSource.Provider = ProviderHTTP }},
		{"postgres without dsn", func(c *Config) { c.DataSource.Provider = ProviderPostgres }},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "ftp" }},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"bad timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Base" }},
		{"floor above ceiling", func(c *Config) { c.Engine.Drill.Floor = 160 }},
		{"widen window", func(c *Config) { c.Engine.Drill.WidenWindow = 7 }},
		{"decay", func(c *Config) { c.Engine.Predictor.Decay = 1 }},
		{"periods", func(c *Config) { c.Engine.Predictor.Periods = 3 }},
		{"block size", func(c *Config) { c.Backtest.BlockSize = 0 }},
		{"transition", func(c *Config) { c.Backtest.Transition = "shuffle" }},
		{"blocks mode", func(c *Config) { c.Engine.Strategy.Blocks.Mode = "random" }},
		{"fallback block1 above 4", func(c *Config) { c.Engine.Strategy.Blocks.FallbackBlock1 = 5 }},
		{"scoring max above 95", func(c *Config) { c.Engine.Strategy.Scoring.Max = 100 }},
		{"scoring min negative", func(c *Config) { c.Engine.Strategy.Scoring.Min = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
