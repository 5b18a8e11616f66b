package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"TrendSentinel/internal/backtest"
	"TrendSentinel/internal/blocks"
	"TrendSentinel/internal/cache"
	"TrendSentinel/internal/drill"
	"TrendSentinel/internal/engine"
)

// Data providers.
const (
	ProviderHTTP     = "http"
	ProviderYahoo    = "yahoo"
	ProviderPostgres = "postgres"
	ProviderMock     = "mock"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		// RateLimit is the maximum requests per second; 0 disables limiting.
		RateLimit float64 `yaml:"rate_limit"`
		// Archive stores fetched candles in Postgres when a DSN is set.
		Archive bool `yaml:"archive"`
	} `yaml:"data_source"`
	Symbols  []string `yaml:"symbols"`
	Schedule struct {
		BacktestCron string `yaml:"backtest_cron"`
		StatusCron   string `yaml:"status_cron"`
		Timezone     string `yaml:"timezone"`
		Parallel     int    `yaml:"parallel"`
	} `yaml:"schedule"`
	Fund struct {
		Capital   float64 `yaml:"capital"`
		StateFile string  `yaml:"state_file"`
	} `yaml:"fund"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Cache struct {
		Backend string            `yaml:"backend"`
		TTL     time.Duration     `yaml:"ttl"`
		Redis   cache.RedisConfig `yaml:"redis"`
	} `yaml:"cache"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Engine   engine.Config   `yaml:"engine"`
	Backtest backtest.Config `yaml:"backtest"`
	Proxy    string          `yaml:"proxy"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{
		Symbols:  []string{"NIFTY"},
		Engine:   engine.DefaultConfig(),
		Backtest: backtest.DefaultConfig(),
	}
	cfg.DataSource.Provider = ProviderMock
	cfg.DataSource.RateLimit = 5
	cfg.Schedule.BacktestCron = "0 45 15 * * 1-5"
	cfg.Schedule.StatusCron = "0 0 18 * * 5"
	cfg.Schedule.Timezone = "Asia/Kolkata"
	cfg.Fund.Capital = 100000
	cfg.Fund.StateFile = "data/fund_state.json"
	cfg.Database.SQLitePath = "data/trend_sentinel.db"
	cfg.Cache.Backend = CacheMemory
	cfg.Cache.TTL = 24 * time.Hour
	cfg.Cache.Redis.Addr = "localhost:6379"
	cfg.Cache.Redis.PoolSize = 10
	cfg.Log.Level = "info"
	return cfg
}

// Load reads a .env file if present, then the YAML file over the defaults,
// then applies environment variable overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"TELEGRAM_BOT_TOKEN":  &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":    &c.Telegram.ChatID,
		"DATA_PROVIDER":       &c.DataSource.Provider,
		"DATA_SOURCE_URL":     &c.DataSource.BaseURL,
		"DATA_SOURCE_API_KEY": &c.DataSource.APIKey,
		"HTTPS_PROXY":         &c.Proxy,
		"BACKTEST_CRON":       &c.Schedule.BacktestCron,
		"SQLITE_PATH":         &c.Database.SQLitePath,
		"POSTGRES_DSN":        &c.Database.PostgresDSN,
		"REDIS_ADDR":          &c.Cache.Redis.Addr,
		"CACHE_BACKEND":       &c.Cache.Backend,
		"LOG_LEVEL":           &c.Log.Level,
	}
	for key, dst := range overrides {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Symbols = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.Symbols = append(c.Symbols, s)
			}
		}
	}
	if v := os.Getenv("FUND_CAPITAL"); v != "" {
		var capital float64
		if _, err := fmt.Sscanf(v, "%f", &capital); err == nil {
			c.Fund.Capital = capital
		}
	}
}

// Location resolves the schedule timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Schedule.Timezone)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols must not be empty")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	switch c.DataSource.Provider {
	case ProviderHTTP:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the http provider")
		}
	case ProviderPostgres:
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("database.postgres_dsn is required for the postgres provider")
		}
	case ProviderYahoo, ProviderMock:
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	switch c.Cache.Backend {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if c.Fund.Capital <= 0 {
		return fmt.Errorf("fund.capital must be positive")
	}
	return c.validateEngine()
}

func (c *Config) validateEngine() error {
	d := c.Engine.Drill
	switch d.Mode {
	case drill.ModeRefine, drill.ModeWiden, drill.ModeNone:
	default:
		return fmt.Errorf("unknown engine.drill.mode %q", d.Mode)
	}
	if d.Floor < 1 || d.Floor > d.Ceiling {
		return fmt.Errorf("engine.drill: floor %s must be between 1m and ceiling %s", d.Floor, d.Ceiling)
	}
	if d.WidenWindow < 1 || d.WidenWindow > d.WidenWait {
		return fmt.Errorf("engine.drill.widen_window must be in [1, widen_wait]")
	}
	b := c.Engine.Strategy.Blocks
	switch b.Mode {
	case blocks.ModeAuto, blocks.ModeEqualCount, blocks.ModeFallback:
	default:
		return fmt.Errorf("unknown engine.strategy.blocks.mode %q", b.Mode)
	}
	if b.MinCandles < 2 || b.FallbackBlock1 < 1 || b.FallbackBlock1 > 4 {
		return fmt.Errorf("engine.strategy.blocks: min_candles must be >= 2 and fallback_block1 in [1, 4]")
	}
	s := c.Engine.Strategy.Scoring
	if s.Min < 0 || s.Max > 95 || s.Min > s.Max {
		return fmt.Errorf("engine.strategy.scoring: min %.0f and max %.0f must satisfy 0 <= min <= max <= 95", s.Min, s.Max)
	}
	p := c.Engine.Predictor
	if p.Periods < 1 || p.Periods > 2 {
		return fmt.Errorf("engine.predictor.periods must be 1 or 2")
	}
	if p.Decay <= 0 || p.Decay >= 1 {
		return fmt.Errorf("engine.predictor.decay must be in (0, 1)")
	}
	bt := c.Backtest
	if bt.Resolution < 1 {
		return fmt.Errorf("backtest.resolution must be positive")
	}
	if bt.BlockSize < 1 {
		return fmt.Errorf("backtest.block_size must be >= 1")
	}
	if bt.MaxCycles < 1 {
		return fmt.Errorf("backtest.max_cycles must be >= 1")
	}
	if bt.Transition != backtest.TransitionMerge && bt.Transition != backtest.TransitionRotate {
		return fmt.Errorf("unknown backtest.transition %q", bt.Transition)
	}
	if bt.SMAPeriod < 1 || bt.RSIPeriod < 1 {
		return fmt.Errorf("backtest indicator periods must be positive")
	}
	return nil
}
