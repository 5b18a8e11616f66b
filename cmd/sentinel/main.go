package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"TrendSentinel/internal/backtest"
	"TrendSentinel/internal/cache"
	"TrendSentinel/internal/collector"
	"TrendSentinel/internal/config"
	"TrendSentinel/internal/engine"
	"TrendSentinel/internal/fund"
	"TrendSentinel/internal/logger"
	"TrendSentinel/internal/notifier"
	"TrendSentinel/internal/recorder"
	"TrendSentinel/internal/scheduler"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		boot := logger.New("info", false)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("config", cfgPath).Strs("symbols", cfg.Symbols).Msg("TrendSentinel starting")

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher, closeFetcher := buildFetcher(ctx, cfg, log)
	defer closeFetcher()
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")
	col := collector.NewCollector(fetcher, log)

	eng := engine.New(cfg.Engine, log)
	harness := backtest.NewHarness(eng, cfg.Backtest, log)

	fm, err := fund.NewManager(cfg.Fund.StateFile, cfg.Fund.Capital, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init fund manager")
	}

	// Telegram is optional
	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		sender = tn
	}

	// Init recorder
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
			defer sr.Close()
		}
	}

	loc, _ := cfg.Location()
	sched := scheduler.NewScheduler(ctx, col, harness, fm, sender, rec, cfg.Symbols, log)
	sched.Parallel = cfg.Schedule.Parallel
	if err := sched.RegisterAll(cronIn(loc, cfg.Schedule.BacktestCron), cronIn(loc, cfg.Schedule.StatusCron)); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, backtesting today's session now")
		go sched.RunNow(ctx, time.Now().In(loc))
	}

	log.Info().Msg("TrendSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()
}

func cronIn(loc *time.Location, spec string) string {
	if spec == "" {
		return ""
	}
	return "CRON_TZ=" + loc.String() + " " + spec
}

// buildFetcher assembles source, optional Postgres archive and cache.
func buildFetcher(ctx context.Context, cfg *config.Config, log zerolog.Logger) (collector.Fetcher, func()) {
	closers := []func(){}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var store *collector.PostgresStore
	if cfg.Database.PostgresDSN != "" {
		s, err := collector.NewPostgresStore(ctx, cfg.Database.PostgresDSN)
		if err == nil {
			err = s.Migrate(ctx)
		}
		switch {
		case err != nil && cfg.DataSource.Provider == config.ProviderPostgres:
			log.Fatal().Err(err).Msg("init postgres store")
		case err != nil:
			log.Warn().Err(err).Msg("postgres unavailable, archive disabled")
		default:
			store = s
			closers = append(closers, s.Close)
		}
	}

	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case config.ProviderHTTP:
		fetcher = collector.NewHTTPFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.RateLimit)
	case config.ProviderYahoo:
		fetcher = collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.RateLimit)
	case config.ProviderPostgres:
		fetcher = store
	default:
		fetcher = &collector.MockFetcher{Price: 22000}
	}
	if store != nil && cfg.DataSource.Archive && cfg.DataSource.Provider != config.ProviderPostgres {
		fetcher = collector.NewArchive(store, fetcher, log)
	}

	var c cache.Cache
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
			c = cache.NewMemoryCache()
		} else {
			c = rc
			closers = append(closers, func() { rc.Close() })
		}
	case config.CacheMemory:
		c = cache.NewMemoryCache()
	}
	if c != nil {
		fetcher = collector.NewCachedFetcher(fetcher, c, cfg.Cache.TTL, log)
	}
	return fetcher, closeAll
}
