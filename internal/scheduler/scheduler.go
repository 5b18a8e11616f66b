package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"TrendSentinel/internal/backtest"
	"TrendSentinel/internal/collector"
	"TrendSentinel/internal/fund"
	"TrendSentinel/internal/notifier"
	"TrendSentinel/internal/recorder"
)

// Sender delivers report text. A nil Sender disables notifications.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the daily backtests of every configured symbol.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Harness   *backtest.Harness
	Fund      *fund.Manager
	Notifier  Sender
	Recorder  recorder.Recorder
	Symbols   []string
	// Parallel bounds the number of symbols replayed at once; 0 means unbounded.
	Parallel int
	Ctx      context.Context
	logger   zerolog.Logger
	now      func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, h *backtest.Harness, fm *fund.Manager, tn Sender, rec recorder.Recorder, symbols []string, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Harness:   h,
		Fund:      fm,
		Notifier:  tn,
		Recorder:  rec,
		Symbols:   symbols,
		Ctx:       ctx,
		logger:    logger.With().Str("component", "scheduler").Logger(),
		now:       time.Now,
	}
}

// RegisterAll registers the session backtest and the weekly account report.
func (s *Scheduler) RegisterAll(backtestCron, statusCron string) error {
	if _, err := s.Cron.AddFunc(backtestCron, s.backtestTask); err != nil {
		return fmt.Errorf("register backtest task: %w", err)
	}
	if statusCron == "" {
		return nil
	}
	if _, err := s.Cron.AddFunc(statusCron, s.statusTask); err != nil {
		return fmt.Errorf("register status task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Strs("symbols", s.Symbols).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) backtestTask() {
	if _, err := s.RunNow(s.Ctx, s.now()); err != nil {
		s.logger.Error().Err(err).Msg("scheduled backtest")
	}
}

func (s *Scheduler) statusTask() {
	if s.Fund == nil {
		return
	}
	s.trySend(s.Ctx, notifier.FormatFundStatus(s.Fund.GetState()))
}

// RunNow backtests every symbol for the session of date. Symbols run
// concurrently and independently; one failing symbol does not stop the others.
// results[i] belongs to Symbols[i] and is nil only when that run failed to start.
func (s *Scheduler) RunNow(ctx context.Context, date time.Time) ([]*backtest.Result, error) {
	s.logger.Info().Time("date", date).Int("symbols", len(s.Symbols)).Msg("running backtests")
	results := make([]*backtest.Result, len(s.Symbols))

	var g errgroup.Group
	if s.Parallel > 0 {
		g.SetLimit(s.Parallel)
	}
	for i, sym := range s.Symbols {
		i, sym := i, sym
		g.Go(func() error {
			res, err := s.runSymbol(ctx, sym, date)
			results[i] = res
			return err
		})
	}
	return results, g.Wait()
}

func (s *Scheduler) runSymbol(ctx context.Context, symbol string, date time.Time) (*backtest.Result, error) {
	session := s.Collector.Session(symbol, date)
	res, err := s.Harness.Run(ctx, session, symbol, session.Date())
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("backtest failed")
		s.trySend(ctx, fmt.Sprintf("❌ %s backtest failed: %v", symbol, err))
		return res, fmt.Errorf("%s: %w", symbol, err)
	}
	if res.StopReason == backtest.StopNoData {
		s.logger.Info().Str("symbol", symbol).Msg("no session data, skipping report")
		return res, nil
	}

	if err := s.Recorder.RecordRun(res); err != nil {
		s.logger.Error().Err(err).Str("run_id", res.RunID).Msg("record run")
	}
	report := notifier.FormatBacktestSummary(res)
	if s.Fund != nil {
		s.Fund.Book(res)
		report += "\n" + notifier.FormatFundStatus(s.Fund.GetState())
	}
	s.trySend(ctx, report)
	return res, nil
}

// HandleCommand answers Telegram commands.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	cmd := strings.Fields(command)
	if len(cmd) == 0 {
		return ""
	}
	switch cmd[0] {
	case "/status":
		if s.Fund == nil {
			return "Paper account disabled"
		}
		return notifier.FormatFundStatus(s.Fund.GetState())
	case "/run":
		date := s.now()
		if len(cmd) > 1 {
			d, err := time.ParseInLocation("2006-01-02", cmd[1], date.Location())
			if err != nil {
				return fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", cmd[1])
			}
			date = d
		}
		go s.RunNow(s.Ctx, date)
		return fmt.Sprintf("Backtest started for %s", date.Format("2006-01-02"))
	case "/help", "/start":
		return "/status - paper account\n/run [YYYY-MM-DD] - backtest a session\n/help - this message"
	}
	return ""
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		s.logger.Error().Err(err).Msg("failed to send notification")
	}
}
