package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// With Data unset it generates a deterministic session from Price.
type MockFetcher struct {
	Price float64
	Data  map[model.Resolution][]model.Candle
	// Open is the session start time of day; 09:15 when zero.
	Open time.Duration
	// Minutes is the generated session length.
	Minutes int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCandles(_ context.Context, _ string, date time.Time, res model.Resolution) ([]model.Candle, error) {
	if m.Data != nil {
		if c := m.Data[res]; len(c) > 0 {
			return c, nil
		}
		return nil, ErrNoData
	}
	if res != model.OneMinute {
		return nil, ErrNoData
	}
	open := m.Open
	if open == 0 {
		open = 9*time.Hour + 15*time.Minute
	}
	minutes := m.Minutes
	if minutes == 0 {
		minutes = 375
	}
	return generateMockSession(m.Price, SessionDay(date).Add(open), minutes), nil
}

// generateMockSession draws a slow wave so that both trend directions occur.
func generateMockSession(basePrice float64, start time.Time, minutes int) []model.Candle {
	candles := make([]model.Candle, minutes)
	prev := basePrice
	for i := 0; i < minutes; i++ {
		p := basePrice * (1 + 0.01*math.Sin(float64(i)/30))
		candles[i] = model.Candle{
			Time:   start.Add(time.Duration(i) * time.Minute),
			Open:   prev,
			High:   math.Max(prev, p) * 1.0005,
			Low:    math.Min(prev, p) * 0.9995,
			Close:  p,
			Volume: 1000,
		}
		prev = p
	}
	return candles
}

// Collector hands out per-session candle views over a Fetcher.
type Collector struct {
	Fetcher Fetcher
	logger  zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, logger zerolog.Logger) *Collector {
	return &Collector{
		Fetcher: fetcher,
		logger:  logger.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
	}
}

// Session returns a fresh view of one symbol's trading day.
func (c *Collector) Session(symbol string, date time.Time) *Session {
	return &Session{
		fetcher: c.Fetcher,
		symbol:  symbol,
		date:    SessionDay(date),
		logger:  c.logger.With().Str("symbol", symbol).Logger(),
		memo:    make(map[model.Resolution][]model.Candle),
	}
}

// Session serves the candles of one (symbol, date) at any resolution.
// Resolutions the fetcher lacks are built from 1-minute candles. Results,
// including the absence of data, are memoized for the session's lifetime.
type Session struct {
	fetcher Fetcher
	symbol  string
	date    time.Time
	logger  zerolog.Logger

	mu   sync.Mutex
	memo map[model.Resolution][]model.Candle
}

func (s *Session) Symbol() string  { return s.symbol }
func (s *Session) Date() time.Time { return s.date }

// Candles implements the drilling engine's candle source.
func (s *Session) Candles(ctx context.Context, res model.Resolution) ([]model.Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, res)
}

func (s *Session) load(ctx context.Context, res model.Resolution) ([]model.Candle, error) {
	if c, ok := s.memo[res]; ok {
		if len(c) == 0 {
			return nil, ErrNoData
		}
		return c, nil
	}

	candles, err := s.fetcher.FetchCandles(ctx, s.symbol, s.date, res)
	if errors.Is(err, ErrNoData) && res > model.OneMinute {
		candles, err = s.aggregate(ctx, res)
	}
	if errors.Is(err, ErrNoData) {
		s.memo[res] = nil
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s %s: %w", s.symbol, s.date.Format("2006-01-02"), res, err)
	}
	s.memo[res] = candles
	return candles, nil
}

func (s *Session) aggregate(ctx context.Context, res model.Resolution) ([]model.Candle, error) {
	fine, err := s.load(ctx, model.OneMinute)
	if err != nil {
		return nil, err
	}
	candles := calculator.Aggregate(fine, res, time.Time{})
	if len(candles) == 0 {
		return nil, ErrNoData
	}
	s.logger.Debug().Str("resolution", res.String()).Int("candles", len(candles)).Msg("built from 1m candles")
	return candles, nil
}
