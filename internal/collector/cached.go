package collector

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"TrendSentinel/internal/cache"
	"TrendSentinel/internal/model"
)

// CachedFetcher serves repeated requests from a cache. Cache failures are
// logged and fall through to the wrapped fetcher.
type CachedFetcher struct {
	next   Fetcher
	cache  cache.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedFetcher(next Fetcher, c cache.Cache, ttl time.Duration, logger zerolog.Logger) *CachedFetcher {
	return &CachedFetcher{
		next:   next,
		cache:  c,
		ttl:    ttl,
		logger: logger.With().Str("component", "candle_cache").Logger(),
	}
}

func (f *CachedFetcher) Name() string { return f.next.Name() + "+cache" }

func (f *CachedFetcher) FetchCandles(ctx context.Context, symbol string, date time.Time, res model.Resolution) ([]model.Candle, error) {
	key := cache.CandleKey(symbol, date, res)
	if raw, ok, err := f.cache.Get(ctx, key); err != nil {
		f.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	} else if ok {
		var candles []model.Candle
		if err := json.Unmarshal(raw, &candles); err == nil && len(candles) > 0 {
			return candles, nil
		}
		f.logger.Warn().Str("key", key).Msg("discarding unreadable cache entry")
	}

	candles, err := f.next.FetchCandles(ctx, symbol, date, res)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(candles)
	if err == nil {
		err = f.cache.Set(ctx, key, raw, f.ttl)
	}
	if err != nil {
		f.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return candles, nil
}
