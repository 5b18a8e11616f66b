package collector

import (
	"context"
	"time"

	"TrendSentinel/internal/model"
)

// ErrNoData is returned when a source has no candles for a request.
var ErrNoData = model.ErrNoData

// Fetcher loads the candles of one trading session at one resolution.
// Implementations return candles in chronological order and ErrNoData
// instead of an empty slice.
type Fetcher interface {
	FetchCandles(ctx context.Context, symbol string, date time.Time, res model.Resolution) ([]model.Candle, error)
	Name() string
}

// SessionDay truncates t to the calendar day it belongs to, in t's location.
func SessionDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
