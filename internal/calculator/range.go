package calculator

import (
	"errors"
	"math"

	"TrendSentinel/internal/model"
)

// ErrNoCandles is returned when a range is requested over an empty slice.
var ErrNoCandles = errors.New("no candles provided")

// CandleRange scans the candles and returns the highest high and the lowest low.
// Ties resolve to the earliest candle.
func CandleRange(candles []model.Candle) (high, low model.Extreme, err error) {
	if len(candles) == 0 {
		return model.Extreme{}, model.Extreme{}, ErrNoCandles
	}
	high = model.Extreme{Price: math.Inf(-1)}
	low = model.Extreme{Price: math.Inf(1)}
	for i, c := range candles {
		if c.High > high.Price {
			high = model.Extreme{Price: c.High, Time: c.Time, Index: i}
		}
		if c.Low < low.Price {
			low = model.Extreme{Price: c.Low, Time: c.Time, Index: i}
		}
	}
	return high, low, nil
}

// RangePosition returns where price sits within [low, high] (0.0~1.0).
func RangePosition(price, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (price - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
