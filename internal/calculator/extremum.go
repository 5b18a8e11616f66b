package calculator

import (
	"math"
	"sort"
	"time"

	"TrendSentinel/internal/model"
)

// DefaultTolerance only absorbs floating-point rounding between resolutions.
const DefaultTolerance = 1e-9

// Match is the finer candle located for a price extreme.
type Match struct {
	Candle      model.Candle
	Index       int
	Approximate bool
}

// PriceOf returns the high or low of c.
func PriceOf(c model.Candle, pt model.PriceType) float64 {
	if pt == model.PriceHigh {
		return c.High
	}
	return c.Low
}

// Equal reports whether a and b are the same price within tolerance.
// The tolerance is relative to the larger magnitude, floored at 1.
func Equal(a, b, tolerance float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= tolerance*scale
}

// LocateExtremum finds the earliest candle in window whose high (or low) equals target.
// When nothing matches, the candle closest to target is returned flagged Approximate.
// ok is false only when window is empty.
func LocateExtremum(target float64, pt model.PriceType, window []model.Candle, tolerance float64) (Match, bool) {
	if len(window) == 0 {
		return Match{}, false
	}
	best := -1
	bestDiff := math.Inf(1)
	for i, c := range window {
		p := PriceOf(c, pt)
		if Equal(p, target, tolerance) {
			return Match{Candle: c, Index: i}, true
		}
		if d := math.Abs(p - target); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return Match{Candle: window[best], Index: best, Approximate: true}, true
}

// Window returns the candles with from <= Time < to. candles must be ordered by time.
func Window(candles []model.Candle, from, to time.Time) []model.Candle {
	lo := sort.Search(len(candles), func(i int) bool { return !candles[i].Time.Before(from) })
	hi := sort.Search(len(candles), func(i int) bool { return !candles[i].Time.Before(to) })
	if lo >= hi {
		return nil
	}
	return candles[lo:hi]
}

// ExactTime resolves the sub-candle time of c's high or low using finer candles.
// approximate is true when the finer data is missing or no finer candle matched exactly.
func ExactTime(c model.Candle, res model.Resolution, pt model.PriceType, fine []model.Candle, tolerance float64) (t time.Time, approximate bool) {
	m, ok := LocateExtremum(PriceOf(c, pt), pt, Window(fine, c.Time, c.End(res)), tolerance)
	if !ok {
		return c.Time, true
	}
	return m.Candle.Time, m.Approximate
}
