package strategy

import (
	"fmt"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
)

// Candidate is an unvalidated Point A / Point B pair.
type Candidate struct {
	Trend      model.TrendType
	A          model.ExtremePoint
	B          model.ExtremePoint
	Breakout   model.ExtremePoint
	Resolution model.Resolution
	Rules      []string
}

// BuildTrendline validates a candidate and derives slope, label, order time and
// confidence. ok is false for an invalid candidate, which callers discard.
func BuildTrendline(c Candidate, cfg Config) (*model.TrendlineResult, bool) {
	if !valid(c) {
		return nil, false
	}
	diff := c.B.Price - c.A.Price
	minutes := calculator.DurationMinutes(c.A.ExactTime, c.B.ExactTime)
	slope, ok := calculator.Slope(diff, minutes)
	if !ok {
		return nil, false
	}
	confidence, factors := cfg.Scoring.Confidence(slope, minutes, c.Resolution)

	return &model.TrendlineResult{
		PointA:              c.A,
		PointB:              c.B,
		PriceDiff:           diff,
		DurationMinutes:     minutes,
		Slope:               slope,
		TrendType:           c.Trend,
		PatternLabel:        Label(c.A, c.B),
		BreakoutLevel:       c.Breakout.Price,
		BreakoutSourcePoint: c.Breakout,
		OrderTime:           calculator.OrderTime(c.B.ExactTime, minutes, cfg.OrderTimeFraction),
		Resolution:          c.Resolution,
		Confidence:          confidence,
		Factors:             factors,
		AppliedRules:        c.Rules,
	}, true
}

// Label encodes the positions of Point A and Point B across both blocks, e.g. "2-4".
func Label(a, b model.ExtremePoint) string {
	return fmt.Sprintf("%d-%d", a.Position, b.Position)
}

func valid(c Candidate) bool {
	if !c.B.Timestamp.After(c.A.Timestamp) || !c.B.ExactTime.After(c.A.ExactTime) {
		return false
	}
	switch c.Trend {
	case model.Uptrend:
		return c.A.PriceType == model.PriceLow && c.B.PriceType == model.PriceHigh && c.B.Price > c.A.Price
	case model.Downtrend:
		return c.A.PriceType == model.PriceHigh && c.B.PriceType == model.PriceLow && c.B.Price < c.A.Price
	}
	return false
}
