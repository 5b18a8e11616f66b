package strategy

import (
	"TrendSentinel/internal/blocks"
	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
)

// Config holds the trendline calculator parameters.
type Config struct {
	Blocks blocks.Config `yaml:"blocks"`
	// Tolerance absorbs floating-point rounding when locating extremes in finer data.
	Tolerance         float64 `yaml:"tolerance"`
	OrderTimeFraction float64 `yaml:"order_time_fraction"`
	Scoring           Scoring `yaml:"scoring"`
}

// DefaultConfig returns the standard calculator setup.
func DefaultConfig() Config {
	return Config{
		Blocks:            blocks.DefaultConfig(),
		Tolerance:         calculator.DefaultTolerance,
		OrderTimeFraction: calculator.OrderTimeFraction,
		Scoring:           DefaultScoring(),
	}
}

// Analyze derives the uptrend and downtrend trendlines between two blocks.
// fine holds finer candles for exact extreme times and may be empty.
func Analyze(b1, b2 model.Block, res model.Resolution, fine []model.Candle, cfg Config) model.Candidates {
	if b1.Len() == 0 || b2.Len() == 0 {
		return model.Candidates{}
	}
	var out model.Candidates
	if tl, ok := BuildTrendline(candidate(model.Uptrend, b1, b2, res, fine, cfg), cfg); ok {
		out.Up = tl
	}
	if tl, ok := BuildTrendline(candidate(model.Downtrend, b1, b2, res, fine, cfg), cfg); ok {
		out.Down = tl
	}
	return out
}

// AnalyzeWindow forms blocks over candles and analyzes them. ok is false when
// the window cannot be split.
func AnalyzeWindow(candles []model.Candle, res model.Resolution, fine []model.Candle, cfg Config) (model.LadderLevel, bool) {
	f, ok := blocks.Form(candles, cfg.Blocks)
	if !ok {
		return model.LadderLevel{}, false
	}
	return model.LadderLevel{
		Resolution: res,
		Rule:       f.Rule,
		Block1:     f.Block1,
		Block2:     f.Block2,
		Candidates: Analyze(f.Block1, f.Block2, res, fine, cfg),
	}, true
}

func candidate(trend model.TrendType, b1, b2 model.Block, res model.Resolution, fine []model.Candle, cfg Config) Candidate {
	aType, bType := model.PriceLow, model.PriceHigh
	aIdx, bIdx := b1.Low.Index, b2.High.Index
	if trend == model.Downtrend {
		aType, bType = model.PriceHigh, model.PriceLow
		aIdx, bIdx = b1.High.Index, b2.Low.Index
	}

	a := point(b1, aIdx, 0, aType, res, fine, cfg.Tolerance)
	b := point(b2, bIdx, b1.Len(), bType, res, fine, cfg.Tolerance)
	c := Candidate{Trend: trend, A: a, B: b, Breakout: b, Resolution: res}

	for _, p := range cfg.Blocks.SpecialRules.Policies() {
		idx, applied := p.Apply(aIdx, bIdx, b2)
		if !applied {
			continue
		}
		moved := point(b2, idx, b1.Len(), bType, res, fine, cfg.Tolerance)
		if !moreExtreme(trend, moved.Price, a.Price) {
			continue
		}
		c.B = moved
		c.Rules = append(c.Rules, p.Name)
		bIdx = idx
	}
	return c
}

func point(b model.Block, idx, offset int, pt model.PriceType, res model.Resolution, fine []model.Candle, tol float64) model.ExtremePoint {
	c := b.Candles[idx]
	exact, approx := calculator.ExactTime(c, res, pt, fine, tol)
	return model.ExtremePoint{
		Price:             calculator.PriceOf(c, pt),
		Timestamp:         c.Time,
		ExactTime:         exact,
		Approximate:       approx,
		SourceBlock:       b.Name,
		SourceCandleIndex: idx,
		Position:          offset + idx + 1,
		SubHalf:           b.SubHalf(idx),
		PriceType:         pt,
	}
}

func moreExtreme(trend model.TrendType, b, a float64) bool {
	if trend == model.Uptrend {
		return b > a
	}
	return b < a
}
