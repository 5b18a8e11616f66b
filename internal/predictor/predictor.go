package predictor

import (
	"math"
	"time"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
	"TrendSentinel/internal/strategy"
)

// Config holds predictor parameters.
type Config struct {
	// Periods is how many candles ahead to predict (1 or 2).
	Periods int `yaml:"periods"`
	// CloseBiasPct nudges the close past the linear value in the trend direction.
	CloseBiasPct float64 `yaml:"close_bias_pct"`
	// WickBiasPct extends the wick on the trend side; the opposite wick gets half.
	WickBiasPct   float64        `yaml:"wick_bias_pct"`
	MaxConfidence float64        `yaml:"max_confidence"`
	Decay         float64        `yaml:"decay"`
	Accuracy      AccuracyConfig `yaml:"accuracy"`
}

// DefaultConfig returns the standard two-period predictor.
func DefaultConfig() Config {
	return Config{
		Periods:       2,
		CloseBiasPct:  0.05,
		WickBiasPct:   0.10,
		MaxConfidence: 90,
		Decay:         0.85,
		Accuracy:      DefaultAccuracyConfig(),
	}
}

// Request describes what to predict.
type Request struct {
	Trendline  *model.TrendlineResult
	Resolution model.Resolution
	// Anchor is the open time of the first predicted candle.
	Anchor time.Time
	// AnchorIndex is the series index of the first predicted candle.
	AnchorIndex    int
	ReferenceClose float64
	Periods        int
}

// Predict extrapolates the trendline over the next one or two candles.
// Returns nil when there is no trendline.
func Predict(req Request, cfg Config, scoring strategy.Scoring) []model.Prediction {
	tl := req.Trendline
	if tl == nil || req.Resolution <= 0 {
		return nil
	}
	periods := req.Periods
	if periods <= 0 {
		periods = cfg.Periods
	}
	periods = min(max(periods, 1), 2)

	base := math.Min(cfg.MaxConfidence, scoring.SlopeConfidence(tl.Slope))
	out := make([]model.Prediction, 0, periods)
	for k := 1; k <= periods; k++ {
		start := req.Anchor.Add(time.Duration(k-1) * req.Resolution.Duration())
		end := start.Add(req.Resolution.Duration())
		open := calculator.LineAt(tl.PointB.ExactTime, tl.PointB.Price, tl.Slope, start)
		linear := calculator.LineAt(tl.PointB.ExactTime, tl.PointB.Price, tl.Slope, end)
		o, h, l, c := shape(tl.TrendType, open, linear, cfg)

		out = append(out, model.Prediction{
			TargetCandleIndex: req.AnchorIndex + k - 1,
			PeriodsAhead:      k,
			Time:              start,
			Resolution:        req.Resolution,
			PredictedOpen:     o,
			PredictedHigh:     h,
			PredictedLow:      l,
			PredictedClose:    c,
			Confidence:        base * Decay(k, cfg.Decay),
			ReferenceClose:    req.ReferenceClose,
			BasedOnTrendline:  tl,
		})
	}
	return out
}

// Decay returns factor^(k-1); it strictly decreases with k for 0 < factor < 1.
func Decay(k int, factor float64) float64 {
	return math.Pow(factor, float64(k-1))
}

// shape builds OHLC around the linear close: higher highs for an uptrend,
// lower lows for a downtrend.
func shape(trend model.TrendType, open, linear float64, cfg Config) (o, h, l, c float64) {
	cb := cfg.CloseBiasPct / 100
	wb := cfg.WickBiasPct / 100
	o = open
	if trend == model.Uptrend {
		c = linear * (1 + cb)
		h = math.Max(o, c) * (1 + wb)
		l = math.Min(o, c) * (1 - wb/2)
		return
	}
	c = linear * (1 - cb)
	l = math.Min(o, c) * (1 - wb)
	h = math.Max(o, c) * (1 + wb/2)
	return
}
