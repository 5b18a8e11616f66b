package model

import "time"

// Prediction is an extrapolated future candle built from exactly one trendline.
type Prediction struct {
	TargetCandleIndex int
	// PeriodsAhead is 1 for the next candle, 2 for the one after.
	PeriodsAhead   int
	Time           time.Time
	Resolution     Resolution
	PredictedOpen  float64
	PredictedHigh  float64
	PredictedLow   float64
	PredictedClose float64
	Confidence     float64
	// ReferenceClose is the last known close before the predicted candle.
	ReferenceClose   float64
	BasedOnTrendline *TrendlineResult
}

// AccuracyRecord compares one prediction to the real candle that followed.
type AccuracyRecord struct {
	Predicted        Prediction
	Actual           Candle
	PriceErrorPct    float64
	DirectionCorrect bool
	OverallScore     float64
}
