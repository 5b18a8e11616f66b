package predictor

import (
	"math"

	"TrendSentinel/internal/model"
)

// AccuracyConfig weights the overall score of a prediction.
type AccuracyConfig struct {
	PriceWeight     float64 `yaml:"price_weight"`
	DirectionWeight float64 `yaml:"direction_weight"`
	// ErrorPenalty is the price score lost per 1% close error.
	ErrorPenalty float64 `yaml:"error_penalty"`
}

// DefaultAccuracyConfig weights price 60% and direction 40%.
func DefaultAccuracyConfig() AccuracyConfig {
	return AccuracyConfig{PriceWeight: 0.6, DirectionWeight: 0.4, ErrorPenalty: 20}
}

// Evaluate compares a prediction with the real candle. The score is in [0,100].
func Evaluate(p model.Prediction, actual model.Candle, cfg AccuracyConfig) model.AccuracyRecord {
	errPct := 100.0
	if actual.Close != 0 {
		errPct = math.Abs(p.PredictedClose-actual.Close) / math.Abs(actual.Close) * 100
	}
	direction := sign(p.PredictedClose-p.ReferenceClose) == sign(actual.Close-p.ReferenceClose)

	priceScore := math.Max(0, 100-errPct*cfg.ErrorPenalty)
	dirScore := 0.0
	if direction {
		dirScore = 100
	}
	total := cfg.PriceWeight + cfg.DirectionWeight
	score := 0.0
	if total > 0 {
		score = (priceScore*cfg.PriceWeight + dirScore*cfg.DirectionWeight) / total
	}

	return model.AccuracyRecord{
		Predicted:        p,
		Actual:           actual,
		PriceErrorPct:    errPct,
		DirectionCorrect: direction,
		OverallScore:     score,
	}
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
