package strategy

import (
	"fmt"
	"math"

	"TrendSentinel/internal/model"
)

// SlopeBand awards Points when |slope| >= Min.
type SlopeBand struct {
	Min    float64 `yaml:"min"`
	Points float64 `yaml:"points"`
}

// DurationBand awards Points when Min <= duration (minutes) <= Max.
type DurationBand struct {
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Points float64 `yaml:"points"`
}

// Scoring holds the confidence bands. Only the best matching band of each
// factor counts, so band order in configuration does not matter.
type Scoring struct {
	Base          float64                      `yaml:"base"`
	Min           float64                      `yaml:"min"`
	Max           float64                      `yaml:"max"`
	SlopeBands    []SlopeBand                  `yaml:"slope_bands"`
	DurationBands []DurationBand               `yaml:"duration_bands"`
	Resolutions   map[model.Resolution]float64 `yaml:"resolution_points"`
}

// DefaultScoring returns the standard bands: base 50, clamp [0,95].
func DefaultScoring() Scoring {
	return Scoring{
		Base: 50,
		Min:  0,
		Max:  95,
		SlopeBands: []SlopeBand{
			{Min: 3, Points: 30},
			{Min: 2, Points: 20},
			{Min: 1, Points: 10},
		},
		DurationBands: []DurationBand{
			{Min: 10, Max: 30, Points: 20},
			{Min: 5, Max: 40, Points: 10},
		},
		Resolutions: map[model.Resolution]float64{
			model.FiveMinutes:   20,
			model.TenMinutes:    15,
			model.TwentyMinutes: 10,
		},
	}
}

// SlopePoints returns the slope-strength contribution.
func (s Scoring) SlopePoints(slope float64) float64 {
	mag := math.Abs(slope)
	best := 0.0
	for _, b := range s.SlopeBands {
		if mag >= b.Min && b.Points > best {
			best = b.Points
		}
	}
	return best
}

// DurationPoints returns the duration-optimality contribution. It doubles as
// the duration tie-break score of the selector.
func (s Scoring) DurationPoints(minutes float64) float64 {
	best := 0.0
	for _, b := range s.DurationBands {
		if minutes >= b.Min && minutes <= b.Max && b.Points > best {
			best = b.Points
		}
	}
	return best
}

// ResolutionPoints returns the resolution-fineness contribution.
func (s Scoring) ResolutionPoints(res model.Resolution) float64 {
	return s.Resolutions[res]
}

// Clamp bounds a score to [Min, Max].
func (s Scoring) Clamp(v float64) float64 {
	return math.Max(s.Min, math.Min(s.Max, v))
}

// SlopeConfidence is the base confidence from slope strength alone.
func (s Scoring) SlopeConfidence(slope float64) float64 {
	return s.Clamp(s.Base + s.SlopePoints(slope))
}

// Confidence scores a trendline and returns the clamped total with its factors.
func (s Scoring) Confidence(slope, minutes float64, res model.Resolution) (float64, []model.FactorScore) {
	factors := []model.FactorScore{
		scoreSlope(s, slope),
		scoreDuration(s, minutes),
		scoreResolution(s, res),
	}
	total := s.Base
	for _, f := range factors {
		total += f.Points
	}
	return s.Clamp(total), factors
}

func scoreSlope(s Scoring, slope float64) model.FactorScore {
	return model.FactorScore{
		Name:       "slope",
		Points:     s.SlopePoints(slope),
		Commentary: fmt.Sprintf("|slope|=%.3f/min", math.Abs(slope)),
	}
}

func scoreDuration(s Scoring, minutes float64) model.FactorScore {
	return model.FactorScore{
		Name:       "duration",
		Points:     s.DurationPoints(minutes),
		Commentary: fmt.Sprintf("%.1f min", minutes),
	}
}

func scoreResolution(s Scoring, res model.Resolution) model.FactorScore {
	return model.FactorScore{
		Name:       "resolution",
		Points:     s.ResolutionPoints(res),
		Commentary: res.String(),
	}
}
