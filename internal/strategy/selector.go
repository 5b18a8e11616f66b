package strategy

import (
	"math"
	"sort"

	"TrendSentinel/internal/model"
)

// Select picks one winner by confidence, then |slope|, then duration
// optimality, then finer resolution. Remaining ties resolve on point times
// and label so the result never depends on input order. nil means no pattern.
func Select(cands []*model.TrendlineResult, s Scoring) *model.TrendlineResult {
	ranked := Rank(cands, s)
	if len(ranked) == 0 {
		return nil
	}
	return ranked[0]
}

// Rank returns the non-nil candidates ordered best first.
func Rank(cands []*model.TrendlineResult, s Scoring) []*model.TrendlineResult {
	out := make([]*model.TrendlineResult, 0, len(cands))
	for _, c := range cands {
		if c != nil {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return better(out[i], out[j], s) })
	return out
}

func better(a, b *model.TrendlineResult, s Scoring) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if sa, sb := math.Abs(a.Slope), math.Abs(b.Slope); sa != sb {
		return sa > sb
	}
	if da, db := s.DurationPoints(a.DurationMinutes), s.DurationPoints(b.DurationMinutes); da != db {
		return da > db
	}
	if a.Resolution != b.Resolution {
		return a.Resolution < b.Resolution
	}
	if !a.PointA.ExactTime.Equal(b.PointA.ExactTime) {
		return a.PointA.ExactTime.Before(b.PointA.ExactTime)
	}
	if !a.PointB.ExactTime.Equal(b.PointB.ExactTime) {
		return a.PointB.ExactTime.Before(b.PointB.ExactTime)
	}
	if a.PatternLabel != b.PatternLabel {
		return a.PatternLabel < b.PatternLabel
	}
	if a.TrendType != b.TrendType {
		return a.TrendType > b.TrendType
	}
	return a.PointB.Price < b.PointB.Price
}
