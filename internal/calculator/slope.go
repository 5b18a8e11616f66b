package calculator

import "time"

// OrderTimeFraction is the share of the A→B duration waited after Point B before entry.
const OrderTimeFraction = 0.34

// DurationMinutes returns the minutes elapsed from a to b.
func DurationMinutes(a, b time.Time) float64 {
	return b.Sub(a).Minutes()
}

// Slope returns priceDiff per minute. ok is false for a non-positive duration.
func Slope(priceDiff, minutes float64) (slope float64, ok bool) {
	if minutes <= 0 {
		return 0, false
	}
	return priceDiff / minutes, true
}

// OrderTime returns pointB + fraction × duration.
func OrderTime(pointB time.Time, durationMinutes, fraction float64) time.Time {
	return pointB.Add(time.Duration(fraction * durationMinutes * float64(time.Minute)))
}

// LineAt extrapolates the line through (origin, price) with slope (per minute) to t.
func LineAt(origin time.Time, price, slope float64, t time.Time) float64 {
	return price + slope*t.Sub(origin).Minutes()
}
