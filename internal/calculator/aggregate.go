package calculator

import (
	"time"

	"TrendSentinel/internal/model"
)

// Merge combines consecutive candles into one: first open, last close, max high, min low.
func Merge(candles []model.Candle) model.Candle {
	out := candles[0]
	for _, c := range candles[1:] {
		if c.High > out.High {
			out.High = c.High
		}
		if c.Low < out.Low {
			out.Low = c.Low
		}
		out.Close = c.Close
		out.Volume += c.Volume
	}
	return out
}

// Consolidate merges adjacent pairs into candles of twice the resolution.
// A trailing unpaired candle is dropped.
func Consolidate(candles []model.Candle) []model.Candle {
	out := make([]model.Candle, 0, len(candles)/2)
	for i := 0; i+1 < len(candles); i += 2 {
		out = append(out, Merge(candles[i:i+2]))
	}
	return out
}

// Aggregate buckets ordered candles into periods of resolution to, aligned on origin.
// A zero origin aligns on the first candle. Bucket times are the bucket start.
func Aggregate(candles []model.Candle, to model.Resolution, origin time.Time) []model.Candle {
	if len(candles) == 0 || to <= 0 {
		return nil
	}
	if origin.IsZero() {
		origin = candles[0].Time
	}
	period := to.Duration()
	var out []model.Candle
	var bucket []model.Candle
	var bucketStart time.Time
	flush := func() {
		if len(bucket) == 0 {
			return
		}
		c := Merge(bucket)
		c.Time = bucketStart
		out = append(out, c)
		bucket = bucket[:0]
	}
	for _, c := range candles {
		if c.Time.Before(origin) {
			continue
		}
		start := origin.Add(c.Time.Sub(origin) / period * period)
		if len(bucket) > 0 && !start.Equal(bucketStart) {
			flush()
		}
		if len(bucket) == 0 {
			bucketStart = start
		}
		bucket = append(bucket, c)
	}
	flush()
	return out
}
