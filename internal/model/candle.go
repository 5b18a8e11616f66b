package model

import (
	"fmt"
	"time"
)

// Candle represents a single OHLCV bar. Candles are never mutated once produced.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Resolution is a candle period expressed in whole minutes.
type Resolution int

const (
	OneMinute     Resolution = 1
	FiveMinutes   Resolution = 5
	TenMinutes    Resolution = 10
	TwentyMinutes Resolution = 20
	FortyMinutes  Resolution = 40
	EightyMinutes Resolution = 80
)

// Duration returns the resolution as a time.Duration.
func (r Resolution) Duration() time.Duration {
	return time.Duration(r) * time.Minute
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dm", int(r))
}

// End returns the exclusive end of the candle's period at resolution r.
func (c Candle) End(r Resolution) time.Time {
	return c.Time.Add(r.Duration())
}

// SessionStats is the market context of a replayed session.
type SessionStats struct {
	Candles       int
	Open          float64
	High          float64
	Low           float64
	LastClose     float64
	SMA           float64
	RSI           float64
	RangePosition float64
}
