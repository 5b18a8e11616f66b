package model

import "errors"

// ErrNoData marks a data-unavailable outcome: the source returned zero candles.
var ErrNoData = errors.New("no candle data available")
