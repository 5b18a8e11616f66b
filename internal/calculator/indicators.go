package calculator

import (
	"errors"
	"math"

	"TrendSentinel/internal/model"
)

// momentum accumulates Wilder-smoothed average gains and losses of successive
// closes. The first period changes seed the averages with a plain mean.
type momentum struct {
	period     int
	changes    int
	gain, loss float64
}

func (m *momentum) add(change float64) {
	up, down := math.Max(change, 0), math.Max(-change, 0)
	k := float64(m.period)
	m.changes++
	if m.changes <= m.period {
		m.gain += up / k
		m.loss += down / k
		return
	}
	m.gain = (m.gain*(k-1) + up) / k
	m.loss = (m.loss*(k-1) + down) / k
}

// rsi is neutral (50) until the seed period is filled or when the session is flat.
func (m *momentum) rsi() float64 {
	switch {
	case m.changes < m.period, m.gain == 0 && m.loss == 0:
		return 50
	case m.loss == 0:
		return 100
	}
	return 100 - 100/(1+m.gain/m.loss)
}

// SessionStats summarizes a session series in one pass: range, trailing
// close average over smaPeriod candles and RSI over rsiPeriod changes.
// SMA falls back to the last close when the series is shorter than smaPeriod.
func SessionStats(candles []model.Candle, smaPeriod, rsiPeriod int) (model.SessionStats, error) {
	if smaPeriod <= 0 || rsiPeriod <= 0 {
		return model.SessionStats{}, errors.New("indicator periods must be positive")
	}
	high, low, err := CandleRange(candles)
	if err != nil {
		return model.SessionStats{}, err
	}

	var window float64
	mom := momentum{period: rsiPeriod}
	for i, c := range candles {
		window += c.Close
		if i >= smaPeriod {
			window -= candles[i-smaPeriod].Close
		}
		if i > 0 {
			mom.add(c.Close - candles[i-1].Close)
		}
	}

	last := candles[len(candles)-1].Close
	st := model.SessionStats{
		Candles:   len(candles),
		Open:      candles[0].Open,
		High:      high.Price,
		Low:       low.Price,
		LastClose: last,
		SMA:       last,
		RSI:       mom.rsi(),
	}
	if len(candles) >= smaPeriod {
		st.SMA = window / float64(smaPeriod)
	}
	if st.RangePosition, err = RangePosition(last, high.Price, low.Price); err != nil {
		return model.SessionStats{}, err
	}
	return st, nil
}
