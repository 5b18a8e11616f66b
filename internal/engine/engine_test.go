package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"TrendSentinel/internal/blocks"
	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
)

var t0 = time.Date(2025, 3, 14, 9, 15, 0, 0, time.UTC)

type mapSource map[model.Resolution][]model.Candle

func (m mapSource) Candles(_ context.Context, res model.Resolution) ([]model.Candle, error) {
	if len(m[res]) == 0 {
		return nil, model.ErrNoData
	}
	return m[res], nil
}

// rally builds 1-minute candles moving by step per minute.
func rally(n int, start, step float64) []model.Candle {
	out := make([]model.Candle, n)
	for i := range out {
		o := start + float64(i)*step
		c := o + step
		out[i] = model.Candle{
			Time:  t0.Add(time.Duration(i) * time.Minute),
			Open:  o,
			High:  math.Max(o, c) + 0.1,
			Low:   math.Min(o, c) - 0.1,
			Close: c,
		}
	}
	return out
}

func sourceFrom(fine []model.Candle, res ...model.Resolution) mapSource {
	src := mapSource{model.OneMinute: fine}
	for _, r := range res {
		src[r] = calculator.Aggregate(fine, r, t0)
	}
	return src
}

func TestAnalyze_Rally(t *testing.T) {
	src := sourceFrom(rally(80, 100, 0.25), model.FiveMinutes, model.TenMinutes, model.TwentyMinutes)
	e := New(DefaultConfig(), zerolog.Nop())

	rep, err := e.Analyze(context.Background(), src, src[model.TwentyMinutes], model.TwentyMinutes, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.HasPattern() {
		t.Fatal("expected a pattern in a steady rally")
	}
	if rep.Winner.TrendType != model.Uptrend || rep.UpWinner != rep.Winner {
		t.Errorf("winner = %s", rep.Winner.TrendType)
	}
	if len(rep.Ladder.Levels) != 3 {
		t.Errorf("ladder levels = %d, want 3", len(rep.Ladder.Levels))
	}
	if len(rep.Predictions) != 2 {
		t.Fatalf("predictions = %d, want 2", len(rep.Predictions))
	}
	p := rep.Predictions[0]
	if p.TargetCandleIndex != 4 || !p.Time.Equal(t0.Add(80*time.Minute)) || p.Resolution != model.TwentyMinutes {
		t.Errorf("prediction anchored at idx=%d time=%v res=%s", p.TargetCandleIndex, p.Time, p.Resolution)
	}
	if p.BasedOnTrendline != rep.Winner {
		t.Error("prediction must reference the winning trendline")
	}
	if p.PredictedClose <= p.ReferenceClose {
		t.Errorf("uptrend prediction close %.2f not above reference %.2f", p.PredictedClose, p.ReferenceClose)
	}
}

func TestAnalyze_FlatMarketHasNoPattern(t *testing.T) {
	flat := make([]model.Candle, 20)
	for i := range flat {
		flat[i] = model.Candle{Time: t0.Add(time.Duration(i) * 5 * time.Minute), Open: 100, High: 100, Low: 100, Close: 100}
	}
	e := New(DefaultConfig(), zerolog.Nop())
	rep, err := e.Analyze(context.Background(), mapSource{model.FiveMinutes: flat}, flat[:4], model.FiveMinutes, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rep.HasPattern() || len(rep.Predictions) != 0 {
		t.Errorf("expected no pattern, got %+v", rep.Winner)
	}
}

func TestAnalyzeBlocks(t *testing.T) {
	src := sourceFrom(rally(60, 50, -0.2), model.FiveMinutes)
	c := src[model.FiveMinutes]
	b1 := blocks.New(blocks.Block1, c[2:4], 2)
	b2 := blocks.New(blocks.Block2, c[4:6], 4)

	e := New(DefaultConfig(), zerolog.Nop())
	rep, err := e.AnalyzeBlocks(context.Background(), src, b1, b2, model.FiveMinutes)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.HasPattern() || rep.Winner.TrendType != model.Downtrend {
		t.Fatalf("expected a downtrend winner, got %+v", rep.Winner)
	}
	if rep.Ladder.Levels[0].Rule != model.RuleSupplied {
		t.Errorf("rule = %s", rep.Ladder.Levels[0].Rule)
	}
	if got := rep.Predictions[0].TargetCandleIndex; got != 6 {
		t.Errorf("target index = %d, want 6", got)
	}
}
