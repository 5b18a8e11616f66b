package drill

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
	"TrendSentinel/internal/strategy"
)

var t0 = time.Date(2025, 3, 14, 9, 15, 0, 0, time.UTC)

type fakeSource struct {
	data map[model.Resolution][]model.Candle
	err  error
}

func (f fakeSource) Candles(_ context.Context, res model.Resolution) ([]model.Candle, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := f.data[res]
	if len(c) == 0 {
		return nil, model.ErrNoData
	}
	return c, nil
}

func minuteSession(n int) []model.Candle {
	out := make([]model.Candle, n)
	price := 250.0
	for i := range out {
		o := price
		c := o + math.Sin(float64(i)/7)*0.8 + 0.05
		out[i] = model.Candle{
			Time:  t0.Add(time.Duration(i) * time.Minute),
			Open:  o,
			High:  math.Max(o, c) + 0.2 + float64(i%3)*0.1,
			Low:   math.Min(o, c) - 0.2 - float64(i%4)*0.1,
			Close: c,
		}
		price = c
	}
	return out
}

func newSource(minutes int, resolutions ...model.Resolution) fakeSource {
	fine := minuteSession(minutes)
	src := fakeSource{data: map[model.Resolution][]model.Candle{model.OneMinute: fine}}
	for _, r := range resolutions {
		src.data[r] = calculator.Aggregate(fine, r, t0)
	}
	return src
}

func engine(cfg Config) *Engine {
	return NewEngine(cfg, strategy.DefaultConfig(), zerolog.Nop())
}

func TestRefine_LadderToFloor(t *testing.T) {
	src := newSource(80, model.FiveMinutes, model.TenMinutes, model.TwentyMinutes)
	window := src.data[model.TwentyMinutes][:4]

	ladder, err := engine(DefaultConfig()).Run(context.Background(), src, window, model.TwentyMinutes)
	if err != nil {
		t.Fatal(err)
	}
	if len(ladder.Levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(ladder.Levels))
	}
	want := []model.Resolution{model.TwentyMinutes, model.TenMinutes, model.FiveMinutes}
	for i, lv := range ladder.Levels {
		if lv.Resolution != want[i] {
			t.Errorf("level %d resolution = %s, want %s", i, lv.Resolution, want[i])
		}
		if lv.Block1.Len() != 2 || lv.Block2.Len() != 2 {
			t.Errorf("level %d blocks %d/%d", i, lv.Block1.Len(), lv.Block2.Len())
		}
	}
	if ladder.Stop != model.StopFloorReached {
		t.Errorf("stop = %s, want floor", ladder.Stop)
	}
	// Each finer level lives inside the previous level's block2.
	for i := 1; i < len(ladder.Levels); i++ {
		prev := ladder.Levels[i-1]
		if ladder.Levels[i].Block1.Candles[0].Time.Before(prev.Block2.Candles[0].Time) {
			t.Errorf("level %d starts before previous block2", i)
		}
	}
}

func TestRefine_LogsSubHalves(t *testing.T) {
	src := newSource(80, model.FiveMinutes, model.TenMinutes, model.TwentyMinutes)
	var buf bytes.Buffer
	eng := NewEngine(DefaultConfig(), strategy.DefaultConfig(), zerolog.New(&buf))
	if _, err := eng.Run(context.Background(), src, src.data[model.TwentyMinutes][:4], model.TwentyMinutes); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if n := strings.Count(out, `"block1_split":"1+1"`); n != 3 {
		t.Errorf("block1 split logged %d times, want 3:\n%s", n, out)
	}
	if !strings.Contains(out, `"block2_split":"1+1"`) {
		t.Errorf("block2 split missing:\n%s", out)
	}
}

func TestRefine_ConfiguredFloor(t *testing.T) {
	src := newSource(80, model.FiveMinutes, model.TenMinutes, model.TwentyMinutes)
	cfg := DefaultConfig()
	cfg.Floor = model.TenMinutes
	ladder, err := engine(cfg).Run(context.Background(), src, src.data[model.TwentyMinutes][:4], model.TwentyMinutes)
	if err != nil {
		t.Fatal(err)
	}
	if len(ladder.Levels) != 2 || ladder.Stop != model.StopFloorReached {
		t.Errorf("levels=%d stop=%s", len(ladder.Levels), ladder.Stop)
	}
}

func TestRefine_MissingFinerData(t *testing.T) {
	src := newSource(80, model.TwentyMinutes)
	ladder, err := engine(DefaultConfig()).Run(context.Background(), src, src.data[model.TwentyMinutes][:4], model.TwentyMinutes)
	if err != nil {
		t.Fatalf("insufficient data must not be an error: %v", err)
	}
	if len(ladder.Levels) != 1 || ladder.Stop != model.StopInsufficientData {
		t.Errorf("levels=%d stop=%s", len(ladder.Levels), ladder.Stop)
	}
}

func TestRun_TooFewCandles(t *testing.T) {
	src := newSource(80, model.TwentyMinutes)
	ladder, err := engine(DefaultConfig()).Run(context.Background(), src, src.data[model.TwentyMinutes][:3], model.TwentyMinutes)
	if err != nil {
		t.Fatal(err)
	}
	if len(ladder.Levels) != 0 || ladder.Stop != model.StopInsufficientData {
		t.Errorf("levels=%d stop=%s", len(ladder.Levels), ladder.Stop)
	}
}

func TestRun_AdapterFailure(t *testing.T) {
	boom := errors.New("connection refused")
	src := fakeSource{err: boom}
	_, err := engine(DefaultConfig()).Run(context.Background(), src, minuteSession(4), model.OneMinute)
	if !errors.Is(err, boom) {
		t.Errorf("expected adapter error, got %v", err)
	}
}

func TestRun_ModeNone(t *testing.T) {
	src := newSource(80, model.TwentyMinutes, model.TenMinutes)
	cfg := DefaultConfig()
	cfg.Mode = ModeNone
	ladder, err := engine(cfg).Run(context.Background(), src, src.data[model.TwentyMinutes][:4], model.TwentyMinutes)
	if err != nil {
		t.Fatal(err)
	}
	if len(ladder.Levels) != 1 || ladder.Stop != model.StopDisabled {
		t.Errorf("levels=%d stop=%s", len(ladder.Levels), ladder.Stop)
	}
}

func TestWiden_UpToCeiling(t *testing.T) {
	src := newSource(120, model.FiveMinutes)
	cfg := DefaultConfig()
	cfg.Mode = ModeWiden
	cfg.Ceiling = model.TwentyMinutes
	ladder, err := engine(cfg).Run(context.Background(), src, src.data[model.FiveMinutes], model.FiveMinutes)
	if err != nil {
		t.Fatal(err)
	}
	want := []model.Resolution{model.FiveMinutes, model.TenMinutes, model.TwentyMinutes}
	if len(ladder.Levels) != len(want) {
		t.Fatalf("expected %d levels, got %d", len(want), len(ladder.Levels))
	}
	for i, lv := range ladder.Levels {
		if lv.Resolution != want[i] || lv.Block1.Len()+lv.Block2.Len() != 4 {
			t.Errorf("level %d: res=%s candles=%d", i, lv.Resolution, lv.Block1.Len()+lv.Block2.Len())
		}
	}
	if ladder.Stop != model.StopCeilingReached {
		t.Errorf("stop = %s, want ceiling", ladder.Stop)
	}
}

func TestWiden_WaitsForSixCandles(t *testing.T) {
	src := newSource(25, model.FiveMinutes)
	cfg := DefaultConfig()
	cfg.Mode = ModeWiden
	ladder, err := engine(cfg).Run(context.Background(), src, src.data[model.FiveMinutes], model.FiveMinutes)
	if err != nil {
		t.Fatal(err)
	}
	if len(ladder.Levels) != 0 || ladder.Stop != model.StopInsufficientData {
		t.Errorf("levels=%d stop=%s", len(ladder.Levels), ladder.Stop)
	}
}

func TestWiden_ConsolidationMatchesDirectCandles(t *testing.T) {
	src := newSource(120, model.FiveMinutes, model.TenMinutes)
	cfg := DefaultConfig()
	cfg.Mode = ModeWiden
	cfg.Ceiling = model.TenMinutes
	ladder, err := engine(cfg).Run(context.Background(), src, src.data[model.FiveMinutes], model.FiveMinutes)
	if err != nil {
		t.Fatal(err)
	}
	if len(ladder.Levels) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(ladder.Levels))
	}
	widened := ladder.Levels[1]
	direct, ok := strategy.AnalyzeWindow(src.data[model.TenMinutes][:4], model.TenMinutes, src.data[model.OneMinute], strategy.DefaultConfig())
	if !ok {
		t.Fatal("direct analysis failed")
	}
	pairs := [][2]model.Block{{widened.Block1, direct.Block1}, {widened.Block2, direct.Block2}}
	for i, p := range pairs {
		w, d := p[0], p[1]
		if w.High.Price != d.High.Price || !w.High.Time.Equal(d.High.Time) {
			t.Errorf("block%d high: widened %+v direct %+v", i+1, w.High, d.High)
		}
		if w.Low.Price != d.Low.Price || !w.Low.Time.Equal(d.Low.Time) {
			t.Errorf("block%d low: widened %+v direct %+v", i+1, w.Low, d.Low)
		}
	}
}
