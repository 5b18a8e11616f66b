package drill

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
	"TrendSentinel/internal/strategy"
)

// Mode selects the drilling direction.
type Mode string

const (
	// ModeRefine halves the resolution inside block2 of each level.
	ModeRefine Mode = "refine"
	// ModeWiden doubles the resolution by consolidating candle pairs.
	ModeWiden Mode = "widen"
	// ModeNone analyzes the base resolution only.
	ModeNone Mode = "none"
)

// Config holds drilling parameters.
type Config struct {
	Mode    Mode             `yaml:"mode"`
	Floor   model.Resolution `yaml:"floor"`
	Ceiling model.Resolution `yaml:"ceiling"`
	// MinCandles is the least number of candles a level needs.
	MinCandles int `yaml:"min_candles"`
	// WidenWait is how many candles must exist before a widening step.
	WidenWait int `yaml:"widen_wait"`
	// WidenWindow is how many of those candles form the analysis window.
	WidenWindow int `yaml:"widen_window"`
}

// DefaultConfig refines down to 5 minutes and widens up to 80 minutes.
func DefaultConfig() Config {
	return Config{
		Mode:        ModeRefine,
		Floor:       model.FiveMinutes,
		Ceiling:     model.EightyMinutes,
		MinCandles:  4,
		WidenWait:   6,
		WidenWindow: 4,
	}
}

// Source supplies the candles of one session at any resolution.
// It returns model.ErrNoData when a resolution has no candles.
type Source interface {
	Candles(ctx context.Context, res model.Resolution) ([]model.Candle, error)
}

// Engine re-derives blocks and trendlines across resolutions.
type Engine struct {
	cfg      Config
	strategy strategy.Config
	logger   zerolog.Logger
}

// NewEngine creates a drilling engine.
func NewEngine(cfg Config, scfg strategy.Config, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		strategy: scfg,
		logger:   logger.With().Str("component", "drill").Logger(),
	}
}

// Run analyzes window at res and drills according to the configured mode.
// Insufficient depth is reported in the ladder's Stop, never as an error.
func (e *Engine) Run(ctx context.Context, src Source, window []model.Candle, res model.Resolution) (model.Ladder, error) {
	if e.cfg.Mode == ModeWiden {
		return e.Widen(ctx, src, window, res)
	}
	fine, err := e.fine(ctx, src)
	if err != nil {
		return model.Ladder{}, err
	}
	first, ok := strategy.AnalyzeWindow(window, res, fine, e.strategy)
	if !ok {
		return model.Ladder{Stop: model.StopInsufficientData}, nil
	}
	e.logLevel(first)
	if e.cfg.Mode == ModeNone {
		return model.Ladder{Levels: []model.LadderLevel{first}, Stop: model.StopDisabled}, nil
	}
	return e.refine(ctx, src, first, fine)
}

// Refine continues from an already analyzed level by halving the resolution
// inside its block2 until the floor is reached or data runs out.
func (e *Engine) Refine(ctx context.Context, src Source, first model.LadderLevel) (model.Ladder, error) {
	if e.cfg.Mode != ModeRefine {
		return model.Ladder{Levels: []model.LadderLevel{first}, Stop: model.StopDisabled}, nil
	}
	fine, err := e.fine(ctx, src)
	if err != nil {
		return model.Ladder{Levels: []model.LadderLevel{first}}, err
	}
	return e.refine(ctx, src, first, fine)
}

func (e *Engine) refine(ctx context.Context, src Source, level model.LadderLevel, fine []model.Candle) (model.Ladder, error) {
	ladder := model.Ladder{Levels: []model.LadderLevel{level}}
	for {
		res := level.Resolution
		next := res / 2
		if res%2 != 0 || next < e.cfg.Floor || next < model.OneMinute {
			ladder.Stop = model.StopFloorReached
			break
		}
		finer, err := src.Candles(ctx, next)
		if errors.Is(err, model.ErrNoData) {
			ladder.Stop = model.StopInsufficientData
			break
		}
		if err != nil {
			return ladder, err
		}
		b2 := level.Block2.Candles
		span := calculator.Window(finer, b2[0].Time, b2[len(b2)-1].End(res))
		if len(span) < e.cfg.MinCandles {
			ladder.Stop = model.StopInsufficientData
			break
		}
		lv, ok := strategy.AnalyzeWindow(span, next, fine, e.strategy)
		if !ok {
			ladder.Stop = model.StopInsufficientData
			break
		}
		e.logLevel(lv)
		ladder.Levels = append(ladder.Levels, lv)
		level = lv
	}
	e.logger.Debug().Int("levels", len(ladder.Levels)).Str("stop_reason", string(ladder.Stop)).Msg("refine finished")
	return ladder, nil
}

// Widen analyzes the first WidenWindow candles once WidenWait candles exist,
// then consolidates the series to double resolution and repeats up to the ceiling.
func (e *Engine) Widen(ctx context.Context, src Source, series []model.Candle, res model.Resolution) (model.Ladder, error) {
	fine, err := e.fine(ctx, src)
	if err != nil {
		return model.Ladder{}, err
	}
	var ladder model.Ladder
	for {
		if len(series) < e.cfg.WidenWait {
			ladder.Stop = model.StopInsufficientData
			break
		}
		lv, ok := strategy.AnalyzeWindow(series[:e.cfg.WidenWindow], res, fine, e.strategy)
		if !ok {
			ladder.Stop = model.StopInsufficientData
			break
		}
		e.logLevel(lv)
		ladder.Levels = append(ladder.Levels, lv)

		next := res * 2
		if next > e.cfg.Ceiling {
			ladder.Stop = model.StopCeilingReached
			break
		}
		series = calculator.Consolidate(series)
		res = next
	}
	e.logger.Debug().Int("levels", len(ladder.Levels)).Str("stop_reason", string(ladder.Stop)).Msg("widen finished")
	return ladder, nil
}

// fine loads 1-minute candles for exact extreme times. Missing data is not an error.
func (e *Engine) fine(ctx context.Context, src Source) ([]model.Candle, error) {
	fine, err := src.Candles(ctx, model.OneMinute)
	if errors.Is(err, model.ErrNoData) {
		return nil, nil
	}
	return fine, err
}

func (e *Engine) logLevel(lv model.LadderLevel) {
	ev := e.logger.Debug().
		Str("resolution", lv.Resolution.String()).
		Str("rule", string(lv.Rule)).
		Int("block1", lv.Block1.Len()).
		Int("block2", lv.Block2.Len()).
		Str("block1_split", lv.Block1.SplitLabel()).
		Str("block2_split", lv.Block2.SplitLabel())
	if up := lv.Candidates.Up; up != nil {
		ev = ev.Str("up", up.PatternLabel).Float64("up_confidence", up.Confidence)
	}
	if down := lv.Candidates.Down; down != nil {
		ev = ev.Str("down", down.PatternLabel).Float64("down_confidence", down.Confidence)
	}
	ev.Msg("ladder level")
}
