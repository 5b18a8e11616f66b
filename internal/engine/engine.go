package engine

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"TrendSentinel/internal/drill"
	"TrendSentinel/internal/model"
	"TrendSentinel/internal/predictor"
	"TrendSentinel/internal/strategy"
)

// Config bundles the pipeline stages.
type Config struct {
	Strategy  strategy.Config  `yaml:"strategy"`
	Drill     drill.Config     `yaml:"drill"`
	Predictor predictor.Config `yaml:"predictor"`
}

// DefaultConfig returns the default pipeline.
func DefaultConfig() Config {
	return Config{
		Strategy:  strategy.DefaultConfig(),
		Drill:     drill.DefaultConfig(),
		Predictor: predictor.DefaultConfig(),
	}
}

// Engine runs block formation, trendline extraction, drilling, selection and
// prediction over one window. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	cfg    Config
	drill  *drill.Engine
	logger zerolog.Logger
}

// New creates an Engine.
func New(cfg Config, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		drill:  drill.NewEngine(cfg.Drill, cfg.Strategy, logger),
		logger: logger.With().Str("component", "engine").Logger(),
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Analyze runs the full pipeline over window at res. window[0] sits at
// startIndex of the session series. A report without a winner is a normal
// outcome; errors come only from the candle source.
func (e *Engine) Analyze(ctx context.Context, src drill.Source, window []model.Candle, res model.Resolution, startIndex int) (*model.Report, error) {
	ladder, err := e.drill.Run(ctx, src, window, res)
	if err != nil {
		return nil, err
	}
	return e.report(ladder, res, startIndex), nil
}

// AnalyzeBlocks runs the pipeline on blocks already formed by the caller.
func (e *Engine) AnalyzeBlocks(ctx context.Context, src drill.Source, b1, b2 model.Block, res model.Resolution) (*model.Report, error) {
	fine, err := src.Candles(ctx, model.OneMinute)
	if err != nil && !errors.Is(err, model.ErrNoData) {
		return nil, err
	}
	first := model.LadderLevel{
		Resolution: res,
		Rule:       model.RuleSupplied,
		Block1:     b1,
		Block2:     b2,
		Candidates: strategy.Analyze(b1, b2, res, fine, e.cfg.Strategy),
	}
	ladder, err := e.drill.Refine(ctx, src, first)
	if err != nil {
		return nil, err
	}
	return e.report(ladder, res, 0), nil
}

func (e *Engine) report(ladder model.Ladder, res model.Resolution, startIndex int) *model.Report {
	s := e.cfg.Strategy.Scoring
	r := &model.Report{
		Resolution: res,
		Ladder:     ladder,
		UpWinner:   strategy.Select(ladder.Trendlines(model.Uptrend), s),
		DownWinner: strategy.Select(ladder.Trendlines(model.Downtrend), s),
	}
	r.Winner = strategy.Select([]*model.TrendlineResult{r.UpWinner, r.DownWinner}, s)
	if r.Winner == nil || len(ladder.Levels) == 0 {
		e.logger.Debug().Str("resolution", res.String()).Str("stop_reason", string(ladder.Stop)).Msg("no pattern")
		return r
	}

	// Predictions continue the base level, right after its block2.
	base := ladder.Levels[0]
	b2 := base.Block2
	last := b2.Candles[b2.Len()-1]
	r.Predictions = predictor.Predict(predictor.Request{
		Trendline:      r.Winner,
		Resolution:     base.Resolution,
		Anchor:         last.End(base.Resolution),
		AnchorIndex:    startIndex + b2.End(),
		ReferenceClose: last.Close,
	}, e.cfg.Predictor, s)

	e.logger.Debug().
		Str("trend", string(r.Winner.TrendType)).
		Str("label", r.Winner.PatternLabel).
		Str("winner_resolution", r.Winner.Resolution.String()).
		Float64("confidence", r.Winner.Confidence).
		Float64("breakout", r.Winner.BreakoutLevel).
		Time("order_time", r.Winner.OrderTime).
		Msg("pattern selected")
	return r
}
