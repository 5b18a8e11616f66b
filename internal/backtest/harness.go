package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"TrendSentinel/internal/blocks"
	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/drill"
	"TrendSentinel/internal/engine"
	"TrendSentinel/internal/model"
	"TrendSentinel/internal/predictor"
)

// Harness replays historical sessions cycle by cycle. Cycles of one run are
// sequential; separate runs share nothing and may run concurrently.
type Harness struct {
	engine *engine.Engine
	cfg    Config
	logger zerolog.Logger
}

// NewHarness creates a backtest harness.
func NewHarness(eng *engine.Engine, cfg Config, logger zerolog.Logger) *Harness {
	return &Harness{
		engine: eng,
		cfg:    cfg,
		logger: logger.With().Str("component", "backtest").Logger(),
	}
}

type state struct {
	b1, b2, b3 model.Block
}

// Run replays the session served by src. Running out of candles, hitting the
// cycle cap or ctx cancellation end the run with a partial result and no error.
// Only source failures return an error, together with the cycles completed so far.
func (h *Harness) Run(ctx context.Context, src drill.Source, symbol string, date time.Time) (*Result, error) {
	res := &Result{
		RunID:      uuid.NewString(),
		Symbol:     symbol,
		Date:       date,
		Resolution: h.cfg.Resolution,
		StartedAt:  time.Now(),
	}
	log := h.logger.With().Str("run_id", res.RunID).Str("symbol", symbol).Logger()
	defer func() { res.FinishedAt = time.Now() }()

	series, err := src.Candles(ctx, h.cfg.Resolution)
	if errors.Is(err, model.ErrNoData) {
		res.StopReason = StopNoData
		log.Info().Msg("no candles for session")
		return res, nil
	}
	if err != nil {
		res.StopReason = StopSourceFail
		return res, fmt.Errorf("load %s candles: %w", h.cfg.Resolution, err)
	}

	if res.Session, err = calculator.SessionStats(series, h.cfg.SMAPeriod, h.cfg.RSIPeriod); err != nil {
		log.Warn().Err(err).Msg("session stats unavailable")
	}

	st, ok := initial(series, h.cfg.BlockSize)
	if !ok {
		res.StopReason = StopEndOfData
		log.Info().Int("candles", len(series)).Msg("not enough candles for one cycle")
		return res, nil
	}

	total := decimal.Zero
	for n := 1; ; n++ {
		if ctx.Err() != nil {
			res.StopReason = StopCancelled
			break
		}
		if h.cfg.MaxCycles > 0 && n > h.cfg.MaxCycles {
			res.StopReason = StopSafetyCap
			res.CapReached = true
			log.Warn().Int("max_cycles", h.cfg.MaxCycles).Msg("cycle cap reached")
			break
		}

		rep, err := h.engine.AnalyzeBlocks(ctx, src, st.b1, st.b2, h.cfg.Resolution)
		if err != nil {
			res.StopReason = StopSourceFail
			h.summarize(res, total)
			return res, fmt.Errorf("cycle %d: %w", n, err)
		}
		cycle, pnl := h.evaluate(n, st, rep)

		next, action, more := h.transition(series, st)
		cycle.MergeAction = action
		if !more {
			cycle.MergeAction = model.Final
		}
		res.Cycles = append(res.Cycles, cycle)
		total = total.Add(pnl)

		log.Debug().
			Int("cycle", n).
			Int("block1", st.b1.Len()).
			Int("block2", st.b2.Len()).
			Int("block3", st.b3.Len()).
			Float64("score", cycle.Score).
			Float64("profit_loss", cycle.ProfitLoss).
			Str("merge_action", string(cycle.MergeAction)).
			Msg("cycle complete")

		if !more {
			res.StopReason = StopEndOfData
			break
		}
		st = next
	}

	h.summarize(res, total)
	log.Info().
		Int("cycles", len(res.Cycles)).
		Int("predictions", res.Predictions).
		Float64("success_rate", res.SuccessRate).
		Float64("profit_loss", res.ProfitLoss).
		Str("stop_reason", string(res.StopReason)).
		Msg("backtest finished")
	return res, nil
}

func initial(series []model.Candle, size int) (state, bool) {
	if size < 1 || len(series) < 3*size {
		return state{}, false
	}
	return state{
		b1: blocks.New(blocks.Block1, series[:size], 0),
		b2: blocks.New(blocks.Block2, series[size:2*size], size),
		b3: blocks.New(blocks.Block3, series[2*size:3*size], 2*size),
	}, true
}

// transition computes the next cycle's blocks. Candles only ever move toward
// block1, and every block3 is taken from candles no earlier cycle has seen.
func (h *Harness) transition(series []model.Candle, st state) (state, model.MergeAction, bool) {
	var next state
	var action model.MergeAction
	var err error

	switch {
	case h.cfg.Transition == TransitionRotate:
		action = model.Rotate
		next.b1 = blocks.Rename(st.b2, blocks.Block1)
		next.b2 = blocks.Rename(st.b3, blocks.Block2)
	case st.b1.Len() == st.b2.Len():
		action = model.MergeBlocks12
		next.b1, err = blocks.Merge(blocks.Block1, st.b1, st.b2)
		next.b2 = blocks.Rename(st.b3, blocks.Block2)
	default:
		action = model.MergeBlocks23
		next.b1 = st.b1
		next.b2, err = blocks.Merge(blocks.Block2, st.b2, st.b3)
	}
	if err != nil {
		return state{}, action, false
	}

	start, size := next.b2.End(), next.b2.Len()
	if start+size > len(series) {
		return state{}, action, false
	}
	next.b3 = blocks.New(blocks.Block3, series[start:start+size], start)
	return next, action, true
}

// evaluate scores the cycle's predictions against block3 and books the simulated trade.
func (h *Harness) evaluate(n int, st state, rep *model.Report) (model.Cycle, decimal.Decimal) {
	cycle := model.Cycle{
		Number: n,
		Block1: st.b1,
		Block2: st.b2,
		Block3: st.b3,
		Winner: rep.Winner,
	}
	if len(rep.Ladder.Levels) > 0 {
		cycle.Trendlines = rep.Ladder.Levels[0].Candidates
	}
	if rep.Winner == nil {
		return cycle, decimal.Zero
	}

	acc := h.engine.Config().Predictor.Accuracy
	for i, p := range rep.Predictions {
		if i >= st.b3.Len() {
			break
		}
		cycle.Predictions = append(cycle.Predictions, p)
		cycle.Accuracy = append(cycle.Accuracy, predictor.Evaluate(p, st.b3.Candles[i], acc))
	}
	if len(cycle.Accuracy) > 0 {
		sum := 0.0
		for _, a := range cycle.Accuracy {
			sum += a.OverallScore
		}
		cycle.Score = sum / float64(len(cycle.Accuracy))
	}

	entry := decimal.NewFromFloat(st.b2.Candles[st.b2.Len()-1].Close)
	exit := decimal.NewFromFloat(st.b3.Candles[st.b3.Len()-1].Close)
	pnl := exit.Sub(entry).Mul(decimal.NewFromFloat(h.cfg.Quantity))
	if rep.Winner.TrendType == model.Downtrend {
		pnl = pnl.Neg()
	}
	cycle.ProfitLoss = pnl.InexactFloat64()
	return cycle, pnl
}

func (h *Harness) summarize(res *Result, total decimal.Decimal) {
	res.Predictions, res.DirectionHits, res.Trades, res.Wins = 0, 0, 0, 0
	scoreSum := 0.0
	for _, c := range res.Cycles {
		for _, a := range c.Accuracy {
			res.Predictions++
			scoreSum += a.OverallScore
			if a.DirectionCorrect {
				res.DirectionHits++
			}
		}
		if c.Winner != nil {
			res.Trades++
			if c.ProfitLoss > 0 {
				res.Wins++
			}
		}
	}
	if res.Predictions > 0 {
		res.SuccessRate = float64(res.DirectionHits) / float64(res.Predictions) * 100
		res.AverageScore = scoreSum / float64(res.Predictions)
	}
	res.ProfitLoss = total.InexactFloat64()
}
