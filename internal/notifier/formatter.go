package notifier

import (
	"fmt"
	"sort"
	"strings"

	"TrendSentinel/internal/backtest"
	"TrendSentinel/internal/fund"
	"TrendSentinel/internal/model"
)

// FormatBacktestSummary formats a finished backtest run into a Telegram message.
func FormatBacktestSummary(res *backtest.Result) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s backtest</b> | %s | %s\n\n", res.Symbol, res.Date.Format("2006-01-02"), res.Resolution))

	s := res.Session
	if s.Candles > 0 {
		b.WriteString(fmt.Sprintf("Session: O %.2f H %.2f L %.2f C %.2f\n", s.Open, s.High, s.Low, s.LastClose))
		b.WriteString(fmt.Sprintf("SMA: %.2f | RSI: %.1f | range position: %.0f%%\n\n", s.SMA, s.RSI, s.RangePosition*100))
	}

	b.WriteString("📈 <b>Results:</b>\n")
	b.WriteString(fmt.Sprintf("  Cycles: %d (%s)\n", len(res.Cycles), stopText(res)))
	b.WriteString(fmt.Sprintf("  Predictions: %d | direction hits: %d\n", res.Predictions, res.DirectionHits))
	b.WriteString(fmt.Sprintf("  Success rate: %.1f%% | avg score: %.1f\n", res.SuccessRate, res.AverageScore))
	b.WriteString(fmt.Sprintf("  Trades: %d | wins: %d\n", res.Trades, res.Wins))
	b.WriteString(fmt.Sprintf("  P/L: %+.2f\n", res.ProfitLoss))

	if best := bestCycle(res.Cycles); best != nil {
		w := best.Winner
		b.WriteString(fmt.Sprintf("\n🏆 Best cycle #%d: %s %s @ %s, conf %.0f, score %.1f\n",
			best.Number, w.TrendType, w.PatternLabel, w.Resolution, w.Confidence, best.Score))
	}
	return b.String()
}

func stopText(res *backtest.Result) string {
	if res.CapReached {
		return "⚠️ cycle cap reached"
	}
	return string(res.StopReason)
}

func bestCycle(cycles []model.Cycle) *model.Cycle {
	var best *model.Cycle
	for i := range cycles {
		c := &cycles[i]
		if c.Winner == nil || len(c.Accuracy) == 0 {
			continue
		}
		if best == nil || c.Score > best.Score {
			best = c
		}
	}
	return best
}

// FormatFundStatus formats the paper account for display.
func FormatFundStatus(state fund.State) string {
	var b strings.Builder
	b.WriteString("📦 <b>Paper account</b>\n\n")
	b.WriteString(fmt.Sprintf("Capital: %.2f\n", state.Capital))
	b.WriteString(fmt.Sprintf("Equity: %.2f (P/L %+.2f)\n", state.Equity(), state.RealizedPnL))
	b.WriteString(fmt.Sprintf("Max drawdown: %.2f\n", state.MaxDrawdown))

	symbols := make([]string, 0, len(state.Symbols))
	for s := range state.Symbols {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		st := state.Symbols[sym]
		b.WriteString(fmt.Sprintf("  %s: %d runs, %d/%d wins, P/L %+.2f\n", sym, st.Runs, st.Wins, st.Trades, st.ProfitLoss))
	}
	if !state.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Updated: %s\n", state.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}
