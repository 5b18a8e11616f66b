package recorder

import "TrendSentinel/internal/backtest"

// Recorder persists backtest runs for later analysis.
type Recorder interface {
	RecordRun(res *backtest.Result) error
	Close() error
}
