package backtest

import (
	"time"

	"TrendSentinel/internal/model"
)

// Transition selects how blocks move between cycles.
type Transition string

const (
	// TransitionMerge merges block1+block2 when their counts match, otherwise
	// grows block2 by merging block3 into it.
	TransitionMerge Transition = "merge"
	// TransitionRotate slides every block one role forward.
	TransitionRotate Transition = "rotate"
)

// StopReason tells why a run ended.
type StopReason string

const (
	StopEndOfData  StopReason = "end_of_data"
	StopSafetyCap  StopReason = "safety_cap"
	StopCancelled  StopReason = "cancelled"
	StopNoData     StopReason = "no_data"
	StopSourceFail StopReason = "source_error"
)

// Config holds backtest parameters.
type Config struct {
	Resolution model.Resolution `yaml:"resolution"`
	// BlockSize is the candle count of each block in the first cycle.
	BlockSize  int        `yaml:"block_size"`
	MaxCycles  int        `yaml:"max_cycles"`
	Transition Transition `yaml:"transition"`
	// Quantity is the simulated position size per cycle.
	Quantity float64 `yaml:"quantity"`
	// SMAPeriod and RSIPeriod size the session context indicators.
	SMAPeriod int `yaml:"sma_period"`
	RSIPeriod int `yaml:"rsi_period"`
}

// DefaultConfig replays 5-minute candles starting from a 2+2 window.
func DefaultConfig() Config {
	return Config{
		Resolution: model.FiveMinutes,
		BlockSize:  2,
		MaxCycles:  200,
		Transition: TransitionMerge,
		Quantity:   1,
		SMAPeriod:  20,
		RSIPeriod:  14,
	}
}

// Result is the outcome of replaying one session.
type Result struct {
	RunID      string
	Symbol     string
	Date       time.Time
	Resolution model.Resolution
	StartedAt  time.Time
	FinishedAt time.Time
	Cycles     []model.Cycle
	Session    model.SessionStats

	Predictions   int
	DirectionHits int
	// SuccessRate is the share of predictions with the right direction, in percent.
	SuccessRate  float64
	AverageScore float64
	ProfitLoss   float64
	Trades       int
	Wins         int

	StopReason StopReason
	CapReached bool
}
