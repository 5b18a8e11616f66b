package blocks

import (
	"errors"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
)

// Mode selects which formation rules may fire.
type Mode string

const (
	// ModeAuto tries the equal-count rule and falls back when it cannot apply.
	ModeAuto       Mode = "auto"
	ModeEqualCount Mode = "equal_count"
	ModeFallback   Mode = "fallback"
)

const (
	Block1 = "block1"
	Block2 = "block2"
	Block3 = "block3"
)

// ErrNotContiguous is returned when merging blocks that do not touch.
var ErrNotContiguous = errors.New("blocks are not contiguous")

// Config holds block formation parameters.
type Config struct {
	Mode Mode `yaml:"mode"`
	// MinCandles is the smallest window that can be split.
	MinCandles int `yaml:"min_candles"`
	// FallbackBlock1 caps the first block under the fallback rule.
	FallbackBlock1 int          `yaml:"fallback_block1"`
	SpecialRules   SpecialRules `yaml:"special_rules"`
}

// DefaultConfig returns the standard 4-candle formation setup.
func DefaultConfig() Config {
	return Config{
		Mode:           ModeAuto,
		MinCandles:     4,
		FallbackBlock1: 4,
		SpecialRules:   SpecialRules{SecondToFirst: true},
	}
}

// Formation is a pair of comparison blocks and the rule that produced them.
type Formation struct {
	Rule   model.FormationRule
	Block1 model.Block
	Block2 model.Block
}

// New builds a named block over candles starting at index start of the source series.
// The block is split into two sub-halves with the extra candle in the first one.
func New(name string, candles []model.Candle, start int) model.Block {
	b := model.Block{
		Name:    name,
		Candles: candles,
		Start:   start,
		Split:   (len(candles) + 1) / 2,
	}
	if high, low, err := calculator.CandleRange(candles); err == nil {
		b.High, b.Low = high, low
	}
	return b
}

// Rename returns b under a new positional name. Extremes are unchanged.
func Rename(b model.Block, name string) model.Block {
	b.Name = name
	return b
}

// Merge joins two adjacent blocks and recomputes the extremes.
func Merge(name string, first, second model.Block) (model.Block, error) {
	if first.End() != second.Start {
		return model.Block{}, ErrNotContiguous
	}
	candles := make([]model.Candle, 0, first.Len()+second.Len())
	candles = append(candles, first.Candles...)
	candles = append(candles, second.Candles...)
	return New(name, candles, first.Start), nil
}

// Form partitions candles into block1 and block2.
//
// The equal-count rule splits an even window into two halves of floor(N/2).
// Otherwise the fallback rule gives block1 up to FallbackBlock1 candles and
// the remainder to block2. ok is false when there are fewer than MinCandles
// candles or the configured mode cannot split this count.
func Form(candles []model.Candle, cfg Config) (Formation, bool) {
	n := len(candles)
	if n < cfg.MinCandles || n < 2 {
		return Formation{}, false
	}

	if cfg.Mode != ModeFallback && n%2 == 0 {
		half := n / 2
		return Formation{
			Rule:   model.RuleEqualCount,
			Block1: New(Block1, candles[:half], 0),
			Block2: New(Block2, candles[half:], half),
		}, true
	}
	if cfg.Mode == ModeEqualCount {
		return Formation{}, false
	}

	first := cfg.FallbackBlock1
	if first > n-1 {
		first = n - 1
	}
	if first < 1 {
		first = 1
	}
	return Formation{
		Rule:   model.RuleFallback,
		Block1: New(Block1, candles[:first], 0),
		Block2: New(Block2, candles[first:], first),
	}, true
}
