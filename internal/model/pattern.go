package model

import (
	"strconv"
	"time"
)

// PriceType identifies which side of a candle an extreme was taken from.
type PriceType string

const (
	PriceHigh PriceType = "high"
	PriceLow  PriceType = "low"
)

// TrendType is the direction of a trendline.
type TrendType string

const (
	Uptrend   TrendType = "uptrend"
	Downtrend TrendType = "downtrend"
)

// Extreme is the high or low of a block together with the candle that produced it.
type Extreme struct {
	Price float64
	Time  time.Time
	Index int // position inside the block
}

// Block is a contiguous run of candles with its extremes.
type Block struct {
	Name    string
	Candles []Candle
	// Start is the index of the first candle in the source series.
	Start int
	// Split is the size of the block's first sub-half.
	Split int
	High  Extreme
	Low   Extreme
}

// Len returns the number of candles in the block.
func (b Block) Len() int { return len(b.Candles) }

// End returns the index one past the block's last candle in the source series.
func (b Block) End() int { return b.Start + len(b.Candles) }

// SubHalf returns 1 or 2 for the sub-half holding the candle at idx.
func (b Block) SubHalf(idx int) int {
	if idx < b.Split {
		return 1
	}
	return 2
}

// SplitLabel describes the sub-halves, e.g. "2+2".
func (b Block) SplitLabel() string {
	return strconv.Itoa(b.Split) + "+" + strconv.Itoa(len(b.Candles)-b.Split)
}

// ExtremePoint is Point A or Point B of a trendline.
type ExtremePoint struct {
	Price float64
	// Timestamp is the open time of the candle holding the extreme.
	Timestamp time.Time
	// ExactTime is the sub-candle time of the extreme found in finer data.
	ExactTime time.Time
	// Approximate is set when no finer candle matched the price exactly.
	Approximate bool
	SourceBlock string
	// SourceCandleIndex is the position inside SourceBlock.
	SourceCandleIndex int
	// Position is the 1-based position across block1 followed by block2.
	Position int
	// SubHalf is 1 or 2 for the sub-half of SourceBlock holding the extreme.
	SubHalf   int
	PriceType PriceType
}

// TrendlineResult is a validated two-point trendline.
type TrendlineResult struct {
	PointA          ExtremePoint
	PointB          ExtremePoint
	PriceDiff       float64
	DurationMinutes float64
	// Slope is price change per minute.
	Slope        float64
	TrendType    TrendType
	PatternLabel string
	// BreakoutLevel may come from a different point than PointB when a special rule applied.
	BreakoutLevel       float64
	BreakoutSourcePoint ExtremePoint
	// OrderTime is the earliest trade entry after the pattern completes (34% rule).
	OrderTime    time.Time
	Resolution   Resolution
	Confidence   float64
	Factors      []FactorScore
	AppliedRules []string
}

// FactorScore is one contribution to a trendline's confidence.
type FactorScore struct {
	Name       string
	Points     float64
	Commentary string
}

// Candidates holds the per-direction trendlines found in one analysis pass.
type Candidates struct {
	Up   *TrendlineResult
	Down *TrendlineResult
}

// All returns the non-nil candidates.
func (c Candidates) All() []*TrendlineResult {
	var out []*TrendlineResult
	if c.Up != nil {
		out = append(out, c.Up)
	}
	if c.Down != nil {
		out = append(out, c.Down)
	}
	return out
}
