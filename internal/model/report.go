package model

// DrillStop tells why a drilling ladder ended.
type DrillStop string

const (
	StopFloorReached     DrillStop = "floor_reached"
	StopCeilingReached   DrillStop = "ceiling_reached"
	StopInsufficientData DrillStop = "insufficient_data"
	StopDisabled         DrillStop = "disabled"
)

// FormationRule names the block formation rule that produced a pair of blocks.
type FormationRule string

const (
	RuleEqualCount FormationRule = "equal_count"
	RuleFallback   FormationRule = "fallback"
	RuleSupplied   FormationRule = "supplied"
)

// LadderLevel is the analysis of one resolution inside a drilling ladder.
type LadderLevel struct {
	Resolution Resolution
	Rule       FormationRule
	Block1     Block
	Block2     Block
	Candidates Candidates
}

// Ladder is the per-resolution result of recursive drilling.
type Ladder struct {
	Levels []LadderLevel
	Stop   DrillStop
}

// Trendlines returns every candidate in the ladder for the given direction.
func (l Ladder) Trendlines(trend TrendType) []*TrendlineResult {
	var out []*TrendlineResult
	for _, lv := range l.Levels {
		switch {
		case trend == Uptrend && lv.Candidates.Up != nil:
			out = append(out, lv.Candidates.Up)
		case trend == Downtrend && lv.Candidates.Down != nil:
			out = append(out, lv.Candidates.Down)
		}
	}
	return out
}

// Report is the outcome of analyzing one candle window.
type Report struct {
	Resolution  Resolution
	Ladder      Ladder
	UpWinner    *TrendlineResult
	DownWinner  *TrendlineResult
	Winner      *TrendlineResult
	Predictions []Prediction
}

// HasPattern reports whether any tradeable trendline was found.
func (r *Report) HasPattern() bool {
	return r != nil && r.Winner != nil
}
