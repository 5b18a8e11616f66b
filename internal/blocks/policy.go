package blocks

import "TrendSentinel/internal/model"

// SpecialRules toggles the named point adjustments.
type SpecialRules struct {
	SecondToFirst bool `yaml:"second_to_first"`
}

// RuleSecondToFirst is the name recorded on trendlines adjusted by SecondToFirst.
const RuleSecondToFirst = "a2_b1_to_b2"

// Policy re-points the slope-defining Point B. aIndex and bIndex are positions
// inside block1 and block2. It returns the new index of Point B in block2 and
// whether the policy applied. The breakout level is never moved by a policy.
type Policy struct {
	Name  string
	Apply func(aIndex, bIndex int, block2 model.Block) (int, bool)
}

// SecondToFirst moves Point B from block2's first candle to its second candle
// when Point A sits on block1's second candle.
func SecondToFirst(aIndex, bIndex int, block2 model.Block) (int, bool) {
	if aIndex == 1 && bIndex == 0 && block2.Len() >= 2 {
		return 1, true
	}
	return bIndex, false
}

// Policies returns the enabled policies in application order.
func (r SpecialRules) Policies() []Policy {
	var out []Policy
	if r.SecondToFirst {
		out = append(out, Policy{Name: RuleSecondToFirst, Apply: SecondToFirst})
	}
	return out
}
