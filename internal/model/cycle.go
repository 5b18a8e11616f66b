package model

// MergeAction is the transition applied after a backtest cycle.
type MergeAction string

const (
	// MergeBlocks12 merges block1+block2 into the next block1 and promotes block3.
	MergeBlocks12 MergeAction = "merge_1_2"
	// MergeBlocks23 keeps block1 and merges block2+block3 into the next block2.
	MergeBlocks23 MergeAction = "merge_2_3"
	// Rotate slides every block one role forward.
	Rotate MergeAction = "rotate"
	// Final marks the last cycle of a run.
	Final MergeAction = "final"
)

// Cycle is one block1/block2/block3 iteration of a backtest.
type Cycle struct {
	Number      int
	Block1      Block
	Block2      Block
	Block3      Block
	Trendlines  Candidates
	Winner      *TrendlineResult
	Predictions []Prediction
	Accuracy    []AccuracyRecord
	// Score is the mean OverallScore of the cycle's accuracy records.
	Score       float64
	ProfitLoss  float64
	MergeAction MergeAction
}
