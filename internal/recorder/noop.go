package recorder

import "TrendSentinel/internal/backtest"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *backtest.Result) error { return nil }
func (n *NoopRecorder) Close() error                       { return nil }
