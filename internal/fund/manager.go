package fund

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"TrendSentinel/internal/backtest"
)

// Manager books backtest results into a persistent paper account.
// An empty filePath keeps the ledger in memory only.
type Manager struct {
	mu       sync.Mutex
	state    *State
	filePath string
	logger   zerolog.Logger
}

// NewManager creates a Manager, loading or initializing state from disk.
func NewManager(filePath string, capital float64, logger zerolog.Logger) (*Manager, error) {
	state := &State{}
	if filePath != "" {
		var err error
		if state, err = LoadState(filePath); err != nil {
			return nil, err
		}
	}

	if state.Capital == 0 {
		state.Capital = capital
		state.PeakEquity = capital
	}
	if state.Symbols == nil {
		state.Symbols = make(map[string]*SymbolStats)
	}

	m := &Manager{state: state, filePath: filePath, logger: logger.With().Str("component", "fund").Logger()}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// GetState returns a copy of the current ledger state.
func (m *Manager) GetState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.state
	cp.Symbols = make(map[string]*SymbolStats, len(m.state.Symbols))
	for k, v := range m.state.Symbols {
		s := *v
		cp.Symbols[k] = &s
	}
	return cp
}

// Book adds a run's simulated profit and loss and returns the new equity.
func (m *Manager) Book(res *backtest.Result) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	pnl := decimal.NewFromFloat(res.ProfitLoss)
	m.state.RealizedPnL = decimal.NewFromFloat(m.state.RealizedPnL).Add(pnl).InexactFloat64()

	st, ok := m.state.Symbols[res.Symbol]
	if !ok {
		st = &SymbolStats{}
		m.state.Symbols[res.Symbol] = st
	}
	st.Runs++
	st.Trades += res.Trades
	st.Wins += res.Wins
	st.ProfitLoss = decimal.NewFromFloat(st.ProfitLoss).Add(pnl).InexactFloat64()
	st.LastRun = res.FinishedAt

	equity := m.state.Equity()
	if equity > m.state.PeakEquity {
		m.state.PeakEquity = equity
	}
	if dd := m.state.PeakEquity - equity; dd > m.state.MaxDrawdown {
		m.state.MaxDrawdown = dd
	}

	if err := m.save(); err != nil {
		m.logger.Error().Err(err).Msg("failed to save fund state")
	}
	return equity
}

func (m *Manager) save() error {
	if m.filePath == "" {
		return nil
	}
	return SaveState(m.filePath, m.state)
}
