package fund

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"TrendSentinel/internal/backtest"
)

func TestManager_Book(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fund.json")
	m, err := NewManager(path, 1000, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	if eq := m.Book(&backtest.Result{Symbol: "NIFTY", ProfitLoss: 12.5, Trades: 3, Wins: 2}); eq != 1012.5 {
		t.Errorf("equity = %v", eq)
	}
	if eq := m.Book(&backtest.Result{Symbol: "NIFTY", ProfitLoss: -20}); eq != 992.5 {
		t.Errorf("equity = %v", eq)
	}
	m.Book(&backtest.Result{Symbol: "BANKNIFTY", ProfitLoss: 0.1})

	st := m.GetState()
	if st.PeakEquity != 1012.5 || st.MaxDrawdown != 20 {
		t.Errorf("peak = %v drawdown = %v", st.PeakEquity, st.MaxDrawdown)
	}
	n := st.Symbols["NIFTY"]
	if n.Runs != 2 || n.Trades != 3 || n.Wins != 2 || n.ProfitLoss != -7.5 {
		t.Errorf("NIFTY stats = %+v", n)
	}

	reloaded, err := NewManager(path, 5000, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	got := reloaded.GetState()
	if got.Capital != 1000 || got.Equity() != 992.6 || len(got.Symbols) != 2 {
		t.Errorf("reloaded state = %+v", got)
	}
}

func TestManager_InMemory(t *testing.T) {
	m, err := NewManager("", 100, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	m.Book(&backtest.Result{Symbol: "X", ProfitLoss: 1})
	if m.GetState().Equity() != 101 {
		t.Errorf("equity = %v", m.GetState().Equity())
	}
}
