package fund

import (
	"encoding/json"
	"os"
	"time"
)

// SymbolStats accumulates the simulated results of one symbol.
type SymbolStats struct {
	Runs       int       `json:"runs"`
	Trades     int       `json:"trades"`
	Wins       int       `json:"wins"`
	ProfitLoss float64   `json:"profit_loss"`
	LastRun    time.Time `json:"last_run"`
}

// State is the paper trading account fed by backtest runs.
type State struct {
	Capital     float64                 `json:"capital"`
	RealizedPnL float64                 `json:"realized_pnl"`
	PeakEquity  float64                 `json:"peak_equity"`
	MaxDrawdown float64                 `json:"max_drawdown"`
	Symbols     map[string]*SymbolStats `json:"symbols"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// Equity is capital plus realized profit and loss.
func (s State) Equity() float64 { return s.Capital + s.RealizedPnL }

// LoadState reads the ledger state from a JSON file. Returns a zero state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the ledger state to a JSON file.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
