package recorder

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"TrendSentinel/internal/backtest"
	"TrendSentinel/internal/model"
)

// SQLiteRecorder persists backtest runs to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			run_id         TEXT PRIMARY KEY,
			symbol         TEXT NOT NULL,
			session_date   TEXT NOT NULL,
			resolution     INTEGER NOT NULL,
			started_at     INTEGER NOT NULL,
			finished_at    INTEGER NOT NULL,
			cycles         INTEGER,
			predictions    INTEGER,
			direction_hits INTEGER,
			success_rate   REAL,
			average_score  REAL,
			profit_loss    REAL,
			trades         INTEGER,
			wins           INTEGER,
			stop_reason    TEXT,
			cap_reached    INTEGER,
			session_high   REAL,
			session_low    REAL,
			session_close  REAL,
			session_sma    REAL,
			session_rsi    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_date ON backtest_runs(symbol, session_date)`,

		`CREATE TABLE IF NOT EXISTS backtest_cycles (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL,
			cycle          INTEGER NOT NULL,
			block1_start   INTEGER,
			block1_len     INTEGER,
			block2_start   INTEGER,
			block2_len     INTEGER,
			block3_start   INTEGER,
			block3_len     INTEGER,
			trend          TEXT,
			pattern_label  TEXT,
			slope          REAL,
			confidence     REAL,
			breakout_level REAL,
			order_time     INTEGER,
			resolution     INTEGER,
			score          REAL,
			profit_loss    REAL,
			merge_action   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_run ON backtest_cycles(run_id)`,

		`CREATE TABLE IF NOT EXISTS accuracy_records (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL,
			cycle             INTEGER NOT NULL,
			target_index      INTEGER,
			target_time       INTEGER,
			predicted_open    REAL,
			predicted_high    REAL,
			predicted_low     REAL,
			predicted_close   REAL,
			actual_open       REAL,
			actual_high       REAL,
			actual_low        REAL,
			actual_close      REAL,
			confidence        REAL,
			price_error_pct   REAL,
			direction_correct INTEGER,
			overall_score     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accuracy_run ON accuracy_records(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun writes a run with its cycles and accuracy records in one transaction.
func (r *SQLiteRecorder) RecordRun(res *backtest.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	s := res.Session
	_, err = tx.Exec(`INSERT INTO backtest_runs
		(run_id, symbol, session_date, resolution, started_at, finished_at,
		 cycles, predictions, direction_hits, success_rate, average_score,
		 profit_loss, trades, wins, stop_reason, cap_reached,
		 session_high, session_low, session_close, session_sma, session_rsi)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		res.RunID, res.Symbol, res.Date.Format("2006-01-02"), int(res.Resolution),
		res.StartedAt.Unix(), res.FinishedAt.Unix(),
		len(res.Cycles), res.Predictions, res.DirectionHits, res.SuccessRate, res.AverageScore,
		res.ProfitLoss, res.Trades, res.Wins, string(res.StopReason), res.CapReached,
		s.High, s.Low, s.LastClose, s.SMA, s.RSI,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, c := range res.Cycles {
		if err := insertCycle(tx, res.RunID, c); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	r.logger.Debug().Str("run_id", res.RunID).Int("cycles", len(res.Cycles)).Msg("run recorded")
	return nil
}

func insertCycle(tx *sql.Tx, runID string, c model.Cycle) error {
	var (
		trend, label          string
		slope, conf, breakout float64
		orderTime             int64
		resolution            int
	)
	if w := c.Winner; w != nil {
		trend, label = string(w.TrendType), w.PatternLabel
		slope, conf, breakout = w.Slope, w.Confidence, w.BreakoutLevel
		orderTime, resolution = w.OrderTime.Unix(), int(w.Resolution)
	}
	_, err := tx.Exec(`INSERT INTO backtest_cycles
		(run_id, cycle, block1_start, block1_len, block2_start, block2_len, block3_start, block3_len,
		 trend, pattern_label, slope, confidence, breakout_level, order_time, resolution,
		 score, profit_loss, merge_action)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		runID, c.Number, c.Block1.Start, c.Block1.Len(), c.Block2.Start, c.Block2.Len(),
		c.Block3.Start, c.Block3.Len(),
		trend, label, slope, conf, breakout, orderTime, resolution,
		c.Score, c.ProfitLoss, string(c.MergeAction),
	)
	if err != nil {
		return fmt.Errorf("insert cycle %d: %w", c.Number, err)
	}

	for _, a := range c.Accuracy {
		p := a.Predicted
		_, err := tx.Exec(`INSERT INTO accuracy_records
			(run_id, cycle, target_index, target_time,
			 predicted_open, predicted_high, predicted_low, predicted_close,
			 actual_open, actual_high, actual_low, actual_close,
			 confidence, price_error_pct, direction_correct, overall_score)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			runID, c.Number, p.TargetCandleIndex, p.Time.Unix(),
			p.PredictedOpen, p.PredictedHigh, p.PredictedLow, p.PredictedClose,
			a.Actual.Open, a.Actual.High, a.Actual.Low, a.Actual.Close,
			p.Confidence, a.PriceErrorPct, a.DirectionCorrect, a.OverallScore,
		)
		if err != nil {
			return fmt.Errorf("insert accuracy for cycle %d: %w", c.Number, err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
