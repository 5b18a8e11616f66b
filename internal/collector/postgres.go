package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"TrendSentinel/internal/model"
)

// PostgresStore keeps candle history in PostgreSQL. It is a Fetcher over
// stored sessions and can archive candles pulled from another source.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) Close() { s.pool.Close() }

// Migrate creates the candles table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS candles (
			symbol      TEXT NOT NULL,
			resolution  INTEGER NOT NULL,
			ts          TIMESTAMPTZ NOT NULL,
			open        DOUBLE PRECISION NOT NULL,
			high        DOUBLE PRECISION NOT NULL,
			low         DOUBLE PRECISION NOT NULL,
			close       DOUBLE PRECISION NOT NULL,
			volume      DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (symbol, resolution, ts)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_candles_lookup ON candles(symbol, resolution, ts)`,
	}
	for _, m := range migrations {
		if _, err := s.pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) FetchCandles(ctx context.Context, symbol string, date time.Time, res model.Resolution) ([]model.Candle, error) {
	day := SessionDay(date)
	rows, err := s.pool.Query(ctx, `
		SELECT ts, open, high, low, close, volume FROM candles
		WHERE symbol = $1 AND resolution = $2 AND ts >= $3 AND ts < $4
		ORDER BY ts`,
		symbol, int(res), day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	candles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Candle, error) {
		var c model.Candle
		err := row.Scan(&c.Time, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan candles: %w", err)
	}
	if len(candles) == 0 {
		return nil, ErrNoData
	}
	return candles, nil
}

// SaveCandles upserts candles in one batch.
func (s *PostgresStore) SaveCandles(ctx context.Context, symbol string, res model.Resolution, candles []model.Candle) error {
	batch := &pgx.Batch{}
	for _, c := range candles {
		batch.Queue(`
			INSERT INTO candles (symbol, resolution, ts, open, high, low, close, volume)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (symbol, resolution, ts) DO UPDATE SET
				open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
				close = EXCLUDED.close, volume = EXCLUDED.volume`,
			symbol, int(res), c.Time, c.Open, c.High, c.Low, c.Close, c.Volume)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save candles: %w", err)
	}
	return nil
}

// CandleStore is the storage side of an Archive.
type CandleStore interface {
	Fetcher
	SaveCandles(ctx context.Context, symbol string, res model.Resolution, candles []model.Candle) error
}

// Archive reads from a store first and fills it from a live source on a miss.
type Archive struct {
	store  CandleStore
	source Fetcher
	logger zerolog.Logger
}

func NewArchive(store CandleStore, source Fetcher, logger zerolog.Logger) *Archive {
	return &Archive{
		store:  store,
		source: source,
		logger: logger.With().Str("component", "archive").Logger(),
	}
}

func (a *Archive) Name() string { return a.store.Name() + "+" + a.source.Name() }

func (a *Archive) FetchCandles(ctx context.Context, symbol string, date time.Time, res model.Resolution) ([]model.Candle, error) {
	candles, err := a.store.FetchCandles(ctx, symbol, date, res)
	if err == nil {
		return candles, nil
	}
	if !errors.Is(err, ErrNoData) {
		a.logger.Warn().Err(err).Str("symbol", symbol).Msg("store read failed, using live source")
	}
	candles, err = a.source.FetchCandles(ctx, symbol, date, res)
	if err != nil {
		return nil, err
	}
	if err := a.store.SaveCandles(ctx, symbol, res, candles); err != nil {
		a.logger.Warn().Err(err).Str("symbol", symbol).Str("resolution", res.String()).Msg("archive write failed")
	}
	return candles, nil
}
