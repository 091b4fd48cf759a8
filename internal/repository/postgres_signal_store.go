package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	"FinSignal/pkg/postgres"
)

// PostgresSignalSchema creates the signals table. The partial unique index
// enforces headline dedup for news signals only.
var PostgresSignalSchema = []string{
	`CREATE TABLE IF NOT EXISTS signals (
		id                 UUID PRIMARY KEY,
		ts                 TIMESTAMPTZ NOT NULL,
		symbol             TEXT NOT NULL,
		headline           TEXT NOT NULL,
		sentiment_score    DOUBLE PRECISION NOT NULL,
		confidence         DOUBLE PRECISION NOT NULL,
		verdict            TEXT NOT NULL,
		status             TEXT NOT NULL,
		risk_level         TEXT NOT NULL DEFAULT '',
		reasoning          TEXT NOT NULL DEFAULT '',
		entry_price        NUMERIC(18, 6) NOT NULL,
		is_technical_check BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS signals_headline_uniq ON signals (headline) WHERE NOT is_technical_check`,
	`CREATE INDEX IF NOT EXISTS signals_symbol_ts_idx ON signals (symbol, ts DESC)`,
	`CREATE INDEX IF NOT EXISTS signals_ts_idx ON signals (ts DESC)`,
}

const (
	pgSignalColumns = `id, ts, symbol, headline, sentiment_score, confidence, verdict, status, risk_level, reasoning, entry_price, is_technical_check`
	pgSignalSelect  = `id::text, ts, symbol, headline, sentiment_score, confidence, verdict, status, risk_level, reasoning, entry_price::text, is_technical_check`
)

// PostgresSignalStore implements SignalStore backed by PostgreSQL.
type PostgresSignalStore struct {
	pool *pgxpool.Pool
}

var _ domrepo.SignalStore = (*PostgresSignalStore)(nil)

// NewPostgresSignalStore creates the store over an open pool.
func NewPostgresSignalStore(pool *postgres.Pool) *PostgresSignalStore {
	return &PostgresSignalStore{pool: pool.Pool}
}

func (s *PostgresSignalStore) Init(ctx context.Context) error {
	for _, stmt := range PostgresSignalSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init signals table: %w", err)
		}
	}
	return nil
}

func (s *PostgresSignalStore) ExistsByHeadline(ctx context.Context, headline string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM signals WHERE headline = $1 AND NOT is_technical_check)`
	var exists bool
	if err := s.pool.QueryRow(ctx, q, headline).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup headline: %w", err)
	}
	return exists, nil
}

// Save inserts a signal. A news headline that is already stored yields
// ErrDuplicateSignal.
func (s *PostgresSignalStore) Save(ctx context.Context, sig *models.Signal) error {
	q := fmt.Sprintf(`INSERT INTO signals (%s)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::numeric, $12)
		ON CONFLICT DO NOTHING`, pgSignalColumns)
	tag, err := s.pool.Exec(ctx, q,
		sig.ID,
		sig.Timestamp.UTC(),
		sig.Symbol,
		sig.Headline,
		sig.SentimentScore,
		sig.Confidence,
		string(sig.Verdict),
		string(sig.Status),
		sig.RiskLevel,
		sig.Reasoning,
		sig.EntryPrice.String(),
		sig.IsTechnicalCheck,
	)
	if err != nil {
		if postgres.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert signal: %w", models.ErrDuplicateSignal)
		}
		return fmt.Errorf("insert signal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("insert signal: %w", models.ErrDuplicateSignal)
	}
	return nil
}

func (s *PostgresSignalStore) Recent(ctx context.Context, limit int) ([]models.Signal, error) {
	q := fmt.Sprintf(`SELECT %s FROM signals ORDER BY ts DESC LIMIT $1`, pgSignalSelect)
	return s.query(ctx, q, limit)
}

func (s *PostgresSignalStore) RecentBySymbol(ctx context.Context, symbol string, limit int) ([]models.Signal, error) {
	q := fmt.Sprintf(`SELECT %s FROM signals WHERE symbol = $1 ORDER BY ts DESC LIMIT $2`, pgSignalSelect)
	return s.query(ctx, q, symbol, limit)
}

func (s *PostgresSignalStore) query(ctx context.Context, q string, args ...interface{}) ([]models.Signal, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	sigs, err := pgx.CollectRows(rows, scanPostgresSignal)
	if err != nil {
		return nil, fmt.Errorf("scan signals: %w", err)
	}
	return sigs, nil
}

func scanPostgresSignal(row pgx.CollectableRow) (models.Signal, error) {
	var (
		sig             models.Signal
		verdict, status string
		price           string
	)
	err := row.Scan(&sig.ID, &sig.Timestamp, &sig.Symbol, &sig.Headline,
		&sig.SentimentScore, &sig.Confidence, &verdict, &status,
		&sig.RiskLevel, &sig.Reasoning, &price, &sig.IsTechnicalCheck)
	if err != nil {
		return models.Signal{}, err
	}
	sig.Verdict = models.Verdict(verdict)
	sig.Status = models.Status(status)
	sig.Timestamp = sig.Timestamp.UTC()
	if sig.EntryPrice, err = decimal.NewFromString(price); err != nil {
		return models.Signal{}, fmt.Errorf("entry price %q: %w", price, err)
	}
	return sig, nil
}

func (s *PostgresSignalStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresSignalStore) Close() error {
	return nil // pool owned by pkg/postgres
}
