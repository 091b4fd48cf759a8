package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	applogger "FinSignal/pkg/logger"
)

// ClickHouseSignalSchema creates the append-only signals table.
var ClickHouseSignalSchema = []string{
	`CREATE TABLE IF NOT EXISTS signals (
		id                 String,
		ts                 DateTime64(3, 'UTC'),
		symbol             LowCardinality(String),
		headline           String,
		sentiment_score    Float64,
		confidence         Float64,
		verdict            LowCardinality(String),
		status             LowCardinality(String),
		risk_level         LowCardinality(String),
		reasoning          String,
		entry_price        Decimal(18, 6),
		is_technical_check Bool
	) ENGINE = MergeTree
	ORDER BY (symbol, ts)`,
}

const chSignalColumns = `id, ts, symbol, headline, sentiment_score, confidence, verdict, status, risk_level, reasoning, entry_price, is_technical_check`

// ClickHouseSignalStore implements SignalStore backed by ClickHouse.
type ClickHouseSignalStore struct {
	db *sql.DB
	l  *applogger.Logger
}

var _ domrepo.SignalStore = (*ClickHouseSignalStore)(nil)

// NewClickHouseSignalStore creates the store over an open pool.
func NewClickHouseSignalStore(db *sql.DB, l *applogger.Logger) *ClickHouseSignalStore {
	return &ClickHouseSignalStore{db: db, l: l}
}

func (s *ClickHouseSignalStore) Init(ctx context.Context) error {
	for _, stmt := range ClickHouseSignalSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init signals table: %w", err)
		}
	}
	return nil
}

// ExistsByHeadline checks news signals only; heartbeats never take part in dedup.
func (s *ClickHouseSignalStore) ExistsByHeadline(ctx context.Context, headline string) (bool, error) {
	const q = `SELECT count() FROM signals WHERE headline = ? AND is_technical_check = false`
	var n uint64
	if err := s.db.QueryRowContext(ctx, q, headline).Scan(&n); err != nil {
		return false, fmt.Errorf("lookup headline: %w", err)
	}
	return n > 0, nil
}

// Save appends one row. Inserts go through a prepared batch so the Decimal
// and Bool columns are bound natively.
func (s *ClickHouseSignalStore) Save(ctx context.Context, sig *models.Signal) error {
	start := time.Now()
	if err := s.insert(ctx, sig); err != nil {
		s.l.Error("clickhouse save signal error",
			applogger.String("id", sig.ID),
			applogger.String("symbol", sig.Symbol),
			applogger.Error(err),
		)
		return fmt.Errorf("insert signal: %w", err)
	}
	s.l.Debug("clickhouse save signal ok",
		applogger.String("id", sig.ID),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *ClickHouseSignalStore) insert(ctx context.Context, sig *models.Signal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO signals (%s)", chSignalColumns))
	if err != nil {
		return err
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx,
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
		sig.EntryPrice,
		sig.IsTechnicalCheck,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *ClickHouseSignalStore) Recent(ctx context.Context, limit int) ([]models.Signal, error) {
	q := fmt.Sprintf("SELECT %s FROM signals ORDER BY ts DESC LIMIT ?", chSignalColumns)
	return s.query(ctx, q, limit)
}

func (s *ClickHouseSignalStore) RecentBySymbol(ctx context.Context, symbol string, limit int) ([]models.Signal, error) {
	q := fmt.Sprintf("SELECT %s FROM signals WHERE symbol = ? ORDER BY ts DESC LIMIT ?", chSignalColumns)
	return s.query(ctx, q, symbol, limit)
}

func (s *ClickHouseSignalStore) query(ctx context.Context, q string, args ...interface{}) ([]models.Signal, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	out := make([]models.Signal, 0, 64)
	for rows.Next() {
		var (
			sig             models.Signal
			verdict, status string
		)
		if err := rows.Scan(&sig.ID, &sig.Timestamp, &sig.Symbol, &sig.Headline,
			&sig.SentimentScore, &sig.Confidence, &verdict, &status,
			&sig.RiskLevel, &sig.Reasoning, &sig.EntryPrice, &sig.IsTechnicalCheck); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		sig.Verdict = models.Verdict(verdict)
		sig.Status = models.Status(status)
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *ClickHouseSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSignalStore) Close() error {
	return nil // pool owned by pkg/clickhouse
}
