package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
	applogger "StockSignal/pkg/logger"
)

const (
	SourceClickHouse = "clickhouse"
	SourceSQLite     = "sqlite"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLBarStore reads daily bars from a SQL table with columns
// (symbol, ts, open, high, low, close, volume). It serves both the ClickHouse and
// SQLite providers; both drivers accept ? placeholders.
type SQLBarStore struct {
	db     *sql.DB
	table  string
	source string
	now    func() time.Time
	l      *applogger.Logger
}

var _ domrepo.BarSource = (*SQLBarStore)(nil)

// NewSQLBarStore validates table and returns a store named source.
func NewSQLBarStore(db *sql.DB, table, source string) (*SQLBarStore, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SQLBarStore{db: db, table: table, source: source, now: time.Now}, nil
}

// SetLogger injects a structured logger.
func (s *SQLBarStore) SetLogger(l *applogger.Logger) { s.l = l }

// SetClock overrides the time source for the lookback window.
func (s *SQLBarStore) SetClock(now func() time.Time) { s.now = now }

func (s *SQLBarStore) Name() string { return s.source }

// FetchDailyBars returns stored bars of the trailing `days` calendar days. A symbol with no
// rows at all is reported as models.ErrSymbolNotFound.
func (s *SQLBarStore) FetchDailyBars(ctx context.Context, symbol string, days int) (models.Series, error) {
	start := time.Now()
	series := models.Series{Symbol: symbol}
	to := s.now().UTC()
	from := to.AddDate(0, 0, -days)

	bars, err := s.queryBars(ctx, symbol, from, to)
	if err != nil {
		return series, &models.UpstreamFetchError{Source: s.source, Symbol: symbol, Err: err}
	}
	series.Bars = bars

	if len(series.Bars) == 0 {
		known, err := s.hasSymbol(ctx, symbol)
		if err != nil {
			return series, &models.UpstreamFetchError{Source: s.source, Symbol: symbol, Err: err}
		}
		if !known {
			return series, models.ErrSymbolNotFound
		}
	}

	series.Normalize()
	if s.l != nil {
		s.l.Debug("bar store fetch ok",
			applogger.String("source", s.source),
			applogger.String("table", s.table),
			applogger.String("symbol", symbol),
			applogger.Int("rows", series.Len()),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return series, nil
}

func (s *SQLBarStore) queryBars(ctx context.Context, symbol string, from, to time.Time) ([]models.Bar, error) {
	q := fmt.Sprintf(`
        SELECT ts, open, high, low, close, volume
        FROM %s
        WHERE symbol = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		s.logError("query", symbol, err)
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var out []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			s.logError("scan", symbol, err)
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		s.logError("rows", symbol, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *SQLBarStore) hasSymbol(ctx context.Context, symbol string) (bool, error) {
	q := fmt.Sprintf("SELECT count(*) FROM %s WHERE symbol = ?", s.table)
	var n int64
	if err := s.db.QueryRowContext(ctx, q, symbol).Scan(&n); err != nil {
		return false, fmt.Errorf("count bars: %w", err)
	}
	return n > 0, nil
}

// StoreBars writes bars in one transaction. SQLite replaces rows with the same key;
// ClickHouse collapses them on merge.
func (s *SQLBarStore) StoreBars(ctx context.Context, symbol string, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	verb := "INSERT INTO"
	if s.source == SourceSQLite {
		verb = "INSERT OR REPLACE INTO"
	}
	q := fmt.Sprintf("%s %s (symbol, ts, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?)", verb, s.table)
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, b.Time.UTC(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert bar: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLBarStore) logError(stage, symbol string, err error) {
	if s.l == nil {
		return
	}
	s.l.Error("bar store "+stage+" error",
		applogger.String("source", s.source),
		applogger.String("table", s.table),
		applogger.String("symbol", symbol),
		applogger.Error(err),
	)
}

// ClickHouseSchema returns the DDL for a daily bar table.
func ClickHouseSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.%s (symbol LowCardinality(String), ts DateTime, open Float64, high Float64, low Float64, close Float64, volume Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, ts)", database, table),
	}
}

// SQLiteSchema returns the DDL for a daily bar table.
func SQLiteSchema(table string) []string {
	return []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (symbol TEXT NOT NULL, ts TIMESTAMP NOT NULL, open REAL, high REAL, low REAL, close REAL, volume REAL, PRIMARY KEY (symbol, ts))", table),
	}
}
