package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"tradebench/internal/backtest"
	"tradebench/internal/logging"
	"tradebench/internal/types"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists runs and their trade ledgers to a SQLite database.
// Decimal values are stored as TEXT to keep them exact.
type SQLiteStore struct {
	db     *sql.DB
	logger *logging.Logger
}

// Open opens (or creates) the SQLite database and runs migrations
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", "PRAGMA foreign_keys=ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, logger: logging.CreateStoreLogger()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s.logger.Infof("sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id        TEXT PRIMARY KEY,
			strategy      TEXT NOT NULL,
			symbol        TEXT,
			bars          INTEGER NOT NULL,
			interval_ns   INTEGER NOT NULL,
			start_time    INTEGER,
			end_time      INTEGER,
			fee_rate      TEXT,
			total_trades  INTEGER NOT NULL,
			final_capital TEXT,
			total_return  TEXT,
			sharpe_ratio  TEXT,
			max_drawdown  TEXT,
			metrics       TEXT NOT NULL,
			recorded_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_recorded ON runs(recorded_at)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			seq               INTEGER NOT NULL,
			side              TEXT NOT NULL,
			entry_index       INTEGER,
			exit_index        INTEGER,
			entry_time        INTEGER,
			exit_time         INTEGER,
			entry_price       TEXT,
			exit_price        TEXT,
			amount            TEXT,
			entry_capital     TEXT,
			exit_capital      TEXT,
			fee               TEXT,
			profit            TEXT,
			profit_percentage TEXT,
			exit_reason       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, seq)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun stores the run summary and its trades in one transaction
func (s *SQLiteStore) SaveRun(ctx context.Context, result *backtest.Result) error {
	metrics, err := json.Marshal(result.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(run_id, strategy, symbol, bars, interval_ns, start_time, end_time, fee_rate,
		 total_trades, final_capital, total_return, sharpe_ratio, max_drawdown, metrics, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.Strategy, result.Symbol, result.Bars, int64(result.Interval),
		unixMilli(result.StartTime), unixMilli(result.EndTime), result.FeeRate.String(),
		result.Metrics.TotalTrades, result.Metrics.FinalCapital.String(), result.Metrics.TotalReturn.String(),
		result.Metrics.SharpeRatio.String(), result.Metrics.MaxDrawdown.String(), string(metrics),
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO trades
		(run_id, seq, side, entry_index, exit_index, entry_time, exit_time, entry_price, exit_price,
		 amount, entry_capital, exit_capital, fee, profit, profit_percentage, exit_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare trade insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range result.Trades {
		_, err := stmt.ExecContext(ctx,
			result.RunID, i, string(t.Side), t.EntryIndex, t.ExitIndex,
			unixMilli(t.EntryTime), unixMilli(t.ExitTime), t.EntryPrice.String(), t.ExitPrice.String(),
			t.EntryAmount.String(), t.EntryCapital.String(), t.ExitCapital.String(), t.Fee.String(),
			t.Profit.String(), t.ProfitPercentage.StringFixed(types.PercentScale), t.ExitReason,
		)
		if err != nil {
			return fmt.Errorf("insert trade %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debugf("Recorded run %s with %d trades", result.RunID, len(result.Trades))
	return nil
}

// ListRuns returns the most recently recorded runs, newest first
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `SELECT run_id, strategy, symbol, bars, start_time, end_time,
		total_trades, final_capital, total_return, sharpe_ratio, max_drawdown, recorded_at
		FROM runs ORDER BY recorded_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var start, end, recorded int64
		var final, ret, sharpe, dd string
		if err := rows.Scan(&r.RunID, &r.Strategy, &r.Symbol, &r.Bars, &start, &end,
			&r.TotalTrades, &final, &ret, &sharpe, &dd, &recorded); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartTime = fromUnixMilli(start)
		r.EndTime = fromUnixMilli(end)
		r.RecordedAt = fromUnixMilli(recorded)
		r.FinalCapital = parseDecimal(final)
		r.TotalReturn = parseDecimal(ret)
		r.SharpeRatio = parseDecimal(sharpe)
		r.MaxDrawdown = parseDecimal(dd)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadMetrics returns the full metrics stored for a run
func (s *SQLiteStore) LoadMetrics(ctx context.Context, runID string) (types.MetricsResult, error) {
	var metrics types.MetricsResult
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT metrics FROM runs WHERE run_id = ?`, runID).Scan(&raw)
	if err != nil {
		return metrics, fmt.Errorf("query metrics for %s: %w", runID, err)
	}
	if err := json.Unmarshal([]byte(raw), &metrics); err != nil {
		return metrics, fmt.Errorf("unmarshal metrics: %w", err)
	}
	return metrics, nil
}

// LoadTrades returns the trade ledger of a run in sequence order
func (s *SQLiteStore) LoadTrades(ctx context.Context, runID string) ([]types.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT side, entry_index, exit_index, entry_time, exit_time,
		entry_price, exit_price, amount, entry_capital, exit_capital, fee, profit, profit_percentage, exit_reason
		FROM trades WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []types.Trade
	for rows.Next() {
		var t types.Trade
		var side string
		var entryTime, exitTime int64
		var entryPrice, exitPrice, amount, entryCapital, exitCapital, fee, profit, pct string
		if err := rows.Scan(&side, &t.EntryIndex, &t.ExitIndex, &entryTime, &exitTime,
			&entryPrice, &exitPrice, &amount, &entryCapital, &exitCapital, &fee, &profit, &pct, &t.ExitReason); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Side = types.PositionSide(side)
		t.EntryTime = fromUnixMilli(entryTime)
		t.ExitTime = fromUnixMilli(exitTime)
		t.EntryPrice = parseDecimal(entryPrice)
		t.ExitPrice = parseDecimal(exitPrice)
		t.EntryAmount = parseDecimal(amount)
		t.ExitAmount = t.EntryAmount
		t.EntryCapital = parseDecimal(entryCapital)
		t.ExitCapital = parseDecimal(exitCapital)
		t.Fee = parseDecimal(fee)
		t.Profit = parseDecimal(profit)
		t.ProfitPercentage = parseDecimal(pct)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var _ Recorder = (*SQLiteStore)(nil)
