package store

import (
	"context"
	"time"

	"tradebench/internal/backtest"

	"github.com/shopspring/decimal"
)

// Recorder persists finished backtest runs
type Recorder interface {
	SaveRun(ctx context.Context, result *backtest.Result) error
	Close() error
}

// RunSummary is the stored headline of one run
type RunSummary struct {
	RunID        string          `json:"run_id"`
	Strategy     string          `json:"strategy"`
	Symbol       string          `json:"symbol"`
	Bars         int             `json:"bars"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      time.Time       `json:"end_time"`
	TotalTrades  int             `json:"total_trades"`
	FinalCapital decimal.Decimal `json:"final_capital"`
	TotalReturn  decimal.Decimal `json:"total_return"`
	SharpeRatio  decimal.Decimal `json:"sharpe_ratio"`
	MaxDrawdown  decimal.Decimal `json:"max_drawdown"`
	RecordedAt   time.Time       `json:"recorded_at"`
}

// NopRecorder discards every run
type NopRecorder struct{}

// SaveRun does nothing
func (NopRecorder) SaveRun(context.Context, *backtest.Result) error { return nil }

// Close does nothing
func (NopRecorder) Close() error { return nil }
