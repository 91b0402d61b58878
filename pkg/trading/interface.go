package trading

import (
	"time"

	"tradebench/internal/types"

	"github.com/shopspring/decimal"
)

// Executor is the account surface a backtest drives bar by bar
type Executor interface {
	// Order execution. The bool reports whether anything was filled.
	Buy(t time.Time, price, amount decimal.Decimal, reason string) (types.Fill, bool)
	Sell(t time.Time, price, amount decimal.Decimal, reason string) (types.Fill, bool)

	// Equity curve
	RecordState(t time.Time, price decimal.Decimal)

	// Account information
	Cash() decimal.Decimal
	Position() decimal.Decimal
	IsFlat() bool
}

// AccountConfig holds the starting conditions of a simulated account
type AccountConfig struct {
	InitialCash decimal.Decimal `json:"initial_cash"`
	FeeRate     decimal.Decimal `json:"fee_rate"` // applied to traded value on both sides
}

// AmountScale is the number of decimal places kept for traded quantities
const AmountScale = 8

// PercentScale is the number of decimal places kept for percentages and ratios
const PercentScale = types.PercentScale
