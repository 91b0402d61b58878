package types

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PercentScale is the number of decimal places a profit percentage carries
const PercentScale = 4

// Trade is the settled, fee-adjusted outcome of a closed position
type Trade struct {
	Side       PositionSide `json:"side"`
	EntryIndex int          `json:"entry_index"`
	ExitIndex  int          `json:"exit_index"`

	EntryTime   time.Time       `json:"entry_time"`
	EntryPrice  decimal.Decimal `json:"entry_price"`
	EntryAmount decimal.Decimal `json:"entry_amount"`
	ExitTime    time.Time       `json:"exit_time"`
	ExitPrice   decimal.Decimal `json:"exit_price"`
	ExitAmount  decimal.Decimal `json:"exit_amount"`

	// Cash committed including the entry fee, and net cash returned
	EntryCapital decimal.Decimal `json:"entry_capital"`
	ExitCapital  decimal.Decimal `json:"exit_capital"`

	EntryFee decimal.Decimal `json:"entry_fee"`
	ExitFee  decimal.Decimal `json:"exit_fee"`
	Fee      decimal.Decimal `json:"fee"`

	Profit           decimal.Decimal `json:"profit"`
	ProfitPercentage decimal.Decimal `json:"profit_percentage"`
	ExitReason       string          `json:"exit_reason,omitempty"`
}

// IsWin returns true for trades with positive net profit
func (t Trade) IsWin() bool {
	return t.Profit.IsPositive()
}

// IsLoss returns true for trades with negative net profit
func (t Trade) IsLoss() bool {
	return t.Profit.IsNegative()
}

// Duration returns the time spent in the market
func (t Trade) Duration() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}

// MarshalJSON writes the profit percentage with all PercentScale places,
// so 0.1 is reported as "0.1000".
func (t Trade) MarshalJSON() ([]byte, error) {
	type plain Trade
	return json.Marshal(struct {
		plain
		ProfitPercentage string `json:"profit_percentage"`
	}{plain(t), t.ProfitPercentage.StringFixed(PercentScale)})
}
