package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// FillSide represents the side of an executed fill
type FillSide string

const (
	FillSideBuy  FillSide = "buy"
	FillSideSell FillSide = "sell"
)

// Fill records one executed buy or sell on the simulated account
type Fill struct {
	Time   time.Time       `json:"time"`
	Side   FillSide        `json:"side"`
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
	Value  decimal.Decimal `json:"value"` // price * amount
	Fee    decimal.Decimal `json:"fee"`
	Reason string          `json:"reason,omitempty"`
}

// AccountState is one equity curve point, recorded once per bar
type AccountState struct {
	Time          time.Time       `json:"time"`
	Cash          decimal.Decimal `json:"cash"`
	PositionUnits decimal.Decimal `json:"position_units"`
	MarkPrice     decimal.Decimal `json:"mark_price"`
	PositionValue decimal.Decimal `json:"position_value"`
	TotalBalance  decimal.Decimal `json:"total_balance"`
}

// NewAccountState derives position value and total balance from the inputs
func NewAccountState(t time.Time, cash, units, markPrice decimal.Decimal) AccountState {
	value := units.Mul(markPrice)
	return AccountState{
		Time:          t,
		Cash:          cash,
		PositionUnits: units,
		MarkPrice:     markPrice,
		PositionValue: value,
		TotalBalance:  cash.Add(value),
	}
}
