package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is a raw price record as delivered by a candle source. Price fields
// are nullable so that incomplete records can be detected and skipped.
type Candle struct {
	Symbol    string              `json:"symbol"`
	Interval  string              `json:"interval,omitempty"`
	OpenTime  time.Time           `json:"open_time"`
	CloseTime time.Time           `json:"close_time,omitempty"`
	Open      decimal.NullDecimal `json:"open"`
	High      decimal.NullDecimal `json:"high"`
	Low       decimal.NullDecimal `json:"low"`
	Close     decimal.NullDecimal `json:"close"`
	Volume    decimal.NullDecimal `json:"volume"`
}

// NewCandle creates a fully populated candle
func NewCandle(symbol string, openTime time.Time, open, high, low, close, volume decimal.Decimal) Candle {
	return Candle{
		Symbol:   symbol,
		OpenTime: openTime,
		Open:     decimal.NewNullDecimal(open),
		High:     decimal.NewNullDecimal(high),
		Low:      decimal.NewNullDecimal(low),
		Close:    decimal.NewNullDecimal(close),
		Volume:   decimal.NewNullDecimal(volume),
	}
}

// IsComplete reports whether all price fields are present
func (c Candle) IsComplete() bool {
	return c.Open.Valid && c.High.Valid && c.Low.Valid && c.Close.Valid
}

// Equal reports whether two candles are exact duplicates
func (c Candle) Equal(other Candle) bool {
	return c.Symbol == other.Symbol &&
		c.Interval == other.Interval &&
		c.OpenTime.Equal(other.OpenTime) &&
		c.CloseTime.Equal(other.CloseTime) &&
		nullEqual(c.Open, other.Open) &&
		nullEqual(c.High, other.High) &&
		nullEqual(c.Low, other.Low) &&
		nullEqual(c.Close, other.Close) &&
		nullEqual(c.Volume, other.Volume)
}

func nullEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}

// Bar is one normalized price observation of a Series
type Bar struct {
	OpenTime  time.Time       `json:"open_time"`
	CloseTime time.Time       `json:"close_time"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

// Valid reports whether low <= {open, close} <= high
func (b Bar) Valid() bool {
	if b.High.LessThan(b.Low) {
		return false
	}
	for _, p := range []decimal.Decimal{b.Open, b.Close} {
		if p.LessThan(b.Low) || p.GreaterThan(b.High) {
			return false
		}
	}
	return true
}
