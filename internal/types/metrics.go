package types

import (
	"github.com/shopspring/decimal"
)

// SentinelRatio stands in for ratios whose denominator has no observations
var SentinelRatio = decimal.RequireFromString("999.9999")

// MetricsResult holds the performance statistics of one run
type MetricsResult struct {
	TotalTrades      int `json:"total_trades"`
	ProfitableTrades int `json:"profitable_trades"`
	LosingTrades     int `json:"losing_trades"`

	InitialCapital decimal.Decimal `json:"initial_capital"`
	FinalCapital   decimal.Decimal `json:"final_capital"`
	TotalProfit    decimal.Decimal `json:"total_profit"`
	TotalFees      decimal.Decimal `json:"total_fees"`
	MaxLoss        decimal.Decimal `json:"max_loss"`

	TotalReturn          decimal.Decimal `json:"total_return"`
	AnnualizedReturn     decimal.Decimal `json:"annualized_return"`
	WinRate              decimal.Decimal `json:"win_rate"`
	MaxDrawdown          decimal.Decimal `json:"max_drawdown"`
	Volatility           decimal.Decimal `json:"volatility"`
	AnnualizedVolatility decimal.Decimal `json:"annualized_volatility"`

	SharpeRatio      decimal.Decimal `json:"sharpe_ratio"`
	SortinoRatio     decimal.Decimal `json:"sortino_ratio"`
	CalmarRatio      decimal.Decimal `json:"calmar_ratio"`
	ProfitLossRatio  decimal.Decimal `json:"profit_loss_ratio"`
	TreynorRatio     decimal.Decimal `json:"treynor_ratio"`
	InformationRatio decimal.Decimal `json:"information_ratio"`
	OmegaRatio       decimal.Decimal `json:"omega_ratio"`
	Skewness         decimal.Decimal `json:"skewness"`
	Alpha            decimal.Decimal `json:"alpha"`
	Beta             decimal.Decimal `json:"beta"`

	PeriodsPerYear float64 `json:"periods_per_year"`
	BenchmarkUsed  bool    `json:"benchmark_used"`
}
