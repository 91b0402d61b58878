package performance

import (
	"tradebench/internal/types"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// WinRate is the percentage of trades with positive net profit
func WinRate(trades []types.Trade) decimal.Decimal {
	if len(trades) == 0 {
		return decimal.Zero
	}
	wins, _ := countOutcomes(trades)
	return decimal.NewFromInt(int64(wins)).Mul(hundred).
		DivRound(decimal.NewFromInt(int64(len(trades))), RatioScale)
}

// ProfitLossRatio is gross profit over gross loss. Without losses it is
// the sentinel when anything was won, otherwise 0.
func ProfitLossRatio(trades []types.Trade) decimal.Decimal {
	gains, losses := decimal.Zero, decimal.Zero
	for _, t := range trades {
		if t.IsWin() {
			gains = gains.Add(t.Profit)
		} else if t.IsLoss() {
			losses = losses.Add(t.Profit.Abs())
		}
	}
	if losses.IsZero() {
		if gains.IsPositive() {
			return types.SentinelRatio
		}
		return decimal.Zero
	}
	return gains.DivRound(losses, RatioScale)
}

// MaxLoss is the most negative single trade profit, 0 if no trade lost
func MaxLoss(trades []types.Trade) decimal.Decimal {
	worst := decimal.Zero
	for _, t := range trades {
		if t.Profit.LessThan(worst) {
			worst = t.Profit
		}
	}
	return worst
}

// EquityPoint is one step of the trade-by-trade equity path
type EquityPoint struct {
	Equity   decimal.Decimal `json:"equity"`
	Peak     decimal.Decimal `json:"peak"`
	Drawdown decimal.Decimal `json:"drawdown"` // fraction of peak
}

// EquityPath adds each trade's profit onto the initial capital in order,
// tracking the running peak.
func EquityPath(initialCapital decimal.Decimal, trades []types.Trade) []EquityPoint {
	path := make([]EquityPoint, 0, len(trades)+1)
	equity := initialCapital
	peak := initialCapital
	path = append(path, EquityPoint{Equity: equity, Peak: peak, Drawdown: decimal.Zero})

	for _, t := range trades {
		equity = equity.Add(t.Profit)
		if equity.GreaterThan(peak) {
			peak = equity
		}
		path = append(path, EquityPoint{Equity: equity, Peak: peak, Drawdown: drawdown(peak, equity)})
	}
	return path
}

// MaxDrawdown is the largest peak-to-trough fraction of the equity path,
// bounded to [0, 1].
func MaxDrawdown(initialCapital decimal.Decimal, trades []types.Trade) decimal.Decimal {
	worst := decimal.Zero
	for _, point := range EquityPath(initialCapital, trades) {
		if point.Drawdown.GreaterThan(worst) {
			worst = point.Drawdown
		}
	}
	return worst
}

func drawdown(peak, equity decimal.Decimal) decimal.Decimal {
	if !peak.IsPositive() {
		return decimal.Zero
	}
	dd := peak.Sub(equity).Div(peak)
	if dd.IsNegative() {
		return decimal.Zero
	}
	if dd.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return dd
}
