// Package performance computes risk and return statistics for a finished
// backtest run. Statistics are evaluated in float64 and reported as
// decimals rounded half-up to four places; non-finite values never escape.
package performance

import (
	"math"

	"tradebench/internal/logging"
	"tradebench/internal/types"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	// RatioScale is the number of decimal places kept for ratios
	RatioScale = 4
	// MoneyScale is the number of decimal places kept for currency amounts
	MoneyScale = 8
)

// Sentinel is the float value reported when a ratio has no negative observations
var Sentinel = types.SentinelRatio.InexactFloat64()

// Input is everything the calculator needs from one run
type Input struct {
	Series    *types.Series
	Positions []types.Position
	Trades    []types.Trade

	InitialCapital decimal.Decimal
	FinalCapital   decimal.Decimal
	TotalProfit    decimal.Decimal
	TotalFees      decimal.Decimal

	RiskFreeRate float64       // annualized
	Benchmark    *types.Series // optional

	Logger *logging.Logger // optional, defaults to the performance component logger
}

// Calculate derives the full metrics set. Apart from debug logging of
// sentinel and non-finite statistics it is a pure function of its input.
func Calculate(in Input) types.MetricsResult {
	logger := in.Logger
	if logger == nil {
		logger = logging.CreatePerformanceLogger()
	}
	conv := ratioConverter{logger: logger}

	ppy := in.Series.PeriodsPerYear()
	returns := ReturnSeries(in.Series, in.Positions)

	annualMean := AnnualizedMean(returns, ppy)
	excess := annualMean - in.RiskFreeRate

	bench := BenchmarkStats(in.Series, in.Positions, in.Benchmark, in.RiskFreeRate)

	totalReturn := TotalReturn(in.InitialCapital, in.FinalCapital)
	maxDrawdown := MaxDrawdown(in.InitialCapital, in.Trades)
	volatility := Volatility(in.Series)

	wins, losses := countOutcomes(in.Trades)

	profitLoss := ProfitLossRatio(in.Trades)
	if profitLoss.Equal(types.SentinelRatio) {
		conv.sentinel("profit_loss_ratio")
	}

	return types.MetricsResult{
		TotalTrades:      len(in.Trades),
		ProfitableTrades: wins,
		LosingTrades:     losses,

		InitialCapital: in.InitialCapital.Round(MoneyScale),
		FinalCapital:   in.FinalCapital.Round(MoneyScale),
		TotalProfit:    in.TotalProfit.Round(MoneyScale),
		TotalFees:      in.TotalFees.Round(MoneyScale),
		MaxLoss:        MaxLoss(in.Trades).Round(MoneyScale),

		TotalReturn:          totalReturn.Round(RatioScale),
		AnnualizedReturn:     conv.ratio("annualized_return", annualMean),
		WinRate:              WinRate(in.Trades),
		MaxDrawdown:          maxDrawdown.Round(RatioScale),
		Volatility:           conv.ratio("volatility", volatility),
		AnnualizedVolatility: conv.ratio("annualized_volatility", volatility*math.Sqrt(ppy)),

		SharpeRatio:      conv.ratio("sharpe_ratio", Sharpe(returns, ppy, in.RiskFreeRate)),
		SortinoRatio:     conv.ratio("sortino_ratio", Sortino(returns, ppy, in.RiskFreeRate)),
		CalmarRatio:      conv.ratio("calmar_ratio", Calmar(totalReturn.InexactFloat64(), maxDrawdown.InexactFloat64())),
		ProfitLossRatio:  profitLoss,
		TreynorRatio:     conv.ratio("treynor_ratio", Treynor(excess, bench.Beta)),
		InformationRatio: conv.ratio("information_ratio", bench.InformationRatio),
		OmegaRatio:       conv.ratio("omega_ratio", Omega(returns, 0)),
		Skewness:         conv.ratio("skewness", Skewness(returns)),
		Alpha:            conv.ratio("alpha", bench.Alpha),
		Beta:             conv.ratio("beta", bench.Beta),

		PeriodsPerYear: ppy,
		BenchmarkUsed:  bench.Used,
	}
}

// TotalReturn returns (final - initial) / initial, or 0 without capital
func TotalReturn(initial, final decimal.Decimal) decimal.Decimal {
	if !initial.IsPositive() {
		return decimal.Zero
	}
	return final.Sub(initial).Div(initial)
}

func countOutcomes(trades []types.Trade) (wins, losses int) {
	for _, t := range trades {
		switch {
		case t.IsWin():
			wins++
		case t.IsLoss():
			losses++
		}
	}
	return wins, losses
}

// ratioConverter turns float statistics into rounded decimals, mapping NaN
// and infinities to zero. Both that mapping and sentinel results are logged.
type ratioConverter struct {
	logger *logging.Logger
}

func (c ratioConverter) ratio(name string, x float64) decimal.Decimal {
	switch {
	case math.IsNaN(x) || math.IsInf(x, 0):
		c.logger.WithFields(logrus.Fields{
			"metric": name,
			"value":  x,
		}).Debug("Non-finite statistic reported as zero")
		return decimal.Zero
	case x == Sentinel:
		c.sentinel(name)
	}
	return decimal.NewFromFloat(x).Round(RatioScale)
}

func (c ratioConverter) sentinel(name string) {
	c.logger.WithField("metric", name).Debug("No negative observations, reporting sentinel ratio")
}

func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
