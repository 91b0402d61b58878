package performance

import (
	"math"
	"testing"
	"time"

	"tradebench/internal/logging"
	"tradebench/internal/types"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var d = decimal.RequireFromString

func seriesOf(closes ...float64) *types.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		p := decimal.NewFromFloat(c)
		bars[i] = types.Bar{OpenTime: start.AddDate(0, 0, i), Open: p, High: p, Low: p, Close: p}
	}
	return types.NewSeries("TEST", bars, 24*time.Hour)
}

func trade(profit string) types.Trade {
	return types.Trade{Profit: d(profit)}
}

func closed(entry, exit int) types.Position {
	return types.NewClosedPosition(types.PositionSideLong, entry, d("1"), exit, d("1"))
}

func TestCalculateEmptyInput(t *testing.T) {
	m := Calculate(Input{
		Series:         seriesOf(),
		InitialCapital: d("10000"),
		FinalCapital:   d("10000"),
		RiskFreeRate:   0.02,
	})

	assert.Equal(t, 0, m.TotalTrades)
	for name, v := range map[string]decimal.Decimal{
		"total return":  m.TotalReturn,
		"win rate":      m.WinRate,
		"max drawdown":  m.MaxDrawdown,
		"sharpe":        m.SharpeRatio,
		"sortino":       m.SortinoRatio,
		"calmar":        m.CalmarRatio,
		"omega":         m.OmegaRatio,
		"profit/loss":   m.ProfitLossRatio,
		"volatility":    m.Volatility,
		"skewness":      m.Skewness,
		"alpha":         m.Alpha,
		"information":   m.InformationRatio,
		"annual return": m.AnnualizedReturn,
	} {
		assert.True(t, v.IsZero(), "%s = %s", name, v)
	}
	assert.True(t, m.Beta.Equal(d("1")))
}

func TestCalculateAllWinners(t *testing.T) {
	// Five winning trades on a rising market
	series := seriesOf(100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110)
	positions := []types.Position{closed(0, 2), closed(2, 4), closed(4, 6), closed(6, 8), closed(8, 10)}
	trades := []types.Trade{trade("10"), trade("10"), trade("10"), trade("10"), trade("10")}

	m := Calculate(Input{
		Series:         series,
		Positions:      positions,
		Trades:         trades,
		InitialCapital: d("1000"),
		FinalCapital:   d("1050"),
		TotalProfit:    d("50"),
		RiskFreeRate:   0,
	})

	assert.Equal(t, 5, m.TotalTrades)
	assert.Equal(t, 5, m.ProfitableTrades)
	assert.True(t, m.WinRate.Equal(d("100")))
	assert.True(t, m.TotalReturn.Equal(d("0.05")))
	assert.True(t, m.MaxDrawdown.IsZero())
	assert.True(t, m.MaxLoss.IsZero())

	assert.Equal(t, "999.9999", m.SortinoRatio.String())
	assert.Equal(t, "999.9999", m.OmegaRatio.String())
	assert.Equal(t, "999.9999", m.ProfitLossRatio.String())
	assert.True(t, m.SharpeRatio.IsPositive())
	assert.True(t, m.CalmarRatio.IsZero(), "no drawdown")
}

func TestReturnSeriesCoversPositionsOnly(t *testing.T) {
	series := seriesOf(100, 110, 121, 100, 50)
	returns := ReturnSeries(series, []types.Position{closed(0, 2)})
	require.Len(t, returns, 4)

	assert.InDelta(t, 0.1, returns[0], 1e-12)
	assert.InDelta(t, 0.1, returns[1], 1e-12)
	assert.Zero(t, returns[2])
	assert.Zero(t, returns[3])

	short := types.NewClosedPosition(types.PositionSideShort, 2, d("121"), 4, d("50"))
	returns = ReturnSeries(series, []types.Position{short})
	assert.Greater(t, returns[2], 0.0, "short earns on falling prices")
	assert.Greater(t, returns[3], 0.0)

	assert.Nil(t, ReturnSeries(seriesOf(100), nil))
}

func TestMaxDrawdownBounded(t *testing.T) {
	trades := []types.Trade{trade("500"), trade("-300"), trade("-900"), trade("200")}
	dd := MaxDrawdown(d("1000"), trades)
	// Peak 1500, trough 300
	assert.True(t, dd.Equal(d("0.8")), dd.String())

	wipeout := MaxDrawdown(d("1000"), []types.Trade{trade("-2500")})
	assert.True(t, wipeout.Equal(d("1")), "drawdown is capped at one")

	path := EquityPath(d("1000"), trades)
	require.Len(t, path, 5)
	assert.True(t, path[2].Peak.Equal(d("1500")))
}

func TestTradeStatistics(t *testing.T) {
	trades := []types.Trade{trade("30"), trade("-10"), trade("0"), trade("-20")}

	assert.True(t, WinRate(trades).Equal(d("25")))
	assert.True(t, ProfitLossRatio(trades).Equal(d("1")))
	assert.True(t, MaxLoss(trades).Equal(d("-20")))

	assert.True(t, ProfitLossRatio([]types.Trade{trade("0")}).IsZero())
}

func TestVolatility(t *testing.T) {
	flat := seriesOf(100, 100, 100, 100)
	assert.Zero(t, Volatility(flat))

	series := seriesOf(100, 110, 99)
	lr := LogReturns(series)
	require.Len(t, lr, 2)
	mean := (lr[0] + lr[1]) / 2
	want := math.Sqrt((math.Pow(lr[0]-mean, 2) + math.Pow(lr[1]-mean, 2)) / 1)
	assert.InDelta(t, want, Volatility(series), 1e-12)
}

func TestSkewness(t *testing.T) {
	assert.Zero(t, Skewness([]float64{1, 2}))
	assert.Zero(t, Skewness([]float64{3, 3, 3, 3}))
	assert.InDelta(t, 0.0, Skewness([]float64{-1, 0, 1}), 1e-12)
	assert.Greater(t, Skewness([]float64{0, 0, 0, 0, 10}), 0.0)
	assert.Less(t, Skewness([]float64{0, 0, 0, 0, -10}), 0.0)
}

func TestRatioSentinels(t *testing.T) {
	gains := []float64{0.01, 0.02, 0}
	assert.Equal(t, Sentinel, Sortino(gains, 252, 0))
	assert.Equal(t, Sentinel, Omega(gains, 0))

	zeros := []float64{0, 0, 0}
	assert.Zero(t, Sortino(zeros, 252, 0))
	assert.Zero(t, Omega(zeros, 0))
	assert.Zero(t, Sharpe(zeros, 252, 0.02))

	mixed := []float64{0.02, -0.01, 0.03, -0.02}
	assert.InDelta(t, 0.05/0.03, Omega(mixed, 0), 1e-12)
	assert.InDelta(t, math.Sqrt((0.0001+0.0004)/4)*math.Sqrt(252), DownsideDeviation(mixed, 252), 1e-12)
}

func TestBenchmarkStats(t *testing.T) {
	series := seriesOf(100, 102, 101, 104, 106, 105)
	positions := []types.Position{closed(0, 5)}

	// A benchmark equal to the strategy has beta 1 and no active return
	bench := BenchmarkStats(series, positions, seriesOf(100, 102, 101, 104, 106, 105), 0.02)
	require.True(t, bench.Used)
	assert.InDelta(t, 1.0, bench.Beta, 1e-9)
	assert.InDelta(t, 0.0, bench.Alpha, 1e-9)
	assert.Zero(t, bench.InformationRatio)

	none := BenchmarkStats(series, positions, nil, 0.02)
	assert.False(t, none.Used)
	assert.Equal(t, DefaultBeta, none.Beta)

	// Misaligned dates leave nothing to compare
	shifted := seriesOf(100, 101)
	shifted.Bars[0].OpenTime = shifted.Bars[0].OpenTime.AddDate(1, 0, 0)
	shifted.Bars[1].OpenTime = shifted.Bars[1].OpenTime.AddDate(1, 0, 0)
	assert.False(t, BenchmarkStats(series, positions, shifted, 0.02).Used)
}

func TestCalculateWithBenchmark(t *testing.T) {
	series := seriesOf(100, 102, 101, 104, 106, 105)
	m := Calculate(Input{
		Series:         series,
		Positions:      []types.Position{closed(0, 5)},
		Trades:         []types.Trade{trade("50")},
		InitialCapital: d("1000"),
		FinalCapital:   d("1050"),
		TotalProfit:    d("50"),
		Benchmark:      seriesOf(100, 101, 101, 102, 104, 104),
	})
	assert.True(t, m.BenchmarkUsed)
	assert.False(t, m.Beta.Equal(d("1")))
	assert.False(t, m.InformationRatio.IsZero())
}

func TestCalculateLogsSentinels(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)

	series := seriesOf(100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110)
	Calculate(Input{
		Series:         series,
		Positions:      []types.Position{closed(0, 10)},
		Trades:         []types.Trade{trade("10")},
		InitialCapital: d("1000"),
		FinalCapital:   d("1010"),
		TotalProfit:    d("10"),
		Logger:         logging.FromLogrus(base),
	})

	sentinels := map[string]bool{}
	for _, entry := range hook.AllEntries() {
		assert.Equal(t, logrus.DebugLevel, entry.Level)
		if metric, ok := entry.Data["metric"].(string); ok {
			sentinels[metric] = true
		}
	}
	assert.Equal(t, map[string]bool{
		"sortino_ratio":     true,
		"omega_ratio":       true,
		"profit_loss_ratio": true,
	}, sentinels)
}

func TestRatioConverterMapsNonFinite(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	conv := ratioConverter{logger: logging.FromLogrus(base)}

	for _, x := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.True(t, conv.ratio("sharpe_ratio", x).IsZero())
	}
	require.Len(t, hook.AllEntries(), 3)
	assert.Equal(t, "Non-finite statistic reported as zero", hook.LastEntry().Message)

	hook.Reset()
	assert.Equal(t, "1.2346", conv.ratio("beta", 1.23456).String())
	assert.Empty(t, hook.AllEntries())
}
