package performance

import (
	"math"

	"tradebench/internal/types"

	"gonum.org/v1/gonum/stat"
)

// ReturnSeries builds the per-bar return basis shared by every ratio. Bar i
// carries its price return only while a position covers it (after entry, up
// to and including exit); all other bars return 0. Short positions earn the
// negated price return.
func ReturnSeries(series *types.Series, positions []types.Position) []float64 {
	n := series.Len()
	if n < 2 {
		return nil
	}

	direction := make([]float64, n)
	for _, p := range positions {
		sign := 1.0
		if p.IsShort() {
			sign = -1.0
		}
		for i := max(p.EntryIndex+1, 1); i < n && p.Covers(i); i++ {
			direction[i] = sign
		}
	}

	returns := make([]float64, n-1)
	for i := 1; i < n; i++ {
		if direction[i] == 0 {
			continue
		}
		prev := series.Bars[i-1].Close
		if prev.IsZero() {
			continue
		}
		r := series.Bars[i].Close.Sub(prev).Div(prev).InexactFloat64()
		returns[i-1] = direction[i] * r
	}
	return returns
}

// LogReturns returns ln(close[i]/close[i-1]) over the whole series, skipping
// pairs with a non-positive close.
func LogReturns(series *types.Series) []float64 {
	n := series.Len()
	if n < 2 {
		return nil
	}

	returns := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		prev := series.Bars[i-1].Close
		cur := series.Bars[i].Close
		if !prev.IsPositive() || !cur.IsPositive() {
			continue
		}
		returns = append(returns, math.Log(cur.Div(prev).InexactFloat64()))
	}
	return returns
}

// Volatility is the sample standard deviation of per-bar log returns
func Volatility(series *types.Series) float64 {
	return sampleStdDev(LogReturns(series))
}

// AnnualizedMean scales the mean per-period return to a year
func AnnualizedMean(returns []float64, periodsPerYear float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return stat.Mean(returns, nil) * periodsPerYear
}

// AnnualizedStdDev scales the sample standard deviation to a year
func AnnualizedStdDev(returns []float64, periodsPerYear float64) float64 {
	return sampleStdDev(returns) * math.Sqrt(periodsPerYear)
}

func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return finite(stat.StdDev(values, nil))
}
