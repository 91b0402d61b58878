package performance

import (
	"math"

	"tradebench/internal/types"

	"gonum.org/v1/gonum/stat"
)

// Placeholders reported when no usable benchmark is supplied
const (
	DefaultAlpha = 0.0
	DefaultBeta  = 1.0
)

// Benchmark holds the market-relative statistics of a run
type Benchmark struct {
	Alpha            float64
	Beta             float64
	InformationRatio float64
	Used             bool
}

// AlignedReturns pairs strategy bar returns with benchmark returns over the
// same open times. Bars missing from the benchmark are dropped.
func AlignedReturns(series *types.Series, positions []types.Position, benchmark *types.Series) (strategy, market []float64) {
	if series.Len() < 2 || benchmark.Len() < 2 {
		return nil, nil
	}

	returns := ReturnSeries(series, positions)
	for i := 1; i < series.Len(); i++ {
		cur, ok := benchmark.Index(series.Bars[i].OpenTime)
		if !ok {
			continue
		}
		prev, ok := benchmark.Index(series.Bars[i-1].OpenTime)
		if !ok {
			continue
		}
		base := benchmark.Bars[prev].Close
		if base.IsZero() {
			continue
		}
		strategy = append(strategy, returns[i-1])
		market = append(market, benchmark.Bars[cur].Close.Sub(base).Div(base).InexactFloat64())
	}
	return strategy, market
}

// BenchmarkStats computes beta, Jensen's alpha and the information ratio
// against the benchmark. With fewer than two aligned returns the
// placeholders are returned and Used is false.
func BenchmarkStats(series *types.Series, positions []types.Position, benchmark *types.Series, riskFreeRate float64) Benchmark {
	placeholder := Benchmark{Alpha: DefaultAlpha, Beta: DefaultBeta}
	if benchmark == nil {
		return placeholder
	}

	r, b := AlignedReturns(series, positions, benchmark)
	if len(r) < 2 {
		return placeholder
	}

	ppy := series.PeriodsPerYear()
	result := Benchmark{Used: true}

	if variance := stat.Variance(b, nil); variance > 0 {
		result.Beta = finite(stat.Covariance(r, b, nil) / variance)
	}

	strategyMean := AnnualizedMean(r, ppy)
	marketMean := AnnualizedMean(b, ppy)
	result.Alpha = finite(strategyMean - (riskFreeRate + result.Beta*(marketMean-riskFreeRate)))

	active := make([]float64, len(r))
	for i := range r {
		active[i] = r[i] - b[i]
	}
	if trackingError := sampleStdDev(active) * math.Sqrt(ppy); trackingError > 0 {
		result.InformationRatio = finite(AnnualizedMean(active, ppy) / trackingError)
	}

	return result
}
