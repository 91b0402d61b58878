package performance

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Sharpe is (annualized mean - risk free) / annualized standard deviation
func Sharpe(returns []float64, periodsPerYear, riskFreeRate float64) float64 {
	std := AnnualizedStdDev(returns, periodsPerYear)
	if std == 0 {
		return 0
	}
	return finite((AnnualizedMean(returns, periodsPerYear) - riskFreeRate) / std)
}

// DownsideDeviation is sqrt(sum of squared negative returns / N), annualized
func DownsideDeviation(returns []float64, periodsPerYear float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		if r < 0 {
			sum += r * r
		}
	}
	return math.Sqrt(sum/float64(len(returns))) * math.Sqrt(periodsPerYear)
}

// Sortino divides excess return by downside deviation. Without losing
// periods it is the sentinel if any period gained, otherwise 0.
func Sortino(returns []float64, periodsPerYear, riskFreeRate float64) float64 {
	downside := DownsideDeviation(returns, periodsPerYear)
	if downside == 0 {
		if hasPositive(returns) {
			return Sentinel
		}
		return 0
	}
	return finite((AnnualizedMean(returns, periodsPerYear) - riskFreeRate) / downside)
}

// Omega is the sum of gains over the threshold divided by the sum of
// shortfalls below it.
func Omega(returns []float64, threshold float64) float64 {
	var gains, losses float64
	for _, r := range returns {
		excess := r - threshold
		if excess > 0 {
			gains += excess
		} else if excess < 0 {
			losses -= excess
		}
	}
	if losses == 0 {
		if gains > 0 {
			return Sentinel
		}
		return 0
	}
	return finite(gains / losses)
}

// Calmar is total return over the absolute max drawdown
func Calmar(totalReturn, maxDrawdown float64) float64 {
	if maxDrawdown == 0 {
		return 0
	}
	return finite(totalReturn / math.Abs(maxDrawdown))
}

// Treynor is annualized excess return per unit of beta
func Treynor(excessReturn, beta float64) float64 {
	if beta == 0 {
		return 0
	}
	return finite(excessReturn / beta)
}

// Skewness is the population third standardized moment
func Skewness(returns []float64) float64 {
	if len(returns) < 3 {
		return 0
	}
	m2 := stat.Moment(2, returns, nil)
	if m2 == 0 {
		return 0
	}
	m3 := stat.Moment(3, returns, nil)
	return finite(m3 / math.Pow(m2, 1.5))
}

func hasPositive(values []float64) bool {
	for _, v := range values {
		if v > 0 {
			return true
		}
	}
	return false
}
