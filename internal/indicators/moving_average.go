package indicators

import (
	"fmt"

	"github.com/cinar/indicator"
)

// MovingAverageType selects the averaging method
type MovingAverageType string

const (
	SimpleMovingAverage      MovingAverageType = "sma"
	ExponentialMovingAverage MovingAverageType = "ema"
)

// MovingAverage is a moving average line over a close series. Values before
// the first full window are produced by the library but not defined here.
type MovingAverage struct {
	Type   MovingAverageType
	Period int
	Values []float64
}

// NewMovingAverage computes a moving average of the given type
func NewMovingAverage(maType MovingAverageType, period int, values []float64) (*MovingAverage, error) {
	if period <= 0 {
		return nil, fmt.Errorf("moving average period must be positive, got %d", period)
	}

	var line []float64
	switch maType {
	case SimpleMovingAverage:
		line = indicator.Sma(period, values)
	case ExponentialMovingAverage:
		line = indicator.Ema(period, values)
	default:
		return nil, fmt.Errorf("unknown moving average type: %s", maType)
	}

	return &MovingAverage{Type: maType, Period: period, Values: line}, nil
}

// Defined reports whether a full window exists at index i
func (m *MovingAverage) Defined(i int) bool {
	return i >= m.Period-1 && i < len(m.Values)
}

// At returns the average at index i
func (m *MovingAverage) At(i int) float64 {
	return m.Values[i]
}
