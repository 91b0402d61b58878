package strategy

import (
	"fmt"

	"tradebench/internal/indicators"
	"tradebench/internal/types"
)

// Crossover enters when the short average crosses above the long average and
// exits on the reverse cross. A cross is the change in ordering between the
// previous and the current bar, so the earliest signal is at index long.
type Crossover struct {
	shortPeriod int
	longPeriod  int
	short       *indicators.MovingAverage
	long        *indicators.MovingAverage
}

// NewSMACrossover builds a simple moving average crossover over the series
func NewSMACrossover(series *types.Series, shortPeriod, longPeriod int) (*Crossover, error) {
	return NewCrossover(indicators.SimpleMovingAverage, series, shortPeriod, longPeriod)
}

// NewEMACrossover builds an exponential moving average crossover over the series
func NewEMACrossover(series *types.Series, shortPeriod, longPeriod int) (*Crossover, error) {
	return NewCrossover(indicators.ExponentialMovingAverage, series, shortPeriod, longPeriod)
}

// NewCrossover builds a crossover of the given average type
func NewCrossover(maType indicators.MovingAverageType, series *types.Series, shortPeriod, longPeriod int) (*Crossover, error) {
	if shortPeriod <= 0 || longPeriod <= 0 || shortPeriod >= longPeriod {
		return nil, fmt.Errorf("%w: short=%d long=%d", ErrInvalidPeriods, shortPeriod, longPeriod)
	}

	closes := series.Closes()
	short, err := indicators.NewMovingAverage(maType, shortPeriod, closes)
	if err != nil {
		return nil, err
	}
	long, err := indicators.NewMovingAverage(maType, longPeriod, closes)
	if err != nil {
		return nil, err
	}

	return &Crossover{
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
		short:       short,
		long:        long,
	}, nil
}

// Name returns e.g. "sma_cross(5,20)"
func (c *Crossover) Name() string {
	return fmt.Sprintf("%s_cross(%d,%d)", c.short.Type, c.shortPeriod, c.longPeriod)
}

// Lookback returns the long period
func (c *Crossover) Lookback() int {
	return c.longPeriod
}

// ShouldEnter fires when short moves from <= long to > long
func (c *Crossover) ShouldEnter(i int) bool {
	if !c.pairDefined(i) {
		return false
	}
	return c.short.At(i-1) <= c.long.At(i-1) && c.short.At(i) > c.long.At(i)
}

// ShouldExit fires when short moves from >= long to < long
func (c *Crossover) ShouldExit(i int) bool {
	if !c.pairDefined(i) {
		return false
	}
	return c.short.At(i-1) >= c.long.At(i-1) && c.short.At(i) < c.long.At(i)
}

func (c *Crossover) pairDefined(i int) bool {
	return i > 0 && c.long.Defined(i-1) && c.long.Defined(i)
}
