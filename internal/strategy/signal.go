package strategy

import (
	"errors"
)

// ErrInvalidPeriods is returned for non-positive or misordered lookback periods
var ErrInvalidPeriods = errors.New("invalid moving average periods")

// SignalSource decides, per bar index, whether to open or close a position.
// The engine only asks ShouldEnter while flat and ShouldExit while invested.
type SignalSource interface {
	// Name identifies the strategy and its parameters
	Name() string
	// Lookback is the minimum number of bars the source needs
	Lookback() int
	ShouldEnter(i int) bool
	ShouldExit(i int) bool
}
