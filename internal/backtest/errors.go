package backtest

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientBars matches any InsufficientBarsError
	ErrInsufficientBars = errors.New("insufficient bars")
	// ErrInvalidPosition is returned for positions that cannot be settled
	ErrInvalidPosition = errors.New("invalid position")
)

// InsufficientBarsError reports a series shorter than the strategy lookback
type InsufficientBarsError struct {
	Need int
	Got  int
}

func (e *InsufficientBarsError) Error() string {
	return fmt.Sprintf("insufficient bars: need ≥ %d bars, got %d", e.Need, e.Got)
}

// Is lets errors.Is match ErrInsufficientBars
func (e *InsufficientBarsError) Is(target error) bool {
	return target == ErrInsufficientBars
}
