package types

import (
	"github.com/shopspring/decimal"
)

// PositionSide represents the direction of a position
type PositionSide string

const (
	PositionSideLong  PositionSide = "long"
	PositionSideShort PositionSide = "short"
)

// OpenIndex marks the exit index of a position that has not been closed
const OpenIndex = -1

// Position is one open-to-close round trip expressed in series indices
type Position struct {
	Side       PositionSide    `json:"side"`
	EntryIndex int             `json:"entry_index"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	ExitIndex  int             `json:"exit_index"`
	ExitPrice  decimal.Decimal `json:"exit_price"`
	ExitReason string          `json:"exit_reason,omitempty"`
}

// NewPosition opens a position at the given bar
func NewPosition(side PositionSide, entryIndex int, entryPrice decimal.Decimal) Position {
	return Position{
		Side:       side,
		EntryIndex: entryIndex,
		EntryPrice: entryPrice,
		ExitIndex:  OpenIndex,
	}
}

// NewClosedPosition builds a pre-computed round trip
func NewClosedPosition(side PositionSide, entryIndex int, entryPrice decimal.Decimal, exitIndex int, exitPrice decimal.Decimal) Position {
	return Position{
		Side:       side,
		EntryIndex: entryIndex,
		EntryPrice: entryPrice,
		ExitIndex:  exitIndex,
		ExitPrice:  exitPrice,
	}
}

// Close returns a copy of the position closed at the given bar
func (p Position) Close(exitIndex int, exitPrice decimal.Decimal, reason string) Position {
	p.ExitIndex = exitIndex
	p.ExitPrice = exitPrice
	p.ExitReason = reason
	return p
}

// IsOpen returns true if the position has no exit yet
func (p Position) IsOpen() bool {
	return p.ExitIndex == OpenIndex
}

// IsShort returns true for short positions
func (p Position) IsShort() bool {
	return p.Side == PositionSideShort
}

// Covers reports whether bar i lies strictly after entry and up to exit
func (p Position) Covers(i int) bool {
	return !p.IsOpen() && i > p.EntryIndex && i <= p.ExitIndex
}
