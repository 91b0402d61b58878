package strategy

import (
	"tradebench/internal/types"
)

// PositionSignals replays a pre-computed list of positions as signals
type PositionSignals struct {
	name    string
	entries map[int]bool
	exits   map[int]bool
}

// NewPositionSignals indexes the entry and exit bars of the positions
func NewPositionSignals(name string, positions []types.Position) *PositionSignals {
	ps := &PositionSignals{
		name:    name,
		entries: make(map[int]bool, len(positions)),
		exits:   make(map[int]bool, len(positions)),
	}
	for _, p := range positions {
		ps.entries[p.EntryIndex] = true
		if !p.IsOpen() {
			ps.exits[p.ExitIndex] = true
		}
	}
	return ps
}

// Name returns the configured name
func (ps *PositionSignals) Name() string {
	return ps.name
}

// Lookback is zero since the positions are already decided
func (ps *PositionSignals) Lookback() int {
	return 0
}

// ShouldEnter reports whether a position was entered at bar i
func (ps *PositionSignals) ShouldEnter(i int) bool {
	return ps.entries[i]
}

// ShouldExit reports whether a position was exited at bar i
func (ps *PositionSignals) ShouldExit(i int) bool {
	return ps.exits[i]
}
