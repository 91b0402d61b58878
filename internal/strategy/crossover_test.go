package strategy

import (
	"testing"
	"time"

	"tradebench/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rallyThenSlide is twenty flat bars at 100 followed by a rally to 130 and a
// slide to 80. The 5/20 SMA pair crosses up at bar 20 and down at bar 27.
func rallyThenSlide() *types.Series {
	closes := make([]int64, 0, 28)
	for i := 0; i < 20; i++ {
		closes = append(closes, 100)
	}
	closes = append(closes, 110, 120, 130, 120, 110, 100, 90, 80)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		p := decimal.NewFromInt(c)
		bars[i] = types.Bar{OpenTime: start.AddDate(0, 0, i), Open: p, High: p, Low: p, Close: p}
	}
	return types.NewSeries("TEST", bars, 24*time.Hour)
}

func TestSMACrossoverSignals(t *testing.T) {
	series := rallyThenSlide()
	c, err := NewSMACrossover(series, 5, 20)
	require.NoError(t, err)

	assert.Equal(t, "sma_cross(5,20)", c.Name())
	assert.Equal(t, 20, c.Lookback())

	var entries, exits []int
	for i := 0; i < series.Len(); i++ {
		if c.ShouldEnter(i) {
			entries = append(entries, i)
		}
		if c.ShouldExit(i) {
			exits = append(exits, i)
		}
	}
	assert.Equal(t, []int{20}, entries)
	assert.Equal(t, []int{27}, exits)
}

func TestCrossoverUndefinedWindow(t *testing.T) {
	c, err := NewSMACrossover(rallyThenSlide(), 5, 20)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		assert.False(t, c.ShouldEnter(i), "bar %d", i)
		assert.False(t, c.ShouldExit(i), "bar %d", i)
	}
	assert.False(t, c.ShouldEnter(-1))
	assert.False(t, c.ShouldEnter(100))
}

func TestCrossoverInvalidPeriods(t *testing.T) {
	series := rallyThenSlide()
	for _, p := range [][2]int{{20, 5}, {5, 5}, {0, 20}, {-1, 3}} {
		_, err := NewSMACrossover(series, p[0], p[1])
		assert.ErrorIs(t, err, ErrInvalidPeriods, "%v", p)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"ema_cross", "sma_cross"}, r.Names())

	source, err := r.Create("ema_cross", rallyThenSlide(), Params{ShortPeriod: 3, LongPeriod: 10})
	require.NoError(t, err)
	assert.Equal(t, "ema_cross(3,10)", source.Name())

	_, err = r.Create("rsi", rallyThenSlide(), Params{ShortPeriod: 3, LongPeriod: 10})
	assert.Error(t, err)

	r.Register("replay", func(series *types.Series, p Params) (SignalSource, error) {
		return NewPositionSignals("replay", nil), nil
	})
	assert.Contains(t, r.Names(), "replay")
}

func TestPositionSignals(t *testing.T) {
	p := decimal.NewFromInt(100)
	ps := NewPositionSignals("manual", []types.Position{
		types.NewClosedPosition(types.PositionSideLong, 2, p, 5, p),
		types.NewPosition(types.PositionSideLong, 8, p),
	})

	assert.Equal(t, 0, ps.Lookback())
	assert.True(t, ps.ShouldEnter(2))
	assert.True(t, ps.ShouldExit(5))
	assert.True(t, ps.ShouldEnter(8))
	assert.False(t, ps.ShouldExit(-1), "open positions have no exit bar")
	assert.False(t, ps.ShouldEnter(3))
}
