package types

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyBars(closes ...int64) []Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]Bar, len(closes))
	for i, c := range closes {
		price := decimal.NewFromInt(c)
		bars[i] = Bar{
			OpenTime: start.AddDate(0, 0, i),
			Open:     price,
			High:     price,
			Low:      price,
			Close:    price,
		}
	}
	return bars
}

func TestSeriesIndex(t *testing.T) {
	s := NewSeries("BTCUSDT", dailyBars(100, 101, 102, 103), 24*time.Hour)

	i, ok := s.Index(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = s.Index(time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))
	assert.False(t, ok)

	_, ok = s.Index(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestSeriesPeriodsPerYear(t *testing.T) {
	assert.InDelta(t, 252.0, NewSeries("d", nil, 24*time.Hour).PeriodsPerYear(), 1e-9)
	assert.InDelta(t, 252.0*24, NewSeries("h", nil, time.Hour).PeriodsPerYear(), 1e-9)

	// Unknown interval falls back to one minute
	assert.InDelta(t, 252.0*24*60, NewSeries("m", nil, 0).PeriodsPerYear(), 1e-9)

	var nilSeries *Series
	assert.InDelta(t, 252.0*24*60, nilSeries.PeriodsPerYear(), 1e-9)
}

func TestSeriesNilSafe(t *testing.T) {
	var s *Series
	assert.Equal(t, 0, s.Len())
	assert.True(t, s.IsEmpty())
	assert.Empty(t, s.Closes())
}

func TestSeriesCloses(t *testing.T) {
	s := NewSeries("x", dailyBars(100, 110, 90), 24*time.Hour)
	assert.Equal(t, []float64{100, 110, 90}, s.Closes())
	assert.True(t, s.Last().Close.Equal(decimal.NewFromInt(90)))
}

func TestBarValid(t *testing.T) {
	d := decimal.RequireFromString
	bar := Bar{Open: d("10"), High: d("12"), Low: d("9"), Close: d("11")}
	assert.True(t, bar.Valid())

	bar.Close = d("13")
	assert.False(t, bar.Valid(), "close above high")

	bar = Bar{Open: d("10"), High: d("9"), Low: d("11"), Close: d("10")}
	assert.False(t, bar.Valid(), "high below low")
}

func TestCandleEqual(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	one := decimal.NewFromInt(1)
	a := NewCandle("X", ts, one, one, one, one, one)
	b := NewCandle("X", ts, one, one, one, one, one)
	assert.True(t, a.Equal(b))
	assert.True(t, a.IsComplete())

	b.Close = decimal.NullDecimal{}
	assert.False(t, a.Equal(b))
	assert.False(t, b.IsComplete())
}

func TestPositionClose(t *testing.T) {
	p := NewPosition(PositionSideLong, 3, decimal.NewFromInt(100))
	assert.True(t, p.IsOpen())
	assert.Equal(t, OpenIndex, p.ExitIndex)

	closed := p.Close(7, decimal.NewFromInt(110), "exit signal")
	assert.True(t, p.IsOpen(), "close returns a copy")
	assert.False(t, closed.IsOpen())
	assert.Equal(t, 7, closed.ExitIndex)

	assert.False(t, closed.Covers(3))
	assert.True(t, closed.Covers(4))
	assert.True(t, closed.Covers(7))
	assert.False(t, closed.Covers(8))
}

func TestTradeJSONKeepsFourPlaces(t *testing.T) {
	trade := Trade{
		Side:             PositionSideLong,
		EntryTime:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ExitTime:         time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		ProfitPercentage: decimal.RequireFromString("0.1"),
	}
	assert.Equal(t, 48*time.Hour, trade.Duration())

	raw, err := json.Marshal(trade)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"profit_percentage":"0.1000"`)
	assert.Equal(t, 1, strings.Count(string(raw), "profit_percentage"))

	var decoded Trade
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, decoded.ProfitPercentage.Equal(trade.ProfitPercentage))
	assert.Equal(t, trade.ExitTime, decoded.ExitTime)
}
