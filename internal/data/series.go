package data

import (
	"errors"
	"sort"
	"time"

	"tradebench/internal/logging"
	"tradebench/internal/types"

	"github.com/shopspring/decimal"
)

// ErrNoUsableBars is returned when every candle of a non-empty input was rejected
var ErrNoUsableBars = errors.New("no usable bars in candle input")

// SeriesBuilder normalizes raw candles into a Series
type SeriesBuilder struct {
	logger *logging.Logger
}

// NewSeriesBuilder creates a builder logging through the given logger.
// A nil logger falls back to the data component logger.
func NewSeriesBuilder(logger *logging.Logger) *SeriesBuilder {
	if logger == nil {
		logger = logging.CreateDataLogger()
	}
	return &SeriesBuilder{logger: logger}
}

// BuildSeries is a convenience wrapper around a default SeriesBuilder
func BuildSeries(candles []types.Candle, name string) (*types.Series, error) {
	return NewSeriesBuilder(nil).Build(candles, name)
}

// Build drops exact duplicates and malformed candles, orders by open time
// and infers the sampling interval from the first two bars.
func (b *SeriesBuilder) Build(candles []types.Candle, name string) (*types.Series, error) {
	if len(candles) == 0 {
		return types.NewSeries(name, nil, types.DefaultInterval), nil
	}

	sorted := make([]types.Candle, len(candles))
	copy(sorted, candles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OpenTime.Before(sorted[j].OpenTime)
	})

	bars := make([]types.Bar, 0, len(sorted))
	var duplicates, conflicts, malformed int
	var prev *types.Candle

	for i := range sorted {
		candle := sorted[i]

		if prev != nil && prev.OpenTime.Equal(candle.OpenTime) {
			if prev.Equal(candle) {
				duplicates++
			} else {
				conflicts++
				b.logger.Warnf("Dropping conflicting candle at %s, keeping first occurrence",
					candle.OpenTime.Format("2006-01-02 15:04:05"))
			}
			continue
		}

		bar, ok := toBar(candle)
		if !ok {
			malformed++
			b.logger.Warnf("Skipping malformed candle at %s", candle.OpenTime.Format("2006-01-02 15:04:05"))
			continue
		}

		bars = append(bars, bar)
		prev = &sorted[i]
	}

	if len(bars) == 0 {
		return nil, ErrNoUsableBars
	}

	series := types.NewSeries(name, bars, inferInterval(bars))
	series.IrregularGaps = countIrregularGaps(bars, series.Interval)

	if series.IrregularGaps > 0 {
		b.logger.Warnf("Series %s has %d gaps differing from inferred interval %s",
			name, series.IrregularGaps, series.Interval)
	}

	b.logger.WithFields(map[string]interface{}{
		"series":     name,
		"bars":       len(bars),
		"duplicates": duplicates,
		"conflicts":  conflicts,
		"malformed":  malformed,
		"interval":   series.Interval.String(),
	}).Debug("Series built")

	return series, nil
}

// toBar converts a complete, well-formed candle into a bar
func toBar(c types.Candle) (types.Bar, bool) {
	if !c.IsComplete() {
		return types.Bar{}, false
	}

	volume := decimal.Zero
	if c.Volume.Valid {
		volume = c.Volume.Decimal
	}

	// Missing close time falls back to the open time
	closeTime := c.CloseTime
	if closeTime.IsZero() {
		closeTime = c.OpenTime
	}

	bar := types.Bar{
		OpenTime:  c.OpenTime,
		CloseTime: closeTime,
		Open:      c.Open.Decimal,
		High:      c.High.Decimal,
		Low:       c.Low.Decimal,
		Close:     c.Close.Decimal,
		Volume:    volume,
	}
	return bar, bar.Valid()
}

func inferInterval(bars []types.Bar) time.Duration {
	if len(bars) < 2 {
		return types.DefaultInterval
	}
	interval := bars[1].OpenTime.Sub(bars[0].OpenTime)
	if interval <= 0 {
		return types.DefaultInterval
	}
	return interval
}

func countIrregularGaps(bars []types.Bar, interval time.Duration) int {
	count := 0
	for i := 2; i < len(bars); i++ {
		if bars[i].OpenTime.Sub(bars[i-1].OpenTime) != interval {
			count++
		}
	}
	return count
}
