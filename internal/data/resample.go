package data

import (
	"fmt"
	"strings"
	"time"

	"tradebench/internal/types"
)

// Timeframe is a candle interval label such as "1m" or "1d"
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe30m Timeframe = "30m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
	Timeframe1w  Timeframe = "1w"
)

// ParseTimeframe converts a timeframe label into its duration
func ParseTimeframe(label string) (time.Duration, error) {
	switch Timeframe(strings.ToLower(strings.TrimSpace(label))) {
	case Timeframe1m:
		return time.Minute, nil
	case Timeframe5m:
		return 5 * time.Minute, nil
	case Timeframe15m:
		return 15 * time.Minute, nil
	case Timeframe30m:
		return 30 * time.Minute, nil
	case Timeframe1h:
		return time.Hour, nil
	case Timeframe4h:
		return 4 * time.Hour, nil
	case Timeframe1d:
		return 24 * time.Hour, nil
	case Timeframe1w:
		return 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unknown timeframe: %q", label)
}

// Resample aggregates a series into coarser bars aligned to the interval
func Resample(series *types.Series, interval time.Duration) (*types.Series, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("resample interval must be positive")
	}
	if series.IsEmpty() {
		return types.NewSeries(series.Name, nil, interval), nil
	}
	if interval < series.Interval {
		return nil, fmt.Errorf("cannot resample %s series into finer interval %s", series.Interval, interval)
	}

	var bars []types.Bar
	var current *types.Bar
	var bucket time.Time

	for _, bar := range series.Bars {
		start := alignTime(bar.OpenTime, interval)
		if current != nil && start.Equal(bucket) {
			if bar.High.GreaterThan(current.High) {
				current.High = bar.High
			}
			if bar.Low.LessThan(current.Low) {
				current.Low = bar.Low
			}
			current.Close = bar.Close
			current.CloseTime = bar.CloseTime
			current.Volume = current.Volume.Add(bar.Volume)
			continue
		}

		if current != nil {
			bars = append(bars, *current)
		}
		next := bar
		next.OpenTime = start
		current = &next
		bucket = start
	}
	bars = append(bars, *current)

	resampled := types.NewSeries(series.Name, bars, interval)
	resampled.IrregularGaps = countIrregularGaps(bars, interval)
	return resampled, nil
}

// alignTime aligns a timestamp to the start of its timeframe bucket
func alignTime(t time.Time, interval time.Duration) time.Time {
	return t.Truncate(interval)
}
