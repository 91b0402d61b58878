package types

import (
	"sort"
	"time"
)

// TradingDaysPerYear is the annualization base for daily bars
const TradingDaysPerYear = 252

// DefaultInterval is used when the sampling interval cannot be inferred
const DefaultInterval = time.Minute

// Series is an ordered, deduplicated sequence of bars for one instrument.
// It is built once and never mutated afterwards.
type Series struct {
	Name          string        `json:"name"`
	Bars          []Bar         `json:"bars"`
	Interval      time.Duration `json:"interval"`
	IrregularGaps int           `json:"irregular_gaps"`
}

// NewSeries wraps already ordered bars. The interval is taken as given.
func NewSeries(name string, bars []Bar, interval time.Duration) *Series {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Series{Name: name, Bars: bars, Interval: interval}
}

// Len returns the number of bars
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// IsEmpty returns true when the series holds no bars
func (s *Series) IsEmpty() bool {
	return s.Len() == 0
}

// Bar returns the bar at index i
func (s *Series) Bar(i int) Bar {
	return s.Bars[i]
}

// Last returns the final bar. The series must not be empty.
func (s *Series) Last() Bar {
	return s.Bars[len(s.Bars)-1]
}

// Closes returns the close prices as float64 for indicator math
func (s *Series) Closes() []float64 {
	closes := make([]float64, s.Len())
	if s == nil {
		return closes
	}
	for i, bar := range s.Bars {
		closes[i] = bar.Close.InexactFloat64()
	}
	return closes
}

// Index finds the bar with the given open time
func (s *Series) Index(openTime time.Time) (int, bool) {
	n := s.Len()
	i := sort.Search(n, func(i int) bool {
		return !s.Bars[i].OpenTime.Before(openTime)
	})
	if i < n && s.Bars[i].OpenTime.Equal(openTime) {
		return i, true
	}
	return -1, false
}

// PeriodsPerYear converts the sampling interval into an annualization
// factor, scaled from 252 periods for daily bars.
func (s *Series) PeriodsPerYear() float64 {
	interval := DefaultInterval
	if s != nil && s.Interval > 0 {
		interval = s.Interval
	}
	return TradingDaysPerYear * float64(24*time.Hour) / float64(interval)
}
