package monitoring

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run status label values
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Metrics holds the Prometheus collectors for backtest runs
type Metrics struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	barsProcessed prometheus.Counter
	tradesTotal   *prometheus.CounterVec
}

// NewMetrics creates the collectors on a dedicated registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradebench_runs_total",
				Help: "Total number of backtest runs",
			},
			[]string{"strategy", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradebench_run_duration_seconds",
				Help:    "Backtest run duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"strategy"},
		),
		barsProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tradebench_bars_processed_total",
				Help: "Total number of bars processed by successful runs",
			},
		),
		tradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradebench_trades_total",
				Help: "Total number of closed trades",
			},
			[]string{"strategy"},
		),
	}

	m.registry.MustRegister(m.runsTotal, m.runDuration, m.barsProcessed, m.tradesTotal)
	return m
}

// ObserveRun records one finished run
func (m *Metrics) ObserveRun(strategy string, bars, trades int, duration time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailed
	}
	m.runsTotal.WithLabelValues(strategy, status).Inc()
	m.runDuration.WithLabelValues(strategy).Observe(duration.Seconds())

	if err == nil {
		m.barsProcessed.Add(float64(bars))
		m.tradesTotal.WithLabelValues(strategy).Add(float64(trades))
	}
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values in the text exposition format,
// suitable for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
