package backtest

import (
	"context"
	"errors"
	"fmt"

	"tradebench/internal/strategy"
	"tradebench/internal/types"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// SweepParams is one point of a parameter grid
type SweepParams struct {
	Strategy string          `json:"strategy"`
	Params   strategy.Params `json:"params"`
}

// SweepResult is the outcome of one grid point. Failed runs carry Err.
type SweepResult struct {
	SweepParams
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// Sweeper runs independent backtests over a parameter grid concurrently
type Sweeper struct {
	engine   *Engine
	registry *strategy.Registry
	workers  int
}

// NewSweeper creates a sweeper with the given worker limit
func NewSweeper(engine *Engine, registry *strategy.Registry, workers int) *Sweeper {
	if workers <= 0 {
		workers = 1
	}
	if registry == nil {
		registry = strategy.NewRegistry()
	}
	return &Sweeper{engine: engine, registry: registry, workers: workers}
}

// Run evaluates every grid point against the series. Results keep grid
// order. Per-run failures are recorded in the result; only context
// cancellation aborts the sweep.
func (s *Sweeper) Run(ctx context.Context, series *types.Series, grid []SweepParams) ([]SweepResult, error) {
	results := make([]SweepResult, len(grid))
	sem := make(chan struct{}, s.workers)

	g, gctx := errgroup.WithContext(ctx)

	for i, point := range grid {
		i, point := i, point
		results[i].SweepParams = point

		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			if err := gctx.Err(); err != nil {
				return err
			}

			source, err := s.registry.Create(point.Strategy, series, point.Params)
			if err != nil {
				results[i].Err = err
				return nil
			}

			result, err := s.engine.Run(series, source)
			results[i].Result = result
			results[i].Err = err
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("sweep aborted: %w", err)
	}
	return results, nil
}

// Grid builds sweep points for one strategy from period pairs
func Grid(name string, pairs [][2]int) []SweepParams {
	grid := make([]SweepParams, 0, len(pairs))
	for _, pair := range pairs {
		grid = append(grid, SweepParams{
			Strategy: name,
			Params:   strategy.Params{ShortPeriod: pair[0], LongPeriod: pair[1]},
		})
	}
	return grid
}

// RankBy selects the statistic used to pick the best sweep result
type RankBy string

const (
	RankBySharpe      RankBy = "sharpe"
	RankByTotalReturn RankBy = "total_return"
)

// ErrNoSuccessfulRuns is returned by Best when every run failed
var ErrNoSuccessfulRuns = errors.New("no successful sweep runs")

// Best returns the successful result with the highest statistic. Ties keep
// the earliest grid point.
func Best(results []SweepResult, by RankBy) (SweepResult, error) {
	best := -1
	for i, r := range results {
		if r.Err != nil || r.Result == nil {
			continue
		}
		if best < 0 || rankValue(r.Result, by).GreaterThan(rankValue(results[best].Result, by)) {
			best = i
		}
	}
	if best < 0 {
		return SweepResult{}, ErrNoSuccessfulRuns
	}
	return results[best], nil
}

func rankValue(r *Result, by RankBy) decimal.Decimal {
	if by == RankByTotalReturn {
		return r.Metrics.TotalReturn
	}
	return r.Metrics.SharpeRatio
}
