package backtest

import (
	"context"
	"testing"

	"tradebench/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepRunKeepsGridOrder(t *testing.T) {
	series := rallyThenSlide()
	sweeper := NewSweeper(newTestEngine(t, "0.002"), strategy.NewRegistry(), 3)

	grid := Grid("sma_cross", [][2]int{{5, 20}, {3, 10}, {20, 5}, {2, 8}})
	results, err := sweeper.Run(context.Background(), series, grid)
	require.NoError(t, err)
	require.Len(t, results, len(grid))

	for i, r := range results {
		assert.Equal(t, grid[i], r.SweepParams)
	}

	assert.NoError(t, results[0].Err)
	assert.Equal(t, "sma_cross(5,20)", results[0].Result.Strategy)
	assert.ErrorIs(t, results[2].Err, strategy.ErrInvalidPeriods, "bad grid point fails alone")
	assert.NoError(t, results[3].Err)
}

func TestSweepMatchesSingleRun(t *testing.T) {
	series := rallyThenSlide()
	engine := newTestEngine(t, "0.002")

	single, err := engine.Run(series, smaCross(t, series, 5, 20))
	require.NoError(t, err)

	results, err := NewSweeper(engine, nil, 0).Run(context.Background(), series, Grid("sma_cross", [][2]int{{5, 20}}))
	require.NoError(t, err)
	require.NoError(t, results[0].Err)
	assert.Equal(t, single.Metrics, results[0].Result.Metrics)
}

func TestSweepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sweeper := NewSweeper(newTestEngine(t, "0"), nil, 1)
	_, err := sweeper.Run(ctx, rallyThenSlide(), Grid("sma_cross", [][2]int{{5, 20}, {3, 10}}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBest(t *testing.T) {
	low := &Result{Strategy: "a"}
	low.Metrics.SharpeRatio = d("0.5")
	low.Metrics.TotalReturn = d("0.3")
	high := &Result{Strategy: "b"}
	high.Metrics.SharpeRatio = d("1.5")
	high.Metrics.TotalReturn = d("0.1")

	results := []SweepResult{
		{Result: low},
		{Err: assert.AnError},
		{Result: high},
	}

	best, err := Best(results, RankBySharpe)
	require.NoError(t, err)
	assert.Equal(t, "b", best.Result.Strategy)

	best, err = Best(results, RankByTotalReturn)
	require.NoError(t, err)
	assert.Equal(t, "a", best.Result.Strategy)

	_, err = Best([]SweepResult{{Err: assert.AnError}}, RankBySharpe)
	assert.ErrorIs(t, err, ErrNoSuccessfulRuns)
}
