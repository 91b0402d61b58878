package backtest

import (
	"fmt"
	"time"

	"tradebench/internal/logging"
	"tradebench/internal/performance"
	"tradebench/internal/strategy"
	"tradebench/internal/types"
	"tradebench/pkg/trading"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fill reasons
const (
	ReasonEntrySignal   = "entry signal"
	ReasonExitSignal    = "exit signal"
	ReasonEndOfBacktest = "end of backtest"
)

// Config holds the parameters shared by every run of an engine
type Config struct {
	InitialCapital decimal.Decimal `json:"initial_capital"`
	FeeRate        decimal.Decimal `json:"fee_rate"`
	RiskFreeRate   float64         `json:"risk_free_rate"`
	Benchmark      *types.Series   `json:"-"`
}

// Observer is notified after every run, successful or not
type Observer interface {
	ObserveRun(strategy string, bars, trades int, duration time.Duration, err error)
}

// Result is the immutable outcome of one run
type Result struct {
	RunID    string        `json:"run_id"`
	Strategy string        `json:"strategy"`
	Symbol   string        `json:"symbol"`
	Bars     int           `json:"bars"`
	Interval time.Duration `json:"interval"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	FeeRate      decimal.Decimal `json:"fee_rate"`
	RiskFreeRate float64         `json:"risk_free_rate"`

	Positions []types.Position     `json:"positions"`
	Trades    []types.Trade        `json:"trades"`
	Fills     []types.Fill         `json:"fills"`
	Equity    []types.AccountState `json:"equity"`
	Metrics   types.MetricsResult  `json:"metrics"`

	Duration time.Duration `json:"duration"`
}

// Engine runs backtests. It holds no per-run state, so one engine can serve
// concurrent runs as long as each run gets its own series.
type Engine struct {
	config   Config
	logger   *logging.Logger
	observer Observer
}

// NewEngine creates a new backtesting engine
func NewEngine(cfg Config, logger *logging.Logger) (*Engine, error) {
	if !cfg.InitialCapital.IsPositive() {
		return nil, fmt.Errorf("initial capital must be positive")
	}
	if cfg.FeeRate.IsNegative() {
		return nil, fmt.Errorf("fee rate cannot be negative")
	}
	if logger == nil {
		logger = logging.CreateBacktestLogger()
	}
	return &Engine{config: cfg, logger: logger}, nil
}

// SetObserver registers a run observer
func (e *Engine) SetObserver(o Observer) {
	e.observer = o
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.config
}

// Run folds the series bar by bar: enter on the source's entry signal while
// flat, exit on its exit signal while invested, record one account state per
// bar and liquidate whatever is still open after the last bar.
func (e *Engine) Run(series *types.Series, source strategy.SignalSource) (*Result, error) {
	start := time.Now()

	if !series.IsEmpty() && series.Len() < source.Lookback() {
		err := &InsufficientBarsError{Need: source.Lookback(), Got: series.Len()}
		e.notify(source.Name(), series.Len(), 0, time.Since(start), err)
		return nil, err
	}

	account := trading.NewAccount(trading.AccountConfig{
		InitialCash: e.config.InitialCapital,
		FeeRate:     e.config.FeeRate,
	}, e.logger.Component("trading"))

	var positions []types.Position
	var open *types.Position
	last := series.Len() - 1

	for i := 0; i <= last; i++ {
		bar := series.Bar(i)

		if open == nil {
			// An entry on the final bar could only be closed on the same bar
			if i < last && source.ShouldEnter(i) {
				amount := account.Cash().Div(bar.Close).RoundFloor(trading.AmountScale)
				if _, ok := account.Buy(bar.OpenTime, bar.Close, amount, ReasonEntrySignal); ok {
					p := types.NewPosition(types.PositionSideLong, i, bar.Close)
					open = &p
				}
			}
		} else if source.ShouldExit(i) {
			if _, ok := account.SellAll(bar.OpenTime, bar.Close, ReasonExitSignal); ok {
				positions = append(positions, open.Close(i, bar.Close, ReasonExitSignal))
				open = nil
			}
		}

		account.RecordState(bar.OpenTime, bar.Close)
	}

	if open != nil {
		bar := series.Last()
		account.SellAll(bar.OpenTime, bar.Close, ReasonEndOfBacktest)
		positions = append(positions, open.Close(last, bar.Close, ReasonEndOfBacktest))
	}

	trades := indexTrades(account.Trades(), positions)
	final := account.Cash()

	result := e.newResult(series, source.Name())
	result.Positions = positions
	result.Trades = trades
	result.Fills = account.Fills()
	result.Equity = account.States()
	result.Metrics = performance.Calculate(performance.Input{
		Series:         series,
		Positions:      positions,
		Trades:         trades,
		InitialCapital: e.config.InitialCapital,
		FinalCapital:   final,
		TotalProfit:    final.Sub(e.config.InitialCapital),
		TotalFees:      account.TotalFees(),
		RiskFreeRate:   e.config.RiskFreeRate,
		Benchmark:      e.config.Benchmark,
		Logger:         e.logger.Component("performance"),
	})
	result.Duration = time.Since(start)

	e.logger.LogRun(result.RunID, result.Strategy, result.Bars, len(trades), result.Duration)
	e.notify(result.Strategy, result.Bars, len(trades), result.Duration, nil)

	return result, nil
}

// Settle evaluates pre-computed positions with compounding settlement. The
// result carries no fills or equity curve.
func (e *Engine) Settle(series *types.Series, name string, positions []types.Position) (*Result, error) {
	start := time.Now()

	trades, err := Settle(series, positions, e.config.InitialCapital, e.config.FeeRate, e.logger)
	if err != nil {
		e.notify(name, series.Len(), 0, time.Since(start), err)
		return nil, err
	}

	final := e.config.InitialCapital
	fees := decimal.Zero
	for _, t := range trades {
		final = t.ExitCapital
		fees = fees.Add(t.Fee)
	}

	closed := closedPositions(positions)

	result := e.newResult(series, name)
	result.Positions = closed
	result.Trades = trades
	result.Metrics = performance.Calculate(performance.Input{
		Series:         series,
		Positions:      closed,
		Trades:         trades,
		InitialCapital: e.config.InitialCapital,
		FinalCapital:   final,
		TotalProfit:    final.Sub(e.config.InitialCapital),
		TotalFees:      fees,
		RiskFreeRate:   e.config.RiskFreeRate,
		Benchmark:      e.config.Benchmark,
		Logger:         e.logger.Component("performance"),
	})
	result.Duration = time.Since(start)

	e.logger.LogRun(result.RunID, result.Strategy, result.Bars, len(trades), result.Duration)
	e.notify(name, result.Bars, len(trades), result.Duration, nil)

	return result, nil
}

func (e *Engine) newResult(series *types.Series, name string) *Result {
	result := &Result{
		RunID:        uuid.NewString(),
		Strategy:     name,
		Bars:         series.Len(),
		Interval:     types.DefaultInterval,
		FeeRate:      e.config.FeeRate,
		RiskFreeRate: e.config.RiskFreeRate,
	}
	if series != nil {
		result.Symbol = series.Name
		result.Interval = series.Interval
	}
	if !series.IsEmpty() {
		result.StartTime = series.Bar(0).OpenTime
		result.EndTime = series.Last().OpenTime
	}
	return result
}

func (e *Engine) notify(name string, bars, trades int, d time.Duration, err error) {
	if e.observer != nil {
		e.observer.ObserveRun(name, bars, trades, d, err)
	}
}

// indexTrades copies bar indices from positions onto the matching trades.
// The account closes exactly one trade per position, in the same order.
func indexTrades(trades []types.Trade, positions []types.Position) []types.Trade {
	for k := range trades {
		if k >= len(positions) {
			break
		}
		trades[k].EntryIndex = positions[k].EntryIndex
		trades[k].ExitIndex = positions[k].ExitIndex
	}
	return trades
}

func closedPositions(positions []types.Position) []types.Position {
	closed := make([]types.Position, 0, len(positions))
	for _, p := range positions {
		if !p.IsOpen() {
			closed = append(closed, p)
		}
	}
	return closed
}
