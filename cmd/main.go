package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"tradebench/internal/backtest"
	"tradebench/internal/config"
	"tradebench/internal/data"
	"tradebench/internal/logging"
	"tradebench/internal/monitoring"
	"tradebench/internal/store"
	"tradebench/internal/strategy"
	"tradebench/internal/types"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	// Application constants
	AppName           = "tradebench"
	AppVersion        = "1.0.0"
	DefaultConfigPath = "./config.json"
)

var (
	// Command line flags
	configPath    = flag.String("config", DefaultConfigPath, "Path to configuration file (.json, .yaml)")
	dataFile      = flag.String("data", "", "Candle file (.csv or .parquet), overrides config")
	symbol        = flag.String("symbol", "", "Instrument symbol, overrides config")
	benchmarkFile = flag.String("benchmark", "", "Benchmark candle file for alpha/beta")
	strategyName  = flag.String("strategy", "", "Strategy name (sma_cross, ema_cross)")
	shortPeriod   = flag.Int("short", 0, "Short moving average period")
	longPeriod    = flag.Int("long", 0, "Long moving average period")
	feeRate       = flag.String("fee", "", "Fee rate per side, e.g. 0.002")
	capital       = flag.String("capital", "", "Initial capital")
	sweep         = flag.String("sweep", "", "Parameter sweep as short:long pairs, e.g. 5:20,10:30")
	debugMode     = flag.Bool("debug", false, "Enable debug mode")
	version       = flag.Bool("version", false, "Show version information")
	help          = flag.Bool("help", false, "Show help information")

	logger *logging.Logger
)

func init() {
	flag.Usage = printUsage
}

func main() {
	flag.Parse()

	if *version {
		printVersion()
		os.Exit(0)
	}

	if *help {
		printUsage()
		os.Exit(0)
	}

	cfg, err := initializeApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		logger.LogError("backtest", err, nil)
		os.Exit(1)
	}
}

// initializeApplication loads configuration, applies flag overrides and
// sets up logging.
func initializeApplication() (*config.Config, error) {
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := applyFlags(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	logger = logging.InitGlobalLogger(cfg.Logging)

	logger.WithFields(logrus.Fields{
		"version":     AppVersion,
		"environment": cfg.App.Environment,
		"config_path": *configPath,
		"debug_mode":  cfg.App.Debug,
	}).Info("Starting tradebench")

	return cfg, nil
}

// applyFlags copies explicitly set command line flags over the configuration
func applyFlags(cfg *config.Config) error {
	var err error
	flag.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "data":
			cfg.Data.File = *dataFile
		case "symbol":
			cfg.Data.Symbol = *symbol
		case "benchmark":
			cfg.Data.BenchmarkFile = *benchmarkFile
		case "strategy":
			cfg.Backtest.Strategy = *strategyName
		case "short":
			cfg.Backtest.ShortPeriod = *shortPeriod
		case "long":
			cfg.Backtest.LongPeriod = *longPeriod
		case "fee":
			cfg.Backtest.FeeRate, err = decimal.NewFromString(*feeRate)
		case "capital":
			cfg.Backtest.InitialCapital, err = decimal.NewFromString(*capital)
		case "sweep":
			cfg.Backtest.Sweep, err = parseSweep(*sweep)
		case "debug":
			cfg.App.Debug = *debugMode
			if *debugMode {
				cfg.Logging.Level = "debug"
			}
		}
		if err != nil {
			err = fmt.Errorf("invalid -%s: %w", f.Name, err)
		}
	})
	return err
}

// parseSweep parses "5:20,10:30" into period pairs
func parseSweep(value string) ([]config.PeriodPair, error) {
	var pairs []config.PeriodPair
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("expected short:long, got %q", item)
		}
		short, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid short period %q", parts[0])
		}
		long, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid long period %q", parts[1])
		}
		pairs = append(pairs, config.PeriodPair{Short: short, Long: long})
	}
	return pairs, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	series, err := loadSeries(cfg.Data.File, cfg.Data, cfg.Data.Symbol)
	if err != nil {
		return err
	}

	engineCfg := backtest.Config{
		InitialCapital: cfg.Backtest.InitialCapital,
		FeeRate:        cfg.Backtest.FeeRate,
		RiskFreeRate:   cfg.Backtest.RiskFreeRate,
	}
	if cfg.Data.BenchmarkFile != "" {
		engineCfg.Benchmark, err = loadSeries(cfg.Data.BenchmarkFile, cfg.Data, "benchmark")
		if err != nil {
			return fmt.Errorf("failed to load benchmark: %w", err)
		}
	}

	engine, err := backtest.NewEngine(engineCfg, logging.CreateBacktestLogger())
	if err != nil {
		return err
	}

	var metrics *monitoring.Metrics
	if cfg.Monitoring.Enabled {
		metrics = monitoring.NewMetrics()
		engine.SetObserver(metrics)
	}

	recorder, err := openRecorder(cfg.Output)
	if err != nil {
		return err
	}
	defer recorder.Close()

	registry := strategy.NewRegistry()

	var results []*backtest.Result
	if len(cfg.Backtest.Sweep) > 0 {
		results, err = runSweep(ctx, cfg, engine, registry, series)
	} else {
		var result *backtest.Result
		result, err = runSingle(cfg, engine, registry, series)
		results = append(results, result)
	}
	if err != nil {
		return err
	}

	for _, result := range results {
		files, err := backtest.SaveResults(result, cfg.Output)
		if err != nil {
			return err
		}
		logger.WithField("json", files.JSON).Infof("Results saved to %s", cfg.Output.ResultsDirectory)

		if err := recorder.SaveRun(ctx, result); err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
		printSummary(result)
	}

	if metrics != nil {
		if err := metrics.WriteTextfile(cfg.Monitoring.TextfilePath); err != nil {
			return err
		}
	}
	return nil
}

func runSingle(cfg *config.Config, engine *backtest.Engine, registry *strategy.Registry, series *types.Series) (*backtest.Result, error) {
	source, err := registry.Create(cfg.Backtest.Strategy, series, strategy.Params{
		ShortPeriod: cfg.Backtest.ShortPeriod,
		LongPeriod:  cfg.Backtest.LongPeriod,
	})
	if err != nil {
		return nil, err
	}

	result, err := engine.Run(series, source)
	if err != nil {
		return nil, fmt.Errorf("backtest failed: %w", err)
	}
	m := result.Metrics
	logger.LogPerformance(m.TotalReturn, m.WinRate, m.SharpeRatio, m.MaxDrawdown, m.TotalTrades)
	return result, nil
}

func runSweep(ctx context.Context, cfg *config.Config, engine *backtest.Engine, registry *strategy.Registry, series *types.Series) ([]*backtest.Result, error) {
	pairs := make([][2]int, len(cfg.Backtest.Sweep))
	for i, p := range cfg.Backtest.Sweep {
		pairs[i] = [2]int{p.Short, p.Long}
	}

	sweeper := backtest.NewSweeper(engine, registry, cfg.Backtest.SweepWorkers)
	sweepResults, err := sweeper.Run(ctx, series, backtest.Grid(cfg.Backtest.Strategy, pairs))
	if err != nil {
		return nil, err
	}

	var results []*backtest.Result
	for _, r := range sweepResults {
		if r.Err != nil {
			logger.Warnf("Sweep %d:%d failed: %v", r.Params.ShortPeriod, r.Params.LongPeriod, r.Err)
			continue
		}
		results = append(results, r.Result)
	}

	best, err := backtest.Best(sweepResults, backtest.RankBySharpe)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"strategy": best.Result.Strategy,
		"sharpe":   best.Result.Metrics.SharpeRatio.String(),
		"return":   best.Result.Metrics.TotalReturn.String(),
	}).Info("Best sweep result")

	return results, nil
}

// loadSeries loads a candle file, or looks it up by symbol in the data directory
func loadSeries(path string, cfg config.DataConfig, name string) (*types.Series, error) {
	if path == "" {
		found, err := data.FindCSV(cfg.Directory, cfg.Symbol, cfg.Interval)
		if err != nil {
			return nil, err
		}
		path = found
	}

	candles, err := data.LoadCandles(path, cfg.Format, cfg.Symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to load candles: %w", err)
	}

	series, err := data.BuildSeries(candles, name)
	if err != nil {
		return nil, fmt.Errorf("failed to build series from %s: %w", path, err)
	}

	// Finer input is aggregated up to the configured bar size
	if interval, err := data.ParseTimeframe(cfg.Interval); err == nil && interval > series.Interval && series.Len() > 1 {
		series, err = data.Resample(series, interval)
		if err != nil {
			return nil, err
		}
		logger.Infof("Resampled %s to %s bars (%d bars)", name, cfg.Interval, series.Len())
	}
	return series, nil
}

func openRecorder(cfg config.OutputConfig) (store.Recorder, error) {
	if cfg.DatabasePath == "" {
		return store.NopRecorder{}, nil
	}
	s, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open result store: %w", err)
	}
	return s, nil
}

func printSummary(r *backtest.Result) {
	m := r.Metrics
	fmt.Printf(`
%s on %s (%d bars)
  Trades:        %d (win rate %s%%)
  Final capital: %s
  Total return:  %s
  Max drawdown:  %s
  Sharpe:        %s
  Sortino:       %s
`, r.Strategy, r.Symbol, r.Bars, m.TotalTrades, m.WinRate.StringFixed(2),
		m.FinalCapital.StringFixed(2), m.TotalReturn.StringFixed(4), m.MaxDrawdown.StringFixed(4),
		m.SharpeRatio.StringFixed(4), m.SortinoRatio.StringFixed(4))
}

// printUsage prints command line usage information
func printUsage() {
	fmt.Printf(`%s - %s

Usage: %s [options]

Options:
`, AppName, AppVersion, os.Args[0])
	flag.PrintDefaults()
	fmt.Printf(`
Examples:
  %s -data ./data/BTCUSDT_1d.csv                 # Run the default SMA crossover
  %s -config ./backtest.yaml -short 10 -long 50  # Override periods
  %s -data ./data/btc.parquet -sweep 5:20,10:30  # Parameter sweep
  %s -version                                    # Show version

Environment Variables:
  TRADEBENCH_DATA_FILE          Candle file
  TRADEBENCH_SYMBOL             Instrument symbol
  TRADEBENCH_FEE_RATE           Fee rate per side
  TRADEBENCH_INITIAL_CAPITAL    Initial capital
  TRADEBENCH_RISK_FREE_RATE     Annualized risk-free rate
  TRADEBENCH_DB_PATH            SQLite result database
  TRADEBENCH_LOG_LEVEL          Override log level (debug, info, warn, error)

Configuration:
  A configuration file will be created with default values if it doesn't exist.
  The default configuration file location is: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], DefaultConfigPath)
}

// printVersion prints version information
func printVersion() {
	fmt.Printf(`%s %s

Go Version: %s
GOOS: %s
GOARCH: %s
`, AppName, AppVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
