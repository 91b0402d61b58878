package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `json:"app" yaml:"app"`
	Backtest   BacktestConfig   `json:"backtest" yaml:"backtest"`
	Data       DataConfig       `json:"data" yaml:"data"`
	Output     OutputConfig     `json:"output" yaml:"output"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
	Monitoring MonitoringConfig `json:"monitoring" yaml:"monitoring"`
}

// AppConfig contains basic application configuration
type AppConfig struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	Environment string `json:"environment" yaml:"environment"` // "development", "production", "test"
	Debug       bool   `json:"debug" yaml:"debug"`
}

// PeriodPair is one short/long moving average combination
type PeriodPair struct {
	Short int `json:"short" yaml:"short"`
	Long  int `json:"long" yaml:"long"`
}

// BacktestConfig contains simulation parameters
type BacktestConfig struct {
	Strategy       string          `json:"strategy" yaml:"strategy"`
	InitialCapital decimal.Decimal `json:"initial_capital" yaml:"initial_capital"`
	FeeRate        decimal.Decimal `json:"fee_rate" yaml:"fee_rate"`
	RiskFreeRate   float64         `json:"risk_free_rate" yaml:"risk_free_rate"` // annualized

	ShortPeriod int `json:"short_period" yaml:"short_period"`
	LongPeriod  int `json:"long_period" yaml:"long_period"`

	// Parameter sweep
	Sweep        []PeriodPair `json:"sweep,omitempty" yaml:"sweep,omitempty"`
	SweepWorkers int          `json:"sweep_workers" yaml:"sweep_workers"`
}

// DataConfig describes where candles come from
type DataConfig struct {
	Directory     string `json:"directory" yaml:"directory"`
	File          string `json:"file" yaml:"file"` // overrides directory lookup
	Symbol        string `json:"symbol" yaml:"symbol"`
	Interval      string `json:"interval" yaml:"interval"`
	Format        string `json:"format" yaml:"format"` // "csv", "parquet" or empty to detect by extension
	BenchmarkFile string `json:"benchmark_file,omitempty" yaml:"benchmark_file,omitempty"`
}

// OutputConfig controls result export and persistence
type OutputConfig struct {
	ResultsDirectory string `json:"results_directory" yaml:"results_directory"`
	ExportTrades     bool   `json:"export_trades" yaml:"export_trades"`
	ExportEquity     bool   `json:"export_equity" yaml:"export_equity"`
	DatabasePath     string `json:"database_path" yaml:"database_path"` // empty disables the recorder
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level     string `json:"level" yaml:"level"`         // "debug", "info", "warn", "error"
	Format    string `json:"format" yaml:"format"`       // "json", "text"
	Output    string `json:"output" yaml:"output"`       // "stdout", "file", "both"
	Directory string `json:"directory" yaml:"directory"` // Log file directory
	Filename  string `json:"filename" yaml:"filename"`

	// File rotation
	MaxSize    int  `json:"max_size" yaml:"max_size"`       // Max MB per file
	MaxBackups int  `json:"max_backups" yaml:"max_backups"` // Max number of old files
	MaxAge     int  `json:"max_age" yaml:"max_age"`         // Max days to retain
	Compress   bool `json:"compress" yaml:"compress"`
}

// MonitoringConfig controls the Prometheus textfile export
type MonitoringConfig struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	TextfilePath string `json:"textfile_path" yaml:"textfile_path"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "tradebench",
			Version:     "1.0.0",
			Environment: "development",
		},
		Backtest: BacktestConfig{
			Strategy:       "sma_cross",
			InitialCapital: decimal.NewFromInt(10000),
			FeeRate:        decimal.RequireFromString("0.002"), // 0.2% per side
			RiskFreeRate:   0.02,
			ShortPeriod:    5,
			LongPeriod:     20,
			SweepWorkers:   4,
		},
		Data: DataConfig{
			Directory: "data",
			Symbol:    "BTCUSDT",
			Interval:  "1d",
		},
		Output: OutputConfig{
			ResultsDirectory: "results",
			ExportTrades:     true,
			ExportEquity:     true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			Directory:  "logs",
			Filename:   "tradebench.log",
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		},
		Monitoring: MonitoringConfig{
			TextfilePath: "results/tradebench.prom",
		},
	}
}

// LoadConfig loads configuration from a JSON or YAML file. A missing file
// is created with the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		defaultConfig := DefaultConfig()
		if err := SaveConfig(defaultConfig, configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		defaultConfig.ApplyEnvOverrides()
		return defaultConfig, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if isYAML(configPath) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveConfig writes the configuration, choosing the encoding by extension
func SaveConfig(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	if isYAML(configPath) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// ApplyEnvOverrides lets TRADEBENCH_* variables replace file values
func (c *Config) ApplyEnvOverrides() {
	c.Data.File = GetEnv("TRADEBENCH_DATA_FILE", c.Data.File)
	c.Data.Symbol = GetEnv("TRADEBENCH_SYMBOL", c.Data.Symbol)
	c.Output.DatabasePath = GetEnv("TRADEBENCH_DB_PATH", c.Output.DatabasePath)
	c.Logging.Level = GetEnv("TRADEBENCH_LOG_LEVEL", c.Logging.Level)
	c.App.Debug = GetEnvBool("TRADEBENCH_DEBUG", c.App.Debug)
	c.Backtest.RiskFreeRate = GetEnvFloat("TRADEBENCH_RISK_FREE_RATE", c.Backtest.RiskFreeRate)
	c.Backtest.ShortPeriod = GetEnvInt("TRADEBENCH_SHORT_PERIOD", c.Backtest.ShortPeriod)
	c.Backtest.LongPeriod = GetEnvInt("TRADEBENCH_LONG_PERIOD", c.Backtest.LongPeriod)

	if v := GetEnv("TRADEBENCH_FEE_RATE", ""); v != "" {
		if fee, err := decimal.NewFromString(v); err == nil {
			c.Backtest.FeeRate = fee
		}
	}
	if v := GetEnv("TRADEBENCH_INITIAL_CAPITAL", ""); v != "" {
		if capital, err := decimal.NewFromString(v); err == nil {
			c.Backtest.InitialCapital = capital
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}

	// Backtest parameters
	if !c.Backtest.InitialCapital.IsPositive() {
		return fmt.Errorf("initial capital must be positive")
	}
	if c.Backtest.FeeRate.IsNegative() || c.Backtest.FeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("fee rate must be between 0 and 1")
	}
	if err := validatePeriods(c.Backtest.ShortPeriod, c.Backtest.LongPeriod); err != nil {
		return err
	}
	for _, pair := range c.Backtest.Sweep {
		if err := validatePeriods(pair.Short, pair.Long); err != nil {
			return fmt.Errorf("sweep %d:%d: %w", pair.Short, pair.Long, err)
		}
	}
	if c.Backtest.SweepWorkers < 0 {
		return fmt.Errorf("sweep workers cannot be negative")
	}

	switch c.Data.Format {
	case "", "csv", "parquet":
	default:
		return fmt.Errorf("invalid data format: %s", c.Data.Format)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	levelValid := false
	for _, level := range validLevels {
		if c.Logging.Level == level {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Monitoring.Enabled && c.Monitoring.TextfilePath == "" {
		return fmt.Errorf("monitoring textfile path is required when monitoring is enabled")
	}

	return nil
}

func validatePeriods(short, long int) error {
	if short <= 0 || long <= 0 {
		return fmt.Errorf("moving average periods must be positive")
	}
	if short >= long {
		return fmt.Errorf("short period must be less than long period")
	}
	return nil
}

// GetEnv returns environment variable with default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvBool returns boolean environment variable with default value
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

// GetEnvFloat returns float environment variable with default value
func GetEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvInt returns integer environment variable with default value
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
