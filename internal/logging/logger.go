package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"tradebench/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a logrus entry so component fields survive chaining
type Logger struct {
	*logrus.Entry
}

// Log levels
const (
	DebugLevel = logrus.DebugLevel
	InfoLevel  = logrus.InfoLevel
	WarnLevel  = logrus.WarnLevel
	ErrorLevel = logrus.ErrorLevel
)

// Global logger instance
var globalLogger *Logger

// NewLogger creates a new logger with the given configuration
func NewLogger(cfg config.LoggingConfig) *Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	var output io.Writer
	switch cfg.Output {
	case "file":
		output = createFileWriter(cfg)
	case "both":
		output = io.MultiWriter(os.Stdout, createFileWriter(cfg))
	default:
		output = os.Stdout
	}
	logger.SetOutput(output)

	return FromLogrus(logger)
}

// FromLogrus wraps an existing logrus logger, e.g. a test null logger
func FromLogrus(logger *logrus.Logger) *Logger {
	return &Logger{Entry: logrus.NewEntry(logger)}
}

// createFileWriter creates a rotating file writer
func createFileWriter(cfg config.LoggingConfig) io.Writer {
	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		fmt.Printf("Warning: Failed to create log directory: %v\n", err)
		return os.Stdout
	}

	filename := cfg.Filename
	if filename == "" {
		filename = "tradebench.log"
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Directory, filename),
		MaxSize:    cfg.MaxSize, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge, // days
		Compress:   cfg.Compress,
	}
}

// InitGlobalLogger initializes the global logger
func InitGlobalLogger(cfg config.LoggingConfig) *Logger {
	globalLogger = NewLogger(cfg)
	return globalLogger
}

// SetGlobalLogger replaces the global logger
func SetGlobalLogger(l *Logger) {
	globalLogger = l
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		globalLogger = NewLogger(config.LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		})
	}
	return globalLogger
}

// NewComponentLogger creates a logger for a specific component
func NewComponentLogger(component string) *Logger {
	return GetGlobalLogger().Component(component)
}

// Component returns a child logger tagged with the component name
func (l *Logger) Component(component string) *Logger {
	return &Logger{Entry: l.Entry.WithField("component", component)}
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{Entry: l.Entry.WithFields(fields)}
}

// WithField returns a logger with an additional field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{Entry: l.Entry.WithField(key, value)}
}

// WithError returns a logger with an error field
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Entry: l.Entry.WithError(err)}
}

// Domain-specific logging methods

// LogTrade logs an executed fill
func (l *Logger) LogTrade(side string, amount, price, fee fmt.Stringer, reason string) {
	l.Entry.WithFields(logrus.Fields{
		"event":  "trade",
		"side":   side,
		"amount": amount.String(),
		"price":  price.String(),
		"fee":    fee.String(),
		"reason": reason,
	}).Info("Trade executed")
}

// LogClamp logs an order that was downsized to the feasible maximum
func (l *Logger) LogClamp(side string, requested, clamped fmt.Stringer, reason string) {
	l.Entry.WithFields(logrus.Fields{
		"event":     "clamp",
		"side":      side,
		"requested": requested.String(),
		"clamped":   clamped.String(),
		"reason":    reason,
	}).Debug("Order amount clamped")
}

// LogRun logs the completion of one backtest run
func (l *Logger) LogRun(runID, strategy string, bars, trades int, duration time.Duration) {
	l.Entry.WithFields(logrus.Fields{
		"event":    "run",
		"run_id":   runID,
		"strategy": strategy,
		"bars":     bars,
		"trades":   trades,
		"duration": duration.String(),
	}).Info("Backtest run completed")
}

// LogPerformance logs the headline metrics of a run
func (l *Logger) LogPerformance(totalReturn, winRate, sharpe, maxDrawdown fmt.Stringer, tradeCount int) {
	l.Entry.WithFields(logrus.Fields{
		"event":        "performance",
		"total_return": totalReturn.String(),
		"win_rate":     winRate.String(),
		"sharpe_ratio": sharpe.String(),
		"max_drawdown": maxDrawdown.String(),
		"trade_count":  tradeCount,
	}).Info("Performance metrics")
}

// LogError logs an error with context
func (l *Logger) LogError(operation string, err error, context map[string]interface{}) {
	fields := logrus.Fields{
		"event":     "error",
		"operation": operation,
		"error":     err.Error(),
	}
	for k, v := range context {
		fields[k] = v
	}
	l.Entry.WithFields(fields).Error("Operation failed")
}

// LogSystem logs system-level events
func (l *Logger) LogSystem(event string, message string, details map[string]interface{}) {
	fields := logrus.Fields{
		"event":   "system",
		"type":    event,
		"message": message,
	}
	for k, v := range details {
		fields[k] = v
	}
	l.Entry.WithFields(fields).Info("System event")
}

// CreateDataLogger creates a logger for data loading
func CreateDataLogger() *Logger {
	return NewComponentLogger("data")
}

// CreateTradingLogger creates a logger for the account simulator
func CreateTradingLogger() *Logger {
	return NewComponentLogger("trading")
}

// CreateBacktestLogger creates a logger for the backtest engine
func CreateBacktestLogger() *Logger {
	return NewComponentLogger("backtest")
}

// CreatePerformanceLogger creates a logger for metrics calculation
func CreatePerformanceLogger() *Logger {
	return NewComponentLogger("performance")
}

// CreateStoreLogger creates a logger for result persistence
func CreateStoreLogger() *Logger {
	return NewComponentLogger("store")
}
