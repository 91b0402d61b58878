package backtest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tradebench/internal/config"
	"tradebench/internal/types"

	"github.com/shopspring/decimal"
)

// ReportFiles lists the files written by SaveResults
type ReportFiles struct {
	JSON   string `json:"json"`
	Trades string `json:"trades,omitempty"`
	Equity string `json:"equity,omitempty"`
}

// SaveResults writes the result as JSON plus optional CSV exports
func SaveResults(result *Result, cfg config.OutputConfig) (ReportFiles, error) {
	var files ReportFiles

	if err := os.MkdirAll(cfg.ResultsDirectory, 0755); err != nil {
		return files, fmt.Errorf("failed to create results directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	baseName := fmt.Sprintf("backtest_%s_%s", sanitize(result.Strategy), timestamp)
	if len(result.RunID) >= 8 {
		baseName += "_" + result.RunID[:8]
	}
	base := filepath.Join(cfg.ResultsDirectory, baseName)

	files.JSON = base + ".json"
	if err := saveJSONResults(result, files.JSON); err != nil {
		return files, err
	}

	if cfg.ExportTrades {
		files.Trades = base + "_trades.csv"
		if err := exportTrades(result, files.Trades); err != nil {
			return files, err
		}
	}

	if cfg.ExportEquity && len(result.Equity) > 0 {
		files.Equity = base + "_equity.csv"
		if err := exportEquity(result, files.Equity); err != nil {
			return files, err
		}
	}

	return files, nil
}

// saveJSONResults saves results as JSON
func saveJSONResults(result *Result, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}

// exportTrades exports the trade ledger to CSV
func exportTrades(result *Result, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create trades file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{"EntryTime", "ExitTime", "Side", "EntryPrice", "ExitPrice", "Amount", "Fee", "Profit", "ProfitPercentage", "Reason", "Duration"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, trade := range result.Trades {
		record := []string{
			trade.EntryTime.Format(time.RFC3339),
			trade.ExitTime.Format(time.RFC3339),
			string(trade.Side),
			trade.EntryPrice.String(),
			trade.ExitPrice.String(),
			trade.EntryAmount.String(),
			trade.Fee.StringFixed(8),
			trade.Profit.StringFixed(8),
			trade.ProfitPercentage.StringFixed(types.PercentScale),
			trade.ExitReason,
			trade.Duration().String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// exportEquity exports the per-bar equity curve with running drawdown
func exportEquity(result *Result, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create equity file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{"Timestamp", "Cash", "PositionUnits", "MarkPrice", "TotalBalance", "PeakBalance", "Drawdown"}
	if err := writer.Write(header); err != nil {
		return err
	}

	peak := decimal.Zero
	for _, state := range result.Equity {
		if state.TotalBalance.GreaterThan(peak) {
			peak = state.TotalBalance
		}
		drawdown := decimal.Zero
		if peak.IsPositive() {
			drawdown = peak.Sub(state.TotalBalance).DivRound(peak, 4)
		}

		record := []string{
			state.Time.Format(time.RFC3339),
			state.Cash.StringFixed(8),
			state.PositionUnits.String(),
			state.MarkPrice.String(),
			state.TotalBalance.StringFixed(8),
			peak.StringFixed(8),
			drawdown.StringFixed(4),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, name)
}
