package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tradebench/internal/logging"
	"tradebench/internal/types"

	"github.com/shopspring/decimal"
)

// Accepted header names per column
var columnAliases = map[string][]string{
	"open_time":  {"timestamp", "open_time", "time", "date", "datetime"},
	"close_time": {"close_time"},
	"open":       {"open", "o"},
	"high":       {"high", "h"},
	"low":        {"low", "l"},
	"close":      {"close", "c"},
	"volume":     {"volume", "vol", "v"},
}

var requiredColumns = []string{"open_time", "open", "high", "low", "close"}

var timestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006/01/02 15:04:05",
	"2006-01-02",
}

// FindCSV locates the candle file for a symbol, trying common naming conventions
func FindCSV(dir, symbol, interval string) (string, error) {
	candidates := []string{
		filepath.Join(dir, symbol+".csv"),
		filepath.Join(dir, strings.ToLower(symbol)+".csv"),
		filepath.Join(dir, strings.ToUpper(symbol)+".csv"),
	}
	if interval != "" {
		candidates = append(candidates,
			filepath.Join(dir, symbol+"_"+interval+".csv"),
			filepath.Join(dir, strings.ToLower(symbol)+"_"+interval+".csv"),
		)
	}

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("CSV file not found for symbol %s (tried: %v)", symbol, candidates)
}

// LoadCSV reads candles from a CSV file with a header row
func LoadCSV(path, symbol string) ([]types.Candle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, symbol)
}

// ReadCSV parses candles from CSV input. Unparseable lines are skipped;
// empty price cells yield candles with null fields.
func ReadCSV(r io.Reader, symbol string) ([]types.Candle, error) {
	logger := logging.CreateDataLogger()
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var candles []types.Candle
	lineNumber := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNumber++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record at line %d: %w", lineNumber, err)
		}

		if isBlank(record) {
			continue
		}

		candle, err := parseCSVRecord(record, columns, symbol)
		if err != nil {
			logger.Warnf("Skipping line %d due to parse error: %v", lineNumber, err)
			continue
		}
		candles = append(candles, candle)
	}

	logger.Infof("Loaded %d candles for %s", len(candles), symbol)
	return candles, nil
}

// mapColumns resolves the header into column positions
func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int)
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		for column, aliases := range columnAliases {
			if _, seen := columns[column]; seen {
				continue
			}
			for _, alias := range aliases {
				if name == alias {
					columns[column] = i
				}
			}
		}
	}

	for _, column := range requiredColumns {
		if _, ok := columns[column]; !ok {
			return nil, fmt.Errorf("invalid CSV header format, missing column %q (required: %v)", column, requiredColumns)
		}
	}
	return columns, nil
}

func parseCSVRecord(record []string, columns map[string]int, symbol string) (types.Candle, error) {
	candle := types.Candle{Symbol: symbol}

	openTime, err := parseTimestamp(cell(record, columns, "open_time"))
	if err != nil {
		return candle, err
	}
	candle.OpenTime = openTime

	if raw := cell(record, columns, "close_time"); raw != "" {
		closeTime, err := parseTimestamp(raw)
		if err != nil {
			return candle, fmt.Errorf("invalid close time: %w", err)
		}
		candle.CloseTime = closeTime
	}

	fields := []struct {
		column string
		target *decimal.NullDecimal
	}{
		{"open", &candle.Open},
		{"high", &candle.High},
		{"low", &candle.Low},
		{"close", &candle.Close},
		{"volume", &candle.Volume},
	}
	for _, f := range fields {
		raw := cell(record, columns, f.column)
		if raw == "" {
			continue
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return candle, fmt.Errorf("invalid %s: %s", f.column, raw)
		}
		*f.target = decimal.NewNullDecimal(value)
	}

	return candle, nil
}

// parseTimestamp accepts the layouts above plus unix seconds or milliseconds
func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if len(raw) >= 13 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}

	for _, format := range timestampFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp format: %s", raw)
}

func cell(record []string, columns map[string]int, column string) string {
	i, ok := columns[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
