package data

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"tradebench/internal/types"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
)

// CandleRecord is the on-disk Parquet layout of a candle. Prices are stored
// as decimal strings so they round trip exactly, and are optional so
// incomplete candles survive too.
type CandleRecord struct {
	Symbol    string  `parquet:"symbol"`
	Interval  string  `parquet:"interval"`
	OpenTime  int64   `parquet:"open_time"`  // Unix ms
	CloseTime int64   `parquet:"close_time"` // Unix ms, 0 when absent
	Open      *string `parquet:"open,optional"`
	High      *string `parquet:"high,optional"`
	Low       *string `parquet:"low,optional"`
	Close     *string `parquet:"close,optional"`
	Volume    *string `parquet:"volume,optional"`
}

// LoadParquet reads candles from a Parquet file
func LoadParquet(path string) ([]types.Candle, error) {
	rows, err := parquet.ReadFile[CandleRecord](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file %s: %w", path, err)
	}

	candles := make([]types.Candle, len(rows))
	for i, row := range rows {
		candle, err := row.toCandle()
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: %w", i, path, err)
		}
		candles[i] = candle
	}
	return candles, nil
}

// WriteParquet stores candles as a Parquet file
func WriteParquet(path string, candles []types.Candle) error {
	records := make([]CandleRecord, len(candles))
	for i, c := range candles {
		records[i] = newCandleRecord(c)
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("failed to write parquet file %s: %w", path, err)
	}
	return nil
}

// LoadCandles reads a candle file, picking the decoder from format or extension
func LoadCandles(path, format, symbol string) ([]types.Candle, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	switch format {
	case "csv":
		return LoadCSV(path, symbol)
	case "parquet", "pq":
		candles, err := LoadParquet(path)
		if err != nil {
			return nil, err
		}
		for i := range candles {
			if candles[i].Symbol == "" {
				candles[i].Symbol = symbol
			}
		}
		return candles, nil
	}
	return nil, fmt.Errorf("unsupported candle format: %q", format)
}

func newCandleRecord(c types.Candle) CandleRecord {
	record := CandleRecord{
		Symbol:   c.Symbol,
		Interval: c.Interval,
		OpenTime: c.OpenTime.UnixMilli(),
		Open:     nullString(c.Open),
		High:     nullString(c.High),
		Low:      nullString(c.Low),
		Close:    nullString(c.Close),
		Volume:   nullString(c.Volume),
	}
	if !c.CloseTime.IsZero() {
		record.CloseTime = c.CloseTime.UnixMilli()
	}
	return record
}

func (r CandleRecord) toCandle() (types.Candle, error) {
	candle := types.Candle{
		Symbol:   r.Symbol,
		Interval: r.Interval,
		OpenTime: time.UnixMilli(r.OpenTime).UTC(),
	}
	if r.CloseTime != 0 {
		candle.CloseTime = time.UnixMilli(r.CloseTime).UTC()
	}

	columns := []struct {
		name string
		src  *string
		dst  *decimal.NullDecimal
	}{
		{"open", r.Open, &candle.Open},
		{"high", r.High, &candle.High},
		{"low", r.Low, &candle.Low},
		{"close", r.Close, &candle.Close},
		{"volume", r.Volume, &candle.Volume},
	}
	for _, col := range columns {
		if col.src == nil {
			continue
		}
		value, err := decimal.NewFromString(*col.src)
		if err != nil {
			return types.Candle{}, fmt.Errorf("invalid %s %q: %w", col.name, *col.src, err)
		}
		*col.dst = decimal.NewNullDecimal(value)
	}
	return candle, nil
}

func nullString(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}
