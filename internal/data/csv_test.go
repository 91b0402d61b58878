package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tradebench/internal/types"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `timestamp,open,high,low,close,volume
2024-01-01,100,105,95,102,10
2024-01-02,102,106,101,104,
2024-01-03,104,,100,101,12
not-a-date,1,1,1,1,1
1704326400,101,103,99,100,8
`

func TestReadCSV(t *testing.T) {
	candles, err := ReadCSV(strings.NewReader(sampleCSV), "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, candles, 4, "unparseable line is skipped")

	first := candles[0]
	assert.Equal(t, "BTCUSDT", first.Symbol)
	assert.Equal(t, day0, first.OpenTime)
	assert.True(t, first.Close.Decimal.Equal(decimal.NewFromInt(102)))
	assert.True(t, first.IsComplete())

	assert.False(t, candles[1].Volume.Valid, "empty volume is null")
	assert.False(t, candles[2].High.Valid, "empty high is null")
	assert.False(t, candles[2].IsComplete())

	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), candles[3].OpenTime, "unix seconds")

	series, err := BuildSeries(candles, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 3, series.Len(), "incomplete candle is dropped during normalization")
}

func TestReadCSVAliasesAndMillis(t *testing.T) {
	input := "Date,O,H,L,C\n1704067200000,1,2,0.5,1.5\n"
	candles, err := ReadCSV(strings.NewReader(input), "X")
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, day0, candles[0].OpenTime)
	assert.True(t, candles[0].Close.Decimal.Equal(decimal.RequireFromString("1.5")))
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("timestamp,open,high,low\n"), "X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close")
}

func TestFindCSVAndLoadCandles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "btcusdt_1d.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	found, err := FindCSV(dir, "BTCUSDT", "1d")
	require.NoError(t, err)
	assert.Equal(t, path, found)

	_, err = FindCSV(dir, "ETHUSDT", "1d")
	assert.Error(t, err)

	candles, err := LoadCandles(found, "", "BTCUSDT")
	require.NoError(t, err)
	assert.Len(t, candles, 4)

	_, err = LoadCandles(found, "xlsx", "BTCUSDT")
	assert.Error(t, err)
}

func TestParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candles.parquet")

	partial := flatCandle(2, 102)
	partial.Volume = decimal.NullDecimal{}
	partial.Symbol = ""

	in := []types.Candle{flatCandle(0, 100), flatCandle(1, 101), partial}
	in[0].CloseTime = day0.Add(24*time.Hour - time.Millisecond)

	require.NoError(t, WriteParquet(path, in))

	out, err := LoadCandles(path, "", "ETHUSDT")
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, in[0].OpenTime, out[0].OpenTime)
	assert.Equal(t, in[0].CloseTime, out[0].CloseTime)
	assert.True(t, out[1].Close.Decimal.Equal(decimal.NewFromInt(101)))
	assert.True(t, out[1].CloseTime.IsZero())
	assert.False(t, out[2].Volume.Valid)
	assert.Equal(t, "ETHUSDT", out[2].Symbol, "missing symbol is filled in")
	assert.Equal(t, "BTCUSDT", out[0].Symbol)
}

func TestParquetKeepsExactPrices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "precise.parquet")

	price := decimal.RequireFromString("43210.123456789012345678")
	candle := types.NewCandle("BTCUSDT", day0, price, price, price, price, decimal.RequireFromString("0.000000000000000001"))
	require.NoError(t, WriteParquet(path, []types.Candle{candle}))

	out, err := LoadParquet(path)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "43210.123456789012345678", out[0].Close.Decimal.String())
	assert.Equal(t, "0.000000000000000001", out[0].Volume.Decimal.String())
}

func TestParquetRejectsMalformedPrice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.parquet")
	bad := "12,5"
	require.NoError(t, parquet.WriteFile(path, []CandleRecord{{Symbol: "X", OpenTime: day0.UnixMilli(), Close: &bad}}))

	_, err := LoadParquet(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid close")
}
