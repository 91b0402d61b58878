package backtest

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tradebench/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveResults(t *testing.T) {
	series := rallyThenSlide()
	result, err := newTestEngine(t, "0.002").Run(series, smaCross(t, series, 5, 20))
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "results")
	files, err := SaveResults(result, config.OutputConfig{
		ResultsDirectory: dir,
		ExportTrades:     true,
		ExportEquity:     true,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(files.JSON), "backtest_sma_cross_5_20__"))

	raw, err := os.ReadFile(files.JSON)
	require.NoError(t, err)
	var decoded Result
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, result.RunID, decoded.RunID)
	assert.True(t, decoded.Metrics.FinalCapital.Equal(result.Metrics.FinalCapital))

	trades := readCSV(t, files.Trades)
	require.Len(t, trades, 2)
	assert.Equal(t, "EntryTime", trades[0][0])
	assert.Equal(t, "-0.2756", trades[1][8])
	assert.Equal(t, "168h0m0s", trades[1][10], "bar 20 to bar 27 on daily bars")
	assert.Contains(t, string(raw), `"profit_percentage": "-0.2756"`)

	equity := readCSV(t, files.Equity)
	assert.Len(t, equity, series.Len()+1)
}

func TestSaveResultsWithoutExports(t *testing.T) {
	dir := t.TempDir()
	files, err := SaveResults(&Result{Strategy: "manual"}, config.OutputConfig{ResultsDirectory: dir})
	require.NoError(t, err)

	assert.FileExists(t, files.JSON)
	assert.Empty(t, files.Trades)
	assert.Empty(t, files.Equity)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}
