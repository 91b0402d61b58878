package main

import (
	"testing"

	"tradebench/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSweep(t *testing.T) {
	pairs, err := parseSweep("5:20, 10:30,")
	require.NoError(t, err)
	assert.Equal(t, []config.PeriodPair{{Short: 5, Long: 20}, {Short: 10, Long: 30}}, pairs)

	for _, bad := range []string{"5-20", "a:20", "5:b"} {
		_, err := parseSweep(bad)
		assert.Error(t, err, bad)
	}
}
