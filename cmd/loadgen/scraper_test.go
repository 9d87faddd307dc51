package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetricLine(t *testing.T) {
	tests := []struct {
		line  string
		name  string
		value float64
		ok    bool
	}{
		{"matchmaker_pool_size 12", "matchmaker_pool_size", 12, true},
		{`matchmaker_joins_total{result="ok"} 7`, "matchmaker_joins_total", 7, true},
		{"matchmaker_match_wait_seconds_sum 1.5e+00", "matchmaker_match_wait_seconds_sum", 1.5, true},
		{`broken{result="ok" 7`, "", 0, false},
		{"lonely", "", 0, false},
		{"bad NaNx", "", 0, false},
	}
	for _, tt := range tests {
		name, value, ok := parseMetricLine(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.name, name, tt.line)
		assert.Equal(t, tt.value, value, tt.line)
	}
}

func TestParseSnapshot(t *testing.T) {
	body := strings.Join([]string{
		"# HELP matchmaker_pool_size Current number of participants in the waiting pool",
		"# TYPE matchmaker_pool_size gauge",
		"matchmaker_pool_size 3",
		`matchmaker_joins_total{result="ok"} 10`,
		`matchmaker_joins_total{result="unknown"} 2`,
		"matchmaker_matches_total 4",
		"matchmaker_match_wait_seconds_sum 6",
		"matchmaker_match_wait_seconds_count 8",
		"",
	}, "\n")

	snap, err := parseSnapshot(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 3.0, snap.poolSize)
	assert.Equal(t, 12.0, snap.joins)
	assert.Equal(t, 4.0, snap.matches)
	assert.Equal(t, 6.0, snap.waitSum)
	assert.Equal(t, 8.0, snap.waitCount)
}
