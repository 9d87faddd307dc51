package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whisper/matchmaker/internal/matching"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, matching.DefaultConfig(), cfg.Matching())
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MATCHMAKER_MATCHING_INTERVAL", "5ms")
	t.Setenv("MATCHMAKER_SEARCH_WIDENING_DELAY", "600ms")
	t.Setenv("MATCHMAKER_FAIR_MMR_THRESHOLD", "121")
	t.Setenv("MATCHMAKER_WIDENING_POLICY", "median")
	t.Setenv("MATCHMAKER_VERBOSE", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load()
	require.NoError(t, err)

	m := cfg.Matching()
	assert.Equal(t, 5*time.Millisecond, m.MatchingInterval)
	assert.Equal(t, 600*time.Millisecond, m.SearchWideningDelay)
	assert.Equal(t, 121, m.FairMMRThreshold)
	assert.Equal(t, matching.PolicyMedian, m.WideningPolicy)
	assert.True(t, m.Verbose)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("MATCHMAKER_MATCHING_INTERVAL", "soon")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad policy", func(t *testing.T) {
		t.Setenv("MATCHMAKER_WIDENING_POLICY", "random")
		_, err := Load()
		assert.ErrorIs(t, err, matching.ErrInvalidConfig)
	})

	t.Run("zero interval", func(t *testing.T) {
		t.Setenv("MATCHMAKER_MATCHING_INTERVAL", "0s")
		_, err := Load()
		assert.ErrorIs(t, err, matching.ErrInvalidConfig)
	})
}
