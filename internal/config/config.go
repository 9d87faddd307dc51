// Package config loads matchmaker process settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/whisper/matchmaker/internal/matching"
)

// Config is the process configuration for cmd/matcher.
type Config struct {
	MatchingInterval    time.Duration `env:"MATCHMAKER_MATCHING_INTERVAL"     envDefault:"350ms"`
	SearchWideningDelay time.Duration `env:"MATCHMAKER_SEARCH_WIDENING_DELAY" envDefault:"1s"`
	FairMMRThreshold    int           `env:"MATCHMAKER_FAIR_MMR_THRESHOLD"    envDefault:"250"`
	WideningRate        int           `env:"MATCHMAKER_WIDENING_RATE"         envDefault:"100"`
	WideningPolicy      string        `env:"MATCHMAKER_WIDENING_POLICY"       envDefault:"neighbor"`
	Verbose             bool          `env:"MATCHMAKER_VERBOSE"`

	PlayersFile string `env:"MATCHMAKER_PLAYERS_FILE"`
	RedisAddr   string `env:"REDIS_ADDR"`
	DatabaseURL string `env:"DATABASE_URL"`
	NATSURL     string `env:"NATS_URL"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
}

// Load parses the environment and validates the matching settings.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Matching().Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Matching returns the matchmaker tuning parameters.
func (c Config) Matching() matching.Config {
	return matching.Config{
		MatchingInterval:    c.MatchingInterval,
		SearchWideningDelay: c.SearchWideningDelay,
		FairMMRThreshold:    c.FairMMRThreshold,
		WideningRate:        c.WideningRate,
		WideningPolicy:      c.WideningPolicy,
		Verbose:             c.Verbose,
	}
}
