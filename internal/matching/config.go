package matching

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("matching: invalid config")

// Widening policies understood by the Tuner.
const (
	PolicyNeighbor = "neighbor" // pull toward the closer adjacent participant
	PolicyMedian   = "median"   // pull toward the pool median
)

// Config holds the matchmaker tuning parameters.
type Config struct {
	MatchingInterval    time.Duration // tick period
	SearchWideningDelay time.Duration // grace period before widening starts
	FairMMRThreshold    int           // max adjusted-rating difference for a pairing
	WideningRate        int           // excess tolerance gained per second overdue
	WideningPolicy      string        // PolicyNeighbor or PolicyMedian
	Verbose             bool          // log pool contents and match events
}

// DefaultConfig returns the stock matchmaker settings.
func DefaultConfig() Config {
	return Config{
		MatchingInterval:    350 * time.Millisecond,
		SearchWideningDelay: 1000 * time.Millisecond,
		FairMMRThreshold:    250,
		WideningRate:        100,
		WideningPolicy:      PolicyNeighbor,
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case c.MatchingInterval <= 0:
		return fmt.Errorf("%w: matching interval must be positive, got %s", ErrInvalidConfig, c.MatchingInterval)
	case c.SearchWideningDelay < 0:
		return fmt.Errorf("%w: search widening delay must not be negative, got %s", ErrInvalidConfig, c.SearchWideningDelay)
	case c.FairMMRThreshold < 0:
		return fmt.Errorf("%w: fair MMR threshold must not be negative, got %d", ErrInvalidConfig, c.FairMMRThreshold)
	case c.WideningRate <= 0:
		return fmt.Errorf("%w: widening rate must be positive, got %d", ErrInvalidConfig, c.WideningRate)
	case c.WideningPolicy != PolicyNeighbor && c.WideningPolicy != PolicyMedian:
		return fmt.Errorf("%w: unknown widening policy %q", ErrInvalidConfig, c.WideningPolicy)
	}
	return nil
}
