package bench

import (
	"time"

	"github.com/ardnew/sprof/clock"
	"github.com/ardnew/sprof/log"
	"github.com/ardnew/sprof/pkg"
)

// Option configures a [Runner].
type Option = pkg.Option[config]

type config struct {
	clock    clock.Clock
	logger   log.Logger
	seed     uint64
	seeded   bool
	overhead time.Duration
}

// WithClock sets the clock evaluations are timed with.
func WithClock(c clock.Clock) Option {
	return func(cfg config) config {
		if c != nil {
			cfg.clock = c
		}

		return cfg
	}
}

// WithLogger sets the runner logger.
func WithLogger(l log.Logger) Option {
	return func(cfg config) config {
		cfg.logger = l

		return cfg
	}
}

// WithSeed makes the evaluation order reproducible. Without it every run
// draws a fresh permutation.
func WithSeed(seed uint64) Option {
	return func(cfg config) config {
		cfg.seed, cfg.seeded = seed, true

		return cfg
	}
}

// WithOverheadCompensation subtracts d, typically the measured cost of two
// clock readings, from every measurement. Measurements never go below
// zero.
func WithOverheadCompensation(d time.Duration) Option {
	return func(cfg config) config {
		cfg.overhead = max(d, 0)

		return cfg
	}
}
