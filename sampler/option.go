package sampler

import (
	"time"

	"github.com/ardnew/sprof/clock"
	"github.com/ardnew/sprof/log"
	"github.com/ardnew/sprof/pkg"
)

// Option configures a [Session].
type Option = pkg.Option[config]

// DefaultMaxSamples bounds the in-flight buffer of a session.
const DefaultMaxSamples = 1 << 20

type config struct {
	clock      clock.Clock
	logger     log.Logger
	resolution time.Duration
	maxSamples int
}

// WithClock sets the clock used to timestamp samples.
func WithClock(c clock.Clock) Option {
	return func(cfg config) config {
		if c != nil {
			cfg.clock = c
		}

		return cfg
	}
}

// WithLogger sets the session logger.
func WithLogger(l log.Logger) Option {
	return func(cfg config) config {
		cfg.logger = l

		return cfg
	}
}

// WithResolution overrides the clock resolution that intervals are
// validated against. By default the clock is calibrated on Start.
func WithResolution(d time.Duration) Option {
	return func(cfg config) config {
		cfg.resolution = d

		return cfg
	}
}

// WithMaxSamples bounds the number of retained samples. Ticks beyond the
// bound are counted as dropped and never block the target.
func WithMaxSamples(n int) Option {
	return func(cfg config) config {
		cfg.maxSamples = n

		return cfg
	}
}
