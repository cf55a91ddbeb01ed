package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/ardnew/sprof/pkg"
)

// Unit is the unit statistics are reported in.
type Unit int

const (
	Nanoseconds Unit = iota
	Microseconds
	Milliseconds
	Seconds
	// EvalsPerSecond reports throughput, the reciprocal of a duration.
	EvalsPerSecond
)

var unitNames = [...]string{
	Nanoseconds:    "ns",
	Microseconds:   "us",
	Milliseconds:   "ms",
	Seconds:        "s",
	EvalsPerSecond: "eps",
}

var unitScale = [...]float64{
	Nanoseconds:  1,
	Microseconds: float64(time.Microsecond),
	Milliseconds: float64(time.Millisecond),
	Seconds:      float64(time.Second),
}

// Units returns the names of all units.
func Units() []string { return unitNames[:] }

func (u Unit) String() string {
	if u < 0 || int(u) >= len(unitNames) {
		return fmt.Sprintf("unit(%d)", int(u))
	}

	return unitNames[u]
}

// ParseUnit parses a unit name. "µs" is accepted for microseconds.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ns", "nanoseconds":
		return Nanoseconds, nil
	case "us", "µs", "microseconds":
		return Microseconds, nil
	case "ms", "milliseconds":
		return Milliseconds, nil
	case "s", "seconds":
		return Seconds, nil
	case "eps", "evals/s":
		return EvalsPerSecond, nil
	}

	return 0, pkg.ErrConfiguration.Wrap(fmt.Errorf("unknown unit %q", s))
}

func (u Unit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *Unit) UnmarshalText(text []byte) error {
	v, err := ParseUnit(string(text))
	if err != nil {
		return err
	}

	*u = v

	return nil
}

// Rate reports whether larger values mean faster evaluations.
func (u Unit) Rate() bool { return u == EvalsPerSecond }

// FromNanos converts ns nanoseconds to u. A non-positive duration has no
// finite rate and converts to zero evaluations per second.
func (u Unit) FromNanos(ns float64) float64 {
	if u.Rate() {
		if ns <= 0 {
			return 0
		}

		return float64(time.Second) / ns
	}

	return ns / unitScale[u]
}

// ToNanos is the inverse of [Unit.FromNanos].
func (u Unit) ToNanos(v float64) float64 {
	if u.Rate() {
		if v <= 0 {
			return 0
		}

		return float64(time.Second) / v
	}

	return v * unitScale[u]
}

// Convert returns s expressed in u. Converting to [EvalsPerSecond] takes
// the reciprocal of every order statistic, so the fields swap places to
// keep Min the smallest value: Min is the rate of the slowest evaluation.
func (s Stats) Convert(u Unit) Stats {
	if s.Unit == u {
		return s
	}

	nanos := func(v float64) float64 { return s.Unit.ToNanos(v) }
	out := s
	out.Unit = u

	orderFlips := s.Unit.Rate() != u.Rate()

	lo, lq, md, uq, hi := s.Min, s.LowerQuartile, s.Median, s.UpperQuartile, s.Max
	if orderFlips {
		lo, lq, uq, hi = hi, uq, lq, lo
	}

	out.Min = u.FromNanos(nanos(lo))
	out.LowerQuartile = u.FromNanos(nanos(lq))
	out.Median = u.FromNanos(nanos(md))
	out.UpperQuartile = u.FromNanos(nanos(uq))
	out.Max = u.FromNanos(nanos(hi))
	out.Mean = u.FromNanos(nanos(s.Mean))

	// Spread has no meaningful reciprocal.
	if u.Rate() || s.Unit.Rate() {
		out.StdDev = 0
	} else {
		out.StdDev = u.FromNanos(nanos(s.StdDev))
	}

	return out
}
