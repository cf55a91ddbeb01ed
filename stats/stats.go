// Package stats reduces benchmark measurements to distribution summaries.
//
// Quartiles use linear interpolation between order statistics (Hyndman and
// Fan definition 7, the default of R and NumPy): for n sorted values the
// p-quantile sits at rank h = (n-1)p and is x[⌊h⌋] + (h-⌊h⌋)(x[⌊h⌋+1]-x[⌊h⌋]).
// Results are only comparable with tools using the same convention.
package stats

import (
	"cmp"
	"log/slog"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/ardnew/sprof/bench"
	"github.com/ardnew/sprof/clock"
	"github.com/ardnew/sprof/pkg"
)

// Stats summarizes the measurements of one expression.
type Stats struct {
	Label string `json:"label" yaml:"label"`
	Unit  Unit   `json:"unit"  yaml:"unit"`

	Min           float64 `json:"min"            yaml:"min"`
	LowerQuartile float64 `json:"lower_quartile" yaml:"lower_quartile"`
	Median        float64 `json:"median"         yaml:"median"`
	UpperQuartile float64 `json:"upper_quartile" yaml:"upper_quartile"`
	Max           float64 `json:"max"            yaml:"max"`
	Count         int     `json:"count"          yaml:"count"`

	Mean   float64 `json:"mean"   yaml:"mean"`
	StdDev float64 `json:"stddev" yaml:"stddev"`

	// Relative is the median duration divided by that of the fastest row.
	Relative float64 `json:"relative" yaml:"relative"`
	// BelowResolution is set when the median duration is under the clock
	// resolution, so the digits shown are not trustworthy.
	BelowResolution bool `json:"below_resolution,omitempty" yaml:"below_resolution,omitempty"`
}

// Option configures [Summarize].
type Option = pkg.Option[config]

type config struct {
	resolution time.Duration
}

// WithResolution sets the clock resolution medians are compared against.
// By default the system clock is calibrated once per process.
func WithResolution(d time.Duration) Option {
	return func(c config) config {
		c.resolution = d

		return c
	}
}

// Summarize computes one row per expression, fastest median first, ties
// broken by label. It fails with [pkg.ErrInsufficientData] when results is
// empty or any expression has no measurements. Measurements are not
// modified.
func Summarize(results bench.Results, unit Unit, opts ...Option) ([]Stats, error) {
	if unit < 0 || int(unit) >= len(unitNames) {
		return nil, pkg.ErrConfiguration.With(slog.Int("unit", int(unit)))
	}

	if len(results) == 0 {
		return nil, pkg.ErrInsufficientData.With(slog.String("reason", "no results"))
	}

	cfg := pkg.Make(opts...)
	if cfg.resolution <= 0 {
		cfg.resolution = clock.Resolution()
	}

	rows := make([]Stats, 0, len(results))

	for _, label := range slices.Sorted(maps.Keys(results)) {
		r := results[label]
		if len(r) == 0 {
			return nil, pkg.ErrInsufficientData.With(slog.String("label", label))
		}

		row := describe(r)
		row.Label = label
		row.BelowResolution = row.Median < float64(cfg.resolution)
		rows = append(rows, row)
	}

	slices.SortStableFunc(rows, func(a, b Stats) int {
		return cmp.Compare(a.Median, b.Median)
	})

	fastest := rows[0].Median

	for i := range rows {
		rows[i].Relative = 1
		if fastest > 0 {
			rows[i].Relative = rows[i].Median / fastest
		}

		rows[i] = rows[i].Convert(unit)
	}

	return rows, nil
}

// describe computes statistics in nanoseconds.
func describe(r bench.Result) Stats {
	sorted := make([]float64, len(r))
	for i, d := range r {
		sorted[i] = float64(d)
	}

	slices.Sort(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	mean := sum / float64(len(sorted))

	var sq float64
	for _, v := range sorted {
		sq += (v - mean) * (v - mean)
	}

	stddev := 0.0
	if len(sorted) > 1 {
		stddev = math.Sqrt(sq / float64(len(sorted)-1))
	}

	return Stats{
		Unit:          Nanoseconds,
		Min:           sorted[0],
		LowerQuartile: Quantile(sorted, 0.25),
		Median:        Quantile(sorted, 0.5),
		UpperQuartile: Quantile(sorted, 0.75),
		Max:           sorted[len(sorted)-1],
		Count:         len(sorted),
		Mean:          mean,
		StdDev:        stddev,
	}
}

// Quantile returns the p-quantile of sorted using linear interpolation
// between order statistics. p is clamped to [0, 1]; an empty slice yields
// NaN.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}

	p = min(max(p, 0), 1)
	h := float64(n-1) * p
	lo := int(math.Floor(h))

	if lo >= n-1 {
		return sorted[n-1]
	}

	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}
