package clock

import (
	"slices"
	"sync"
	"time"
)

// Calibration describes what a clock can actually measure.
type Calibration struct {
	// Resolution is the smallest non-zero difference observed between two
	// consecutive readings.
	Resolution time.Duration `json:"resolution" yaml:"resolution"`
	// Overhead is the median cost of one reading.
	Overhead time.Duration `json:"overhead" yaml:"overhead"`
	// SubMicrosecond reports whether Resolution is below one microsecond.
	SubMicrosecond bool `json:"sub_microsecond" yaml:"sub_microsecond"`
}

const (
	calibrationReads  = 4096
	calibrationWarmup = 128
)

// Calibrate measures c by reading it repeatedly.
//
// A clock that never advanced during calibration reports a Resolution of
// [time.Millisecond], the coarsest tick Go promises on any platform, so that
// callers fail closed instead of trusting zero.
func Calibrate(c Clock) Calibration {
	for range calibrationWarmup {
		_ = c.Now()
	}

	resolution := time.Duration(0)
	overheads := make([]time.Duration, 0, calibrationReads)

	prev := c.Now()
	for range calibrationReads {
		start := c.Now()
		end := c.Now()

		overheads = append(overheads, Elapsed(start, end))

		if d := Elapsed(prev, start); d > 0 && (resolution == 0 || d < resolution) {
			resolution = d
		}

		if d := Elapsed(start, end); d > 0 && (resolution == 0 || d < resolution) {
			resolution = d
		}

		prev = end
	}

	if resolution == 0 {
		resolution = time.Millisecond
	}

	slices.Sort(overheads)

	return Calibration{
		Resolution:     resolution,
		Overhead:       overheads[len(overheads)/2],
		SubMicrosecond: resolution < time.Microsecond,
	}
}

//nolint:gochecknoglobals
var systemCalibration = sync.OnceValue(func() Calibration {
	return Calibrate(System)
})

// Resolution returns the calibrated effective resolution of [System].
// The measurement is taken once per process.
func Resolution() time.Duration {
	return systemCalibration().Resolution
}

// SystemCalibration returns the full calibration of [System].
func SystemCalibration() Calibration {
	return systemCalibration()
}
