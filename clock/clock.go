// Package clock provides the monotonic timer shared by the sampler and the
// benchmark runner.
//
// An [Instant] is an offset from the clock's own epoch taken from the
// runtime's monotonic reading, so it never goes backwards across wall-clock
// adjustments. Callers that report durations should consult [Resolution]
// before claiming more precision than the platform delivers.
package clock

import (
	"sync"
	"time"
)

// Instant is a point on a clock's monotonic timeline in nanoseconds since
// the clock's epoch.
type Instant int64

// Sub returns the non-negative duration from start to i.
func (i Instant) Sub(start Instant) time.Duration {
	return Elapsed(start, i)
}

// Clock is a monotonic, non-decreasing time source.
type Clock interface {
	Now() Instant
}

// Elapsed returns end-start, clamped at zero.
func Elapsed(start, end Instant) time.Duration {
	if end < start {
		return 0
	}

	return time.Duration(end - start)
}

// Monotonic reads the Go runtime's monotonic clock.
type Monotonic struct {
	epoch time.Time
}

// New returns a [Monotonic] clock whose epoch is the moment of the call.
func New() *Monotonic {
	return &Monotonic{epoch: time.Now()}
}

// Now returns the time since the clock's epoch.
func (m *Monotonic) Now() Instant {
	return Instant(time.Since(m.epoch))
}

// System is the process-wide monotonic clock.
//
//nolint:gochecknoglobals
var System Clock = New()

// Manual is a [Clock] that only moves when told to. It is safe for
// concurrent use.
type Manual struct {
	mu  sync.Mutex
	now Instant
	// Step, when positive, advances the clock after every call to Now.
	Step time.Duration
}

// Now returns the current instant and then applies Step.
func (m *Manual) Now() Instant {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now
	if m.Step > 0 {
		m.now += Instant(m.Step)
	}

	return now
}

// Advance moves the clock forward by d. Negative values are ignored.
func (m *Manual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}

	m.mu.Lock()
	m.now += Instant(d)
	m.mu.Unlock()
}
