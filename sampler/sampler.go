package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ardnew/sprof/clock"
	"github.com/ardnew/sprof/pkg"
	"github.com/ardnew/sprof/stack"
)

type state int

const (
	idle state = iota
	running
	stopped
)

// Stats summarizes a finished or running session.
type Stats struct {
	Interval time.Duration `json:"interval" yaml:"interval"`
	Samples  int           `json:"samples"  yaml:"samples"`
	Dropped  int           `json:"dropped"  yaml:"dropped"`
	// Overhead is the mean time spent inside Source.Stack per tick.
	Overhead time.Duration `json:"overhead" yaml:"overhead"`
}

// Session is a single sampling run over one [stack.Source].
// A Session cannot be restarted once stopped.
type Session struct {
	source stack.Source
	config

	mu    sync.Mutex
	state state
	stats Stats

	cancel context.CancelFunc
	done   chan struct{}

	// Owned by the tick goroutine until done is closed.
	samples  []stack.Sample
	arena    []stack.Frame
	spent    time.Duration
	dropped  int
	panicked any
}

// New returns an idle session sampling src.
func New(src stack.Source, opts ...Option) *Session {
	return &Session{
		source: src,
		config: pkg.Wrap(config{
			clock:      clock.System,
			maxSamples: DefaultMaxSamples,
		}, opts...),
	}
}

// Start begins sampling every interval until ctx is canceled or Stop is
// called. The interval must exceed the clock's resolution.
func (s *Session) Start(ctx context.Context, interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case running:
		return pkg.ErrAlreadyStarted
	case stopped:
		return pkg.ErrAlreadyStopped
	}

	if s.source == nil {
		return pkg.ErrConfiguration.With(slog.String("reason", "nil source"))
	}

	if s.maxSamples <= 0 {
		return pkg.ErrConfiguration.With(slog.Int("max_samples", s.maxSamples))
	}

	resolution := s.resolution
	if resolution <= 0 {
		resolution = clock.Calibrate(s.clock).Resolution
	}

	if interval <= resolution {
		return pkg.ErrConfiguration.
			Wrap(fmt.Errorf("interval %v not above clock resolution %v", interval, resolution)).
			With(
				slog.Duration("interval", interval),
				slog.Duration("resolution", resolution),
			)
	}

	ctx, cancel := context.WithCancel(ctx)

	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = running
	s.stats = Stats{Interval: interval}
	s.samples = make([]stack.Sample, 0, min(s.maxSamples, 1024))

	s.logger.DebugContext(ctx, "sampler start",
		slog.Duration("interval", interval),
		slog.Duration("resolution", resolution),
	)

	go s.run(ctx, interval)

	return nil
}

func (s *Session) run(ctx context.Context, interval time.Duration) {
	defer close(s.done)

	defer func() {
		if r := recover(); r != nil {
			s.panicked = r
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick captures one sample. Frames of all samples share a growing arena so
// that a tick costs one copy of the stack and amortized zero allocations.
func (s *Session) tick(ctx context.Context) {
	if len(s.samples) >= s.maxSamples {
		s.dropped++

		return
	}

	start := s.clock.Now()
	base := len(s.arena)
	arena, hazard := s.source.Stack(s.arena)
	end := s.clock.Now()

	s.arena = arena
	s.spent += clock.Elapsed(start, end)
	s.samples = append(s.samples, stack.Sample{
		Time:   start,
		Stack:  arena[base:len(arena):len(arena)],
		Hazard: hazard,
	})

	s.logger.TraceContext(ctx, "sampler tick",
		slog.Int("depth", len(arena)-base),
		slog.Duration("cost", clock.Elapsed(start, end)),
	)
}

// Stop halts sampling and returns every sample collected since Start in
// chronological order. It is safe to call from any goroutine, including
// while the sampled program is failing. A second call returns
// [pkg.ErrAlreadyStopped]; calling Stop on a session that never started
// returns [pkg.ErrNotStarted].
//
// If the source panicked during a capture, sampling ended at that tick and
// Stop returns the samples gathered so far with an error wrapping
// [pkg.ErrCapture].
func (s *Session) Stop() ([]stack.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case idle:
		return nil, pkg.ErrNotStarted
	case stopped:
		return nil, pkg.ErrAlreadyStopped
	}

	s.cancel()
	<-s.done

	samples := s.samples

	s.stats.Samples = len(samples)
	s.stats.Dropped = s.dropped

	if n := len(samples); n > 0 {
		s.stats.Overhead = s.spent / time.Duration(n)
	}

	var err error
	if s.panicked != nil {
		err = pkg.ErrCapture.Wrap(fmt.Errorf("%v", s.panicked))
	}

	s.release()

	if s.samples != nil || s.arena != nil || s.cancel != nil {
		panic(pkg.ErrResourceLeak)
	}

	s.logger.Debug("sampler stop",
		slog.Int("samples", s.stats.Samples),
		slog.Int("dropped", s.stats.Dropped),
		slog.Duration("overhead", s.stats.Overhead),
	)

	return samples, err
}

// release drops every reference held by the session.
func (s *Session) release() {
	s.state = stopped
	s.cancel = nil
	s.samples = nil
	s.arena = nil
	s.spent = 0
	s.dropped = 0
	s.panicked = nil
}

// Stats returns the session statistics. Counts are final once Stop has
// returned; while running only Interval is set.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stats
}

// Running reports whether the session is currently sampling.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state == running
}

// Profile starts the session, runs fn, and always stops the session, even
// when fn fails or panics. The error from fn takes precedence over a capture
// error; samples are returned in both cases.
func (s *Session) Profile(
	ctx context.Context,
	interval time.Duration,
	fn func(context.Context) error,
) (samples []stack.Sample, err error) {
	if err := s.Start(ctx, interval); err != nil {
		return nil, err
	}

	defer func() {
		got, stopErr := s.Stop()

		samples = got
		if err == nil {
			err = stopErr
		}
	}()

	return nil, fn(ctx)
}
