package profile

import "github.com/ardnew/sprof/pkg"

// Option configures a [Profiler].
type Option = pkg.Option[Profiler]

// Profiler selects what to profile and where to write it.
type Profiler struct {
	Mode  string
	Path  string
	Quiet bool
}

// New returns a profiler configured by opts.
func New(opts ...Option) Profiler { return pkg.Make(opts...) }

// Start begins profiling and returns a handle to stop it. An empty or
// unknown mode, or a build without the pprof tag, yields a no-op handle.
// Stop is always safe to call.
func (p Profiler) Start() interface{ Stop() } {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p.Mode, p.Path, p.Quiet)
}

// WithMode sets the profiling mode. See [Modes].
func WithMode(mode string) Option {
	return func(p Profiler) Profiler {
		p.Mode = mode

		return p
	}
}

// WithPath sets the output directory.
func WithPath(path string) Option {
	return func(p Profiler) Profiler {
		p.Path = path

		return p
	}
}

// WithQuiet suppresses the library's own start and stop messages.
func WithQuiet(quiet bool) Option {
	return func(p Profiler) Profiler {
		p.Quiet = quiet

		return p
	}
}

type ignore struct{}

func (ignore) Stop() {}
