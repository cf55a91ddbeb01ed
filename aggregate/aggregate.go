// Package aggregate reduces resolved stack samples to per-line costs.
//
// For every sample the innermost frame with a source location accrues one
// self tick on its line, and every other located frame accrues one
// descendant tick on the line it is executing. A line key seen more than
// once in the same sample counts once, so deep recursion does not inflate
// its cost. Frames without a location are opaque: their time lands on the
// nearest located ancestor.
package aggregate

import (
	"cmp"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/ardnew/sprof/log"
	"github.com/ardnew/sprof/pkg"
	"github.com/ardnew/sprof/stack"
)

// Key identifies a source line within its enclosing function.
type Key struct {
	File string `json:"file" yaml:"file"`
	Line int    `json:"line" yaml:"line"`
	Func string `json:"func" yaml:"func"`
}

// Location returns the source position of k.
func (k Key) Location() stack.Location {
	return stack.Location{File: k.File, Line: k.Line}
}

func (k Key) String() string { return k.Func + " " + k.Location().String() }

func compareKey(a, b Key) int {
	return cmp.Or(
		cmp.Compare(a.File, b.File),
		cmp.Compare(a.Line, b.Line),
		cmp.Compare(a.Func, b.Func),
	)
}

// Line is the aggregated cost of one source line.
type Line struct {
	Key `yaml:",inline"`

	// Ticks counts samples in which this line was on the stack.
	Ticks int `json:"ticks"      yaml:"ticks"`
	// Self counts samples in which this line was the innermost located frame.
	Self int `json:"self"       yaml:"self"`
	// Hazards counts contributing samples flagged with a [stack.Hazard].
	Hazards int `json:"hazards,omitempty" yaml:"hazards,omitempty"`

	Interval time.Duration `json:"interval" yaml:"interval"`
}

// Descendant returns the ticks spent in callees invoked from this line.
func (l Line) Descendant() int { return l.Ticks - l.Self }

// EstimatedTime is Ticks scaled by the sampling interval.
func (l Line) EstimatedTime() time.Duration {
	return time.Duration(l.Ticks) * l.Interval
}

// SelfTime is Self scaled by the sampling interval.
func (l Line) SelfTime() time.Duration {
	return time.Duration(l.Self) * l.Interval
}

// DescendantTime is Descendant scaled by the sampling interval.
func (l Line) DescendantTime() time.Duration {
	return time.Duration(l.Descendant()) * l.Interval
}

// Profile is the result of one aggregation pass. It must be treated as
// read-only once returned.
type Profile struct {
	Interval time.Duration `json:"interval" yaml:"interval"`
	// Samples counts every sample added, including empty ones.
	Samples int `json:"samples" yaml:"samples"`
	// Unresolved counts samples with no located frame at all.
	Unresolved int `json:"unresolved" yaml:"unresolved"`
	// Opaque counts frames without a location across all samples.
	Opaque int `json:"opaque" yaml:"opaque"`
	// Hazardous counts samples carrying a hazard flag.
	Hazardous int `json:"hazardous" yaml:"hazardous"`

	Lines map[Key]Line `json:"-" yaml:"-"`

	// calls[k][fn] counts samples in which line k called fn.
	calls map[Key]map[string]int
	// roots counts samples per outermost function.
	roots map[string]int
}

// Aggregator accumulates traces into a [Profile].
type Aggregator struct {
	logger  log.Logger
	profile Profile
	seen    map[Key]struct{}
	edges   map[edge]struct{}
}

type edge struct {
	from Key
	to   string
}

// Option configures an [Aggregator].
type Option = pkg.Option[Aggregator]

// WithLogger sets the logger that reports unresolved frames.
func WithLogger(l log.Logger) Option {
	return func(a Aggregator) Aggregator {
		a.logger = l

		return a
	}
}

// New returns an empty aggregator for samples taken every interval.
func New(interval time.Duration, opts ...Option) *Aggregator {
	a := pkg.Make(opts...)
	a.profile = Profile{
		Interval: interval,
		Lines:    make(map[Key]Line),
		calls:    make(map[Key]map[string]int),
		roots:    make(map[string]int),
	}
	a.seen = make(map[Key]struct{})
	a.edges = make(map[edge]struct{})

	return &a
}

// Add accumulates one trace.
func (a *Aggregator) Add(t stack.Trace) {
	p := &a.profile
	p.Samples++

	if t.Hazard != 0 {
		p.Hazardous++
	}

	if len(t.Frames) == 0 {
		p.Unresolved++

		return
	}

	p.roots[t.Frames[0].Function]++

	inner := -1

	for i := len(t.Frames) - 1; i >= 0; i-- {
		if t.Frames[i].Location.Valid() {
			inner = i

			break
		}
	}

	if inner < 0 {
		p.Unresolved++
		p.Opaque += len(t.Frames)

		a.logger.Debug("unresolved sample",
			slog.Int("depth", len(t.Frames)),
			slog.String("innermost", t.Frames[len(t.Frames)-1].Function),
		)

		return
	}

	clear(a.seen)
	clear(a.edges)

	// The innermost located frame is visited first so that a recursive line
	// also present further out is credited as self, never twice.
	a.credit(keyOf(t.Frames[inner]), true, t.Hazard)

	for i, f := range t.Frames {
		if !f.Location.Valid() {
			p.Opaque++

			a.logger.Debug("unresolved frame",
				slog.String("function", f.Function),
				slog.Int("index", f.Index),
			)

			continue
		}

		k := keyOf(f)

		if i != inner {
			a.credit(k, false, t.Hazard)
		}

		if i+1 < len(t.Frames) {
			a.call(k, t.Frames[i+1].Function)
		}
	}
}

func (a *Aggregator) credit(k Key, self bool, h stack.Hazard) {
	if _, dup := a.seen[k]; dup {
		return
	}

	a.seen[k] = struct{}{}

	l, ok := a.profile.Lines[k]
	if !ok {
		l = Line{Key: k, Interval: a.profile.Interval}
	}

	l.Ticks++

	if self {
		l.Self++
	}

	if h != 0 {
		l.Hazards++
	}

	a.profile.Lines[k] = l
}

func (a *Aggregator) call(from Key, to string) {
	e := edge{from, to}
	if _, dup := a.edges[e]; dup {
		return
	}

	a.edges[e] = struct{}{}

	m, ok := a.profile.calls[from]
	if !ok {
		m = make(map[string]int)
		a.profile.calls[from] = m
	}

	m[to]++
}

// Profile returns the accumulated profile. The aggregator must not be used
// afterwards.
func (a *Aggregator) Profile() *Profile {
	p := a.profile
	a.profile = Profile{}
	a.seen, a.edges = nil, nil

	return &p
}

func keyOf(f stack.CallFrame) Key {
	return Key{File: f.Location.File, Line: f.Location.Line, Func: f.Function}
}

// Aggregate builds a profile from traces sampled every interval. An empty
// input yields an empty profile.
func Aggregate(traces []stack.Trace, interval time.Duration, opts ...Option) *Profile {
	a := New(interval, opts...)
	for _, t := range traces {
		a.Add(t)
	}

	return a.Profile()
}

// Samples resolves raw samples through sym and aggregates them.
func Samples(
	samples []stack.Sample,
	sym stack.Symbols,
	interval time.Duration,
	opts ...Option,
) *Profile {
	a := New(interval, opts...)
	for _, s := range samples {
		a.Add(s.Resolve(sym))
	}

	return a.Profile()
}

// SelfTicks returns the sum of self ticks over all lines. It equals the
// number of samples with at least one located frame.
func (p *Profile) SelfTicks() int {
	n := 0
	for _, l := range p.Lines {
		n += l.Self
	}

	return n
}

// Keys returns the line keys sorted by file, line, then function.
func (p *Profile) Keys() []Key {
	return slices.SortedFunc(maps.Keys(p.Lines), compareKey)
}

// Calls returns the functions called from line k with the number of samples
// in which each call was on the stack, sorted by name.
func (p *Profile) Calls(k Key) []Call {
	return sortedCalls(p.calls[k])
}

// Roots returns the outermost functions observed, sorted by name.
func (p *Profile) Roots() []Call {
	return sortedCalls(p.roots)
}

// Call is a callee observed from a line, or an outermost function.
type Call struct {
	Func  string `json:"func"  yaml:"func"`
	Ticks int    `json:"ticks" yaml:"ticks"`
}

func sortedCalls(m map[string]int) []Call {
	calls := make([]Call, 0, len(m))
	for _, fn := range slices.Sorted(maps.Keys(m)) {
		calls = append(calls, Call{Func: fn, Ticks: m[fn]})
	}

	return calls
}
