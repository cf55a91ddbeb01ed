// Package report presents an aggregated profile as a read-only view.
//
// Every query orders lines largest estimated time first so that callers can
// drill down from the most expensive code. Source text is looked up through
// a [Loader] for display only; when it cannot be found the raw location is
// shown instead.
package report

import (
	"cmp"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/sprof/aggregate"
	"github.com/ardnew/sprof/log"
	"github.com/ardnew/sprof/pkg"
)

// Reporter answers queries over one [aggregate.Profile].
type Reporter struct {
	config

	profile *aggregate.Profile
	lines   []aggregate.Line
	byFunc  map[string][]aggregate.Line
	funcs   []string
}

// Option configures a [Reporter].
type Option = pkg.Option[config]

type config struct {
	loader Loader
	logger log.Logger
}

// WithLoader sets the source loader. Without one every line is shown by
// its location.
func WithLoader(l Loader) Option {
	return func(c config) config {
		c.loader = l

		return c
	}
}

// WithLogger sets the reporter logger.
func WithLogger(l log.Logger) Option {
	return func(c config) config {
		c.logger = l

		return c
	}
}

// New indexes p. The profile must not be modified afterwards.
func New(p *aggregate.Profile, opts ...Option) *Reporter {
	r := &Reporter{
		config:  pkg.Make(opts...),
		profile: p,
		byFunc:  make(map[string][]aggregate.Line),
	}

	if r.loader == nil {
		r.loader = MapLoader(nil)
	}

	r.lines = slices.SortedFunc(maps.Values(p.Lines), byCost)

	names := make(map[string]struct{})

	for _, l := range r.lines {
		r.byFunc[l.Func] = append(r.byFunc[l.Func], l)
		names[l.Func] = struct{}{}
	}

	for _, c := range p.Roots() {
		names[c.Func] = struct{}{}
	}

	for k := range p.Lines {
		for _, c := range p.Calls(k) {
			names[c.Func] = struct{}{}
		}
	}

	r.funcs = slices.Sorted(maps.Keys(names))

	return r
}

// byCost orders lines by estimated time, then self time, descending, and
// finally by position.
func byCost(a, b aggregate.Line) int {
	return cmp.Or(
		cmp.Compare(b.Ticks, a.Ticks),
		cmp.Compare(b.Self, a.Self),
		cmp.Compare(a.File, b.File),
		cmp.Compare(a.Line, b.Line),
		cmp.Compare(a.Func, b.Func),
	)
}

// Profile returns the underlying profile.
func (r *Reporter) Profile() *aggregate.Profile { return r.profile }

// ChildrenOf returns the lines executed inside function fn, largest
// estimated time first. An unknown function has no children.
func (r *Reporter) ChildrenOf(fn string) []aggregate.Line {
	return slices.Clone(r.byFunc[fn])
}

// Callees returns the lines of every function called from k, largest
// estimated time first.
func (r *Reporter) Callees(k aggregate.Key) []aggregate.Line {
	var lines []aggregate.Line
	for _, c := range r.profile.Calls(k) {
		lines = append(lines, r.byFunc[c.Func]...)
	}

	slices.SortFunc(lines, byCost)

	return lines
}

// Lines returns every line, largest estimated time first.
func (r *Reporter) Lines() []aggregate.Line {
	return slices.Clone(r.lines)
}

// Top returns at most n lines, largest first.
func (r *Reporter) Top(n int) []aggregate.Line {
	return slices.Clone(r.lines[:min(max(n, 0), len(r.lines))])
}

// Functions returns the names of every function observed, sorted.
func (r *Reporter) Functions() []string {
	return slices.Clone(r.funcs)
}

// Files returns the source files with attributed time, sorted.
func (r *Reporter) Files() []string {
	files := make(map[string]struct{})
	for _, l := range r.lines {
		files[l.File] = struct{}{}
	}

	return slices.Sorted(maps.Keys(files))
}

// Find returns function names matching pattern by fuzzy subsequence, best
// match first.
func (r *Reporter) Find(pattern string) []string {
	matches := fuzzy.Find(pattern, r.funcs)

	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Str
	}

	return names
}

// Share returns the fraction of all samples in which l was on the stack.
func (r *Reporter) Share(l aggregate.Line) float64 {
	if r.profile.Samples == 0 {
		return 0
	}

	return float64(l.Ticks) / float64(r.profile.Samples)
}

// Source returns the source text of k, or its raw location when the text
// is unavailable. The second result reports whether text was found.
func (r *Reporter) Source(k aggregate.Key) (string, bool) {
	lines, err := r.loader.Load(k.File)
	if err != nil {
		r.logger.Debug("source unavailable",
			slog.String("file", k.File),
			slog.Any("error", err),
		)

		return k.Location().String(), false
	}

	if k.Line < 1 || k.Line > len(lines) {
		return k.Location().String(), false
	}

	return strings.TrimSpace(lines[k.Line-1]), true
}

// SourceLine is one line of a [FileView].
type SourceLine struct {
	Number int    `json:"number" yaml:"number"`
	Text   string `json:"text"   yaml:"text"`

	Ticks    int           `json:"ticks,omitempty"     yaml:"ticks,omitempty"`
	Self     int           `json:"self,omitempty"      yaml:"self,omitempty"`
	Time     time.Duration `json:"time,omitempty"      yaml:"time,omitempty"`
	SelfTime time.Duration `json:"self_time,omitempty" yaml:"self_time,omitempty"`
}

// FileView is a source file annotated with the cost of each line.
type FileView struct {
	File string `json:"file" yaml:"file"`
	// Found is false when the source could not be loaded; Lines then holds
	// only the lines with attributed time, each showing its location.
	Found bool         `json:"found" yaml:"found"`
	Lines []SourceLine `json:"lines" yaml:"lines"`
}

// FileView annotates file. Lines shared by several functions (recursion
// through different entry points) report the largest cost among them.
func (r *Reporter) FileView(file string) FileView {
	cost := make(map[int]SourceLine)

	for _, l := range r.lines {
		if l.File != file {
			continue
		}

		if c, ok := cost[l.Line]; !ok || l.Ticks > c.Ticks {
			cost[l.Line] = SourceLine{
				Number:   l.Line,
				Ticks:    l.Ticks,
				Self:     l.Self,
				Time:     l.EstimatedTime(),
				SelfTime: l.SelfTime(),
			}
		}
	}

	view := FileView{File: file}

	text, err := r.loader.Load(file)
	if err != nil {
		r.logger.Debug("source unavailable",
			slog.String("file", file),
			slog.Any("error", err),
		)

		for _, n := range slices.Sorted(maps.Keys(cost)) {
			sl := cost[n]
			sl.Text = aggregate.Key{File: file, Line: n}.Location().String()
			view.Lines = append(view.Lines, sl)
		}

		return view
	}

	view.Found = true
	view.Lines = make([]SourceLine, len(text))

	for i, t := range text {
		sl := cost[i+1]
		sl.Number = i + 1
		sl.Text = t
		view.Lines[i] = sl
	}

	return view
}
