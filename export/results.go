package export

import (
	"io"
	"maps"
	"slices"
	"time"

	"github.com/ardnew/sprof/aggregate"
	"github.com/ardnew/sprof/bench"
	"github.com/ardnew/sprof/report"
	"github.com/ardnew/sprof/stats"
)

// Series is the recorded timings of one benchmarked expression.
type Series struct {
	Label   string          `json:"label"   yaml:"label"`
	Elapsed []time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Results writes raw benchmark timings, ordered by label.
func Results(w io.Writer, f Format, results bench.Results) error {
	if f == CSV {
		return resultsCSV(w, results)
	}

	series := make([]Series, 0, len(results))
	for _, label := range slices.Sorted(maps.Keys(results)) {
		series = append(series, Series{Label: label, Elapsed: results[label]})
	}

	return Encode(w, f, series)
}

// Stats writes benchmark summaries.
func Stats(w io.Writer, f Format, rows []stats.Stats) error {
	if f == CSV {
		return statsCSV(w, rows)
	}

	return Encode(w, f, rows)
}

// Report is the serializable form of a line profile.
type Report struct {
	Summary aggregate.Profile `json:"summary"        yaml:"summary"`
	Lines   []aggregate.Line  `json:"lines"          yaml:"lines"`
	Tree    []*report.Node    `json:"tree,omitempty" yaml:"tree,omitempty"`
}

// Profile writes the line profile held by r. CSV output lists lines only.
func Profile(w io.Writer, f Format, r *report.Reporter) error {
	switch f {
	case CSV:
		return linesCSV(w, r)
	case Pprof:
		return unsupported(f, "line profile")
	}

	return Encode(w, f, Report{
		Summary: *r.Profile(),
		Lines:   r.Lines(),
		Tree:    r.Tree(),
	})
}
