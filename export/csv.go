package export

import (
	"encoding/csv"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/sprof/bench"
	"github.com/ardnew/sprof/pkg"
	"github.com/ardnew/sprof/report"
	"github.com/ardnew/sprof/stack"
	"github.com/ardnew/sprof/stats"
)

type csvWriter struct {
	*csv.Writer
	err error
}

func newCSV(w io.Writer, header ...string) *csvWriter {
	c := &csvWriter{Writer: csv.NewWriter(w)}
	c.row(header...)

	return c
}

func (c *csvWriter) row(fields ...string) {
	if c.err == nil {
		c.err = c.Write(fields)
	}
}

func (c *csvWriter) close() error {
	c.Flush()

	if c.err == nil {
		c.err = c.Error()
	}

	if c.err != nil {
		return pkg.ErrExport.Wrap(c.err)
	}

	return nil
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

// samplesCSV writes one row per sample. The stack column lists frames
// outermost first as function@file:line, separated by semicolons.
func samplesCSV(w io.Writer, traces []stack.Trace) error {
	c := newCSV(w, "time_ns", "hazard", "depth", "stack")

	var sb strings.Builder

	for _, t := range traces {
		sb.Reset()

		for i, f := range t.Frames {
			if i > 0 {
				sb.WriteByte(';')
			}

			sb.WriteString(f.Function)
			sb.WriteByte('@')
			sb.WriteString(f.Location.String())
		}

		c.row(strconv.FormatInt(int64(t.Time), 10), t.Hazard.String(), itoa(len(t.Frames)), sb.String())
	}

	return c.close()
}

// linesCSV writes one row per costed line, largest first.
func linesCSV(w io.Writer, r *report.Reporter) error {
	c := newCSV(w,
		"file", "line", "function", "ticks", "self", "hazards",
		"time_ns", "self_ns", "share", "source")

	for _, l := range r.Lines() {
		src, _ := r.Source(l.Key)
		c.row(
			l.File, itoa(l.Line), l.Func,
			itoa(l.Ticks), itoa(l.Self), itoa(l.Hazards),
			strconv.FormatInt(l.EstimatedTime().Nanoseconds(), 10),
			strconv.FormatInt(l.SelfTime().Nanoseconds(), 10),
			ftoa(r.Share(l)),
			src,
		)
	}

	return c.close()
}

// resultsCSV writes one row per evaluation, grouped by label.
func resultsCSV(w io.Writer, results bench.Results) error {
	c := newCSV(w, "label", "index", "elapsed_ns")

	for _, label := range slices.Sorted(maps.Keys(results)) {
		for i, d := range results[label] {
			c.row(label, itoa(i), strconv.FormatInt(d.Nanoseconds(), 10))
		}
	}

	return c.close()
}

func statsCSV(w io.Writer, rows []stats.Stats) error {
	c := newCSV(w,
		"label", "unit", "min", "lower_quartile", "median", "upper_quartile", "max",
		"count", "mean", "stddev", "relative", "below_resolution")

	for _, s := range rows {
		c.row(
			s.Label, s.Unit.String(),
			ftoa(s.Min), ftoa(s.LowerQuartile), ftoa(s.Median), ftoa(s.UpperQuartile), ftoa(s.Max),
			itoa(s.Count), ftoa(s.Mean), ftoa(s.StdDev), ftoa(s.Relative),
			strconv.FormatBool(s.BelowResolution),
		)
	}

	return c.close()
}
