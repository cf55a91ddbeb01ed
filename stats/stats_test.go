package stats

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ardnew/sprof/bench"
	"github.com/ardnew/sprof/pkg"
)

func near(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func micros(v ...int) bench.Result {
	r := make(bench.Result, len(v))
	for i, n := range v {
		r[i] = time.Duration(n) * time.Microsecond
	}

	return r
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"single", []float64{7}, 0.5, 7},
		{"lower quartile", []float64{1, 2, 3, 4}, 0.25, 1.75},
		{"median even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"upper quartile", []float64{1, 2, 3, 4}, 0.75, 3.25},
		{"median odd", []float64{1, 2, 3, 4, 5}, 0.5, 3},
		{"min", []float64{1, 2, 3}, 0, 1},
		{"max", []float64{1, 2, 3}, 1, 3},
		{"clamped", []float64{1, 2, 3}, 1.5, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Quantile(tt.sorted, tt.p); !near(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if !math.IsNaN(Quantile(nil, 0.5)) {
		t.Error("expected NaN for empty input")
	}
}

func TestSummarize(t *testing.T) {
	res := bench.Results{
		"slow": micros(40, 10, 30, 20),
		"fast": micros(4, 1, 3, 2),
	}

	rows, err := Summarize(res, Microseconds, WithResolution(time.Nanosecond))
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 2 || rows[0].Label != "fast" || rows[1].Label != "slow" {
		t.Fatalf("unexpected rows %+v", rows)
	}

	fast := rows[0]

	checks := []struct {
		name      string
		got, want float64
	}{
		{"min", fast.Min, 1},
		{"lq", fast.LowerQuartile, 1.75},
		{"median", fast.Median, 2.5},
		{"uq", fast.UpperQuartile, 3.25},
		{"max", fast.Max, 4},
		{"mean", fast.Mean, 2.5},
		{"stddev", fast.StdDev, math.Sqrt(5.0 / 3.0)},
		{"relative fast", fast.Relative, 1},
		{"relative slow", rows[1].Relative, 10},
	}

	for _, c := range checks {
		if !near(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	if fast.Count != 4 || fast.Unit != Microseconds || fast.BelowResolution {
		t.Errorf("unexpected row %+v", fast)
	}

	// Raw measurements are left untouched.
	if res["fast"][0] != 4*time.Microsecond {
		t.Error("summarize mutated its input")
	}
}

func TestSummarize_InsufficientData(t *testing.T) {
	tests := []struct {
		name string
		res  bench.Results
	}{
		{"nil", nil},
		{"empty map", bench.Results{}},
		{"empty result", bench.Results{"label": {}}},
		{"one empty of two", bench.Results{"a": micros(1), "b": nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Summarize(tt.res, Nanoseconds, WithResolution(time.Nanosecond))
			if !errors.Is(err, pkg.ErrInsufficientData) {
				t.Errorf("expected insufficient data, got %v", err)
			}
		})
	}
}

func TestSummarize_BelowResolution(t *testing.T) {
	rows, err := Summarize(bench.Results{"x": micros(1, 2, 3)}, Nanoseconds,
		WithResolution(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	if !rows[0].BelowResolution {
		t.Error("expected below resolution flag")
	}

	if !strings.Contains(Table(rows), coarseMark) {
		t.Error("table does not mark coarse row")
	}
}

func TestUnit_RoundTrip(t *testing.T) {
	rows, err := Summarize(bench.Results{"x": micros(3, 5, 8, 13)}, Nanoseconds,
		WithResolution(time.Nanosecond))
	if err != nil {
		t.Fatal(err)
	}

	ns := rows[0]
	eps := ns.Convert(EvalsPerSecond)

	if !near(eps.Median, 1e9/ns.Median) {
		t.Errorf("eps median %v, want %v", eps.Median, 1e9/ns.Median)
	}

	if eps.Min > eps.Median || eps.Median > eps.Max {
		t.Errorf("rate order broken: %+v", eps)
	}

	back := eps.Convert(Nanoseconds)

	for _, c := range []struct{ got, want float64 }{
		{back.Min, ns.Min},
		{back.LowerQuartile, ns.LowerQuartile},
		{back.Median, ns.Median},
		{back.UpperQuartile, ns.UpperQuartile},
		{back.Max, ns.Max},
	} {
		if !near(c.got, c.want) {
			t.Errorf("round trip %v != %v", c.got, c.want)
		}
	}

	if ms := ns.Convert(Milliseconds); !near(ms.Median, ns.Median/1e6) {
		t.Errorf("ms median %v", ms.Median)
	}
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in   string
		want Unit
	}{
		{"ns", Nanoseconds},
		{"us", Microseconds},
		{"µs", Microseconds},
		{"MS", Milliseconds},
		{"s", Seconds},
		{" eps ", EvalsPerSecond},
	}

	for _, tt := range tests {
		got, err := ParseUnit(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseUnit(%q) = %v, %v", tt.in, got, err)
		}

		if text, _ := got.MarshalText(); string(text) != got.String() {
			t.Errorf("MarshalText(%v) = %s", got, text)
		}
	}

	if _, err := ParseUnit("fortnights"); !errors.Is(err, pkg.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestRender(t *testing.T) {
	rows, err := Summarize(bench.Results{"alpha": micros(1, 2), "beta": micros(3, 4)},
		Microseconds, WithResolution(time.Nanosecond))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, rows); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"alpha", "beta", "median", "1.500", "1.00x", "2.33x"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
