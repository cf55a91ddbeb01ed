package export

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/pprof/profile"

	"github.com/ardnew/sprof/pkg"
	"github.com/ardnew/sprof/stack"
)

// ToPprof converts resolved samples into a pprof profile. Each sample
// carries a count of one and the sampling interval as CPU time. Frames
// without a source position become locations with line zero; hazardous
// samples are labeled with their hazard.
func ToPprof(traces []stack.Trace, interval time.Duration) (*profile.Profile, error) {
	if interval <= 0 {
		return nil, pkg.ErrExport.
			Wrap(errors.New("sampling interval must be positive")).
			With(slog.Duration("interval", interval))
	}

	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "samples", Unit: "count"},
			{Type: "cpu", Unit: "nanoseconds"},
		},
		DefaultSampleType: "cpu",
		PeriodType:        &profile.ValueType{Type: "cpu", Unit: "nanoseconds"},
		Period:            interval.Nanoseconds(),
	}

	if n := len(traces); n > 0 {
		prof.DurationNanos = (traces[n-1].Time.Sub(traces[0].Time) + interval).Nanoseconds()
	}

	type funcKey struct{ name, file string }

	type locKey struct {
		funcKey
		line int
	}

	functions := make(map[funcKey]*profile.Function)
	locations := make(map[locKey]*profile.Location)

	for _, t := range traces {
		if len(t.Frames) == 0 {
			continue
		}

		locs := make([]*profile.Location, 0, len(t.Frames))

		// pprof lists the leaf first.
		for i := len(t.Frames) - 1; i >= 0; i-- {
			f := t.Frames[i]
			fk := funcKey{name: f.Function, file: f.Location.File}

			fn, ok := functions[fk]
			if !ok {
				fn = &profile.Function{
					ID:         uint64(len(prof.Function) + 1),
					Name:       f.Function,
					SystemName: f.Function,
					Filename:   f.Location.File,
				}
				functions[fk] = fn
				prof.Function = append(prof.Function, fn)
			}

			lk := locKey{funcKey: fk, line: f.Location.Line}

			loc, ok := locations[lk]
			if !ok {
				loc = &profile.Location{
					ID:   uint64(len(prof.Location) + 1),
					Line: []profile.Line{{Function: fn, Line: int64(f.Location.Line)}},
				}
				locations[lk] = loc
				prof.Location = append(prof.Location, loc)
			}

			locs = append(locs, loc)
		}

		s := &profile.Sample{
			Location: locs,
			Value:    []int64{1, interval.Nanoseconds()},
		}

		if t.Hazard != 0 {
			s.Label = map[string][]string{"hazard": {t.Hazard.String()}}
		}

		prof.Sample = append(prof.Sample, s)
	}

	if err := prof.CheckValid(); err != nil {
		return nil, pkg.ErrExport.Wrap(err)
	}

	return prof, nil
}

// WritePprof writes traces to w as a gzipped pprof protocol buffer.
func WritePprof(w io.Writer, traces []stack.Trace, interval time.Duration) error {
	prof, err := ToPprof(traces, interval)
	if err != nil {
		return err
	}

	if err := prof.Write(w); err != nil {
		return pkg.ErrExport.Wrap(err).With(slog.String("format", Pprof.String()))
	}

	return nil
}
