package export

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/ardnew/sprof/aggregate"
	"github.com/ardnew/sprof/pkg"
	"github.com/ardnew/sprof/stack"
)

// SampleFile is a recorded sampling run, resolved so that it can be
// aggregated again without the runtime that produced it.
type SampleFile struct {
	Interval time.Duration `json:"interval" yaml:"interval"`
	Samples  []stack.Trace `json:"samples"  yaml:"samples"`
}

// NewSampleFile resolves samples through sym.
func NewSampleFile(
	samples []stack.Sample,
	sym stack.Symbols,
	interval time.Duration,
) *SampleFile {
	return &SampleFile{
		Interval: interval,
		Samples:  stack.ResolveAll(samples, sym),
	}
}

// Write encodes sf to w in format f.
func (sf *SampleFile) Write(w io.Writer, f Format) error {
	switch f {
	case CSV:
		return samplesCSV(w, sf.Samples)
	case Pprof:
		return WritePprof(w, sf.Samples, sf.Interval)
	default:
		return Encode(w, f, sf)
	}
}

// Profile aggregates the recorded samples.
func (sf *SampleFile) Profile(opts ...aggregate.Option) *aggregate.Profile {
	return aggregate.Aggregate(sf.Samples, sf.Interval, opts...)
}

// ReadSamples decodes a sample file written as YAML or JSON.
func ReadSamples(r io.Reader, f Format) (*SampleFile, error) {
	var sf SampleFile

	if err := Decode(r, f, &sf); err != nil {
		return nil, err
	}

	if sf.Interval <= 0 {
		return nil, pkg.ErrExport.
			Wrap(errors.New("sample file has no sampling interval")).
			With(slog.Duration("interval", sf.Interval))
	}

	return &sf, nil
}
