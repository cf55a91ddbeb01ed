package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/expr-lang/expr"

	"github.com/ardnew/sprof/aggregate"
	"github.com/ardnew/sprof/cli/view"
	"github.com/ardnew/sprof/export"
	"github.com/ardnew/sprof/log"
	"github.com/ardnew/sprof/pkg"
	"github.com/ardnew/sprof/report"
	"github.com/ardnew/sprof/sampler"
	"github.com/ardnew/sprof/script"
)

// stdinFile names a script read from standard input in frames.
const stdinFile = "<stdin>"

// Prof samples a script while it runs and reports the cost of each line.
type Prof struct {
	Script string   `arg:"" help:"Script to profile ('-' for stdin)" optional:"" type:"existingfile"`
	Entry  string   `default:"main"                                 help:"Function to call"`
	Args   []string `help:"Arguments of the entry function, each an expression" sep:"none"`

	Interval   time.Duration `default:"1ms" help:"Sampling interval"`
	MaxSamples int           `default:"${maxSamples}" help:"Retain at most this many samples"`
	MaxDepth   int           `default:"${maxDepth}" help:"Maximum call depth of the script"`

	From string `help:"Aggregate a recorded sample file instead of running a script" type:"existingfile"`

	OutPprof   string `help:"Write samples as a gzipped pprof profile"             placeholder:"FILE" type:"path"`
	OutSamples string `aliases:"out-yaml" help:"Write raw samples (format from extension)" placeholder:"FILE" type:"path"`
	OutReport  string `help:"Write the line report (format from extension)"      placeholder:"FILE" type:"path"`

	Func        string   `help:"Report only the lines of the best matching function"`
	Top         int      `default:"0"                                              help:"Report at most this many lines (0 for all)"`
	Interactive bool     `help:"Browse the report interactively"                   short:"i"`
	SourceDir   []string `help:"Directories searched for source files"             type:"path"`
}

// Validate implements kong's validation hook.
func (p *Prof) Validate() error {
	switch {
	case p.Script == "" && p.From == "":
		return pkg.ErrConfiguration.Wrap(errors.New("a script or --from is required"))
	case p.Script != "" && p.From != "":
		return pkg.ErrConfiguration.Wrap(errors.New("a script and --from are mutually exclusive"))
	case p.Interval <= 0:
		return pkg.ErrConfiguration.
			Wrap(fmt.Errorf("interval must be positive, got %s", p.Interval)).
			With(slog.Duration("interval", p.Interval))
	}

	return nil
}

// Run executes the prof command.
func (p *Prof) Run(ctx context.Context) error {
	logger := log.Default()

	rec, prog, err := p.record(ctx, logger)
	if err != nil {
		return err
	}

	loader := report.Chain{report.NewFileLoader(p.SourceDir...)}
	if prog != nil {
		loader = append(report.Chain{prog}, loader...)
	}

	r := report.New(
		rec.Profile(aggregate.WithLogger(logger)),
		report.WithLoader(loader),
		report.WithLogger(logger),
	)

	if err := p.write(ctx, rec, r); err != nil {
		return err
	}

	if p.Interactive {
		return view.Run(ctx, r, p.Func, logger)
	}

	lines, err := p.selection(r)
	if err != nil {
		return err
	}

	return r.Render(stdout(ctx), lines...)
}

// record produces the samples to report, with the program that ran when a
// script was profiled.
func (p *Prof) record(
	ctx context.Context,
	logger log.Logger,
) (*export.SampleFile, *script.Program, error) {
	if p.From != "" {
		rec, err := readSamples(p.From)
		if err != nil {
			return nil, nil, err
		}

		logger.DebugContext(ctx, "samples loaded",
			slog.String("file", p.From),
			slog.Int("samples", len(rec.Samples)),
			slog.Duration("interval", rec.Interval),
		)

		return rec, nil, nil
	}

	prog, err := p.parse(ctx, logger)
	if err != nil {
		return nil, nil, err
	}

	args, err := arguments(p.Args)
	if err != nil {
		return nil, nil, err
	}

	rt := script.NewRuntime(prog, script.WithLogger(logger), script.WithMaxDepth(p.MaxDepth))

	session := sampler.New(rt,
		sampler.WithLogger(logger),
		sampler.WithMaxSamples(p.MaxSamples),
	)

	var result any

	samples, err := session.Profile(ctx, p.Interval, func(ctx context.Context) error {
		var err error

		result, err = rt.Call(ctx, p.Entry, args...)

		return err
	})
	if err != nil {
		return nil, nil, err
	}

	st := session.Stats()

	logger.InfoContext(ctx, "profile recorded",
		slog.String("script", prog.File),
		slog.String("entry", p.Entry),
		slog.Any("result", result),
		slog.Int("samples", st.Samples),
		slog.Int("dropped", st.Dropped),
		slog.Duration("overhead", st.Overhead),
	)

	return export.NewSampleFile(samples, rt, p.Interval), prog, nil
}

func (p *Prof) parse(ctx context.Context, logger log.Logger) (*script.Program, error) {
	if p.Script == stdinSource {
		return script.ParseReader(ctx, stdinFile, os.Stdin, script.WithLogger(logger))
	}

	return script.ParseFile(ctx, p.Script, script.WithLogger(logger))
}

// arguments evaluates each argument as a constant expression.
func arguments(sources []string) ([]any, error) {
	args := make([]any, len(sources))

	for i, src := range sources {
		v, err := expr.Eval(src, nil)
		if err != nil {
			return nil, pkg.ErrConfiguration.
				Wrap(fmt.Errorf("argument %d: %w", i+1, err)).
				With(slog.String("arg", src))
		}

		args[i] = v
	}

	return args, nil
}

func readSamples(path string) (*export.SampleFile, error) {
	var (
		r      io.Reader = os.Stdin
		format           = export.YAML
	)

	if path != stdinSource {
		f, err := os.Open(path)
		if err != nil {
			return nil, ErrReadSamples.Wrap(err).With(slog.String("file", path))
		}
		defer f.Close()

		if format, err = export.FormatOf(path); err != nil {
			return nil, err
		}

		r = f
	}

	rec, err := export.ReadSamples(r, format)
	if err != nil {
		return nil, ErrReadSamples.Wrap(err).With(slog.String("file", path))
	}

	return rec, nil
}

// write writes every requested output file.
func (p *Prof) write(ctx context.Context, rec *export.SampleFile, r *report.Reporter) error {
	if p.OutPprof != "" {
		err := writeFile(ctx, p.OutPprof, func(w io.Writer) error {
			return export.WritePprof(w, rec.Samples, rec.Interval)
		})
		if err != nil {
			return err
		}
	}

	if p.OutSamples != "" {
		f, err := outputFormat(p.OutSamples)
		if err != nil {
			return err
		}

		if err := writeFile(ctx, p.OutSamples, func(w io.Writer) error {
			return rec.Write(w, f)
		}); err != nil {
			return err
		}
	}

	if p.OutReport != "" {
		f, err := outputFormat(p.OutReport)
		if err != nil {
			return err
		}

		if err := writeFile(ctx, p.OutReport, func(w io.Writer) error {
			return export.Profile(w, f, r)
		}); err != nil {
			return err
		}
	}

	return nil
}

// outputFormat picks the format of path from its extension; stdout gets
// YAML.
func outputFormat(path string) (export.Format, error) {
	if path == stdoutSink {
		return export.YAML, nil
	}

	return export.FormatOf(path)
}

// selection returns the lines to print, nil meaning all of them.
func (p *Prof) selection(r *report.Reporter) ([]aggregate.Line, error) {
	var lines []aggregate.Line

	if p.Func != "" {
		names := r.Find(p.Func)
		if len(names) == 0 {
			return nil, pkg.ErrConfiguration.
				Wrap(fmt.Errorf("no function matches %q", p.Func)).
				With(slog.String("func", p.Func))
		}

		lines = r.ChildrenOf(names[0])
		if lines == nil {
			lines = []aggregate.Line{}
		}
	}

	if p.Top > 0 {
		if lines == nil {
			lines = r.Top(p.Top)
		} else {
			lines = lines[:min(p.Top, len(lines))]
		}
	}

	return lines, nil
}
