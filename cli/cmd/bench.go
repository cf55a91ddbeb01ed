package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ardnew/sprof/bench"
	"github.com/ardnew/sprof/clock"
	"github.com/ardnew/sprof/export"
	"github.com/ardnew/sprof/log"
	"github.com/ardnew/sprof/pkg"
	"github.com/ardnew/sprof/script"
	"github.com/ardnew/sprof/stats"
)

// tableFormat selects the rendered text table instead of an export format.
const tableFormat = "table"

// Bench times expressions against each other.
type Bench struct {
	Exprs []string `arg:"" help:"Expressions to time"`
	File  string   `help:"Script whose functions the expressions may call" short:"f" type:"existingfile"`

	Times      int    `default:"100" help:"Evaluations per expression"              short:"n"`
	Seed       uint64 `default:"0"   help:"Seed of the evaluation order (0 draws a fresh one)"`
	Parallel   int    `default:"1"   help:"Evaluations in flight at once"          short:"p"`
	Compensate bool   `help:"Subtract the measured cost of reading the clock"`

	Unit   stats.Unit `default:"us"    help:"Unit of the summary (${units})"`
	Format string     `default:"table" enum:"table,yaml,json,csv" help:"Output format"`
	Raw    bool       `help:"Write every measurement instead of the summary"`
}

// Validate implements kong's validation hook.
func (b *Bench) Validate() error {
	if b.Raw && b.Format == tableFormat {
		return pkg.ErrConfiguration.Wrap(errors.New("--raw needs --format yaml, json or csv"))
	}

	return nil
}

// Run executes the bench command.
func (b *Bench) Run(ctx context.Context) error {
	logger := log.Default()

	var prog *script.Program

	if b.File != "" {
		var err error

		prog, err = script.ParseFile(ctx, b.File, script.WithLogger(logger))
		if err != nil {
			return err
		}
	}

	exprs, err := script.Expressions(prog, b.Exprs, script.WithLogger(logger))
	if err != nil {
		return err
	}

	cal := clock.SystemCalibration()

	opts := []bench.Option{bench.WithLogger(logger)}
	if b.Seed != 0 {
		opts = append(opts, bench.WithSeed(b.Seed))
	}

	if b.Compensate {
		opts = append(opts, bench.WithOverheadCompensation(cal.Overhead))
	}

	results, err := bench.RunParallel(ctx, exprs, b.Times, b.Parallel, opts...)
	if err != nil {
		return err
	}

	logger.DebugContext(ctx, "benchmark complete",
		slog.Int("expressions", len(exprs)),
		slog.Int("times", b.Times),
		slog.Duration("resolution", cal.Resolution),
	)

	w := stdout(ctx)

	if b.Raw {
		f, err := export.ParseFormat(b.Format)
		if err != nil {
			return err
		}

		return export.Results(w, f, results)
	}

	rows, err := stats.Summarize(results, b.Unit, stats.WithResolution(cal.Resolution))
	if err != nil {
		return err
	}

	if b.Format == tableFormat {
		return stats.Render(w, rows)
	}

	f, err := export.ParseFormat(b.Format)
	if err != nil {
		return err
	}

	return export.Stats(w, f, rows)
}
