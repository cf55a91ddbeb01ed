// Package bench times small expressions against each other.
//
// Every expression is evaluated the requested number of times. The flat
// schedule of all evaluations is shuffled before each run so that drift in
// the machine (frequency scaling, cache warmup, collector phase) spreads
// evenly over the expressions instead of biasing whichever runs first.
// Evaluations are strictly sequential; [RunParallel] trades that guarantee
// for throughput.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/ardnew/sprof/clock"
	"github.com/ardnew/sprof/pkg"
)

// Evaluator executes an expression exactly once. The value produced is
// discarded by the runner.
type Evaluator interface {
	Eval(ctx context.Context) (any, error)
}

// EvaluatorFunc adapts a function to [Evaluator].
type EvaluatorFunc func(ctx context.Context) (any, error)

// Eval implements [Evaluator].
func (f EvaluatorFunc) Eval(ctx context.Context) (any, error) { return f(ctx) }

// Expression is a labeled unit of work.
type Expression struct {
	Label string
	Eval  Evaluator
}

// Result holds the elapsed time of every evaluation of one expression, in
// the order they were taken.
type Result []time.Duration

// Results maps expression labels to their measurements.
type Results map[string]Result

// Runner executes benchmark schedules.
type Runner struct {
	config
}

// New returns a runner timing with the system clock.
func New(opts ...Option) *Runner {
	return &Runner{config: pkg.Wrap(config{clock: clock.System}, opts...)}
}

// Run evaluates each expression times times in a random order and returns
// exactly times measurements per label.
//
// Invalid arguments fail with [pkg.ErrConfiguration] before anything is
// evaluated. If an evaluation fails the schedule is abandoned and no
// results are returned; the error wraps [pkg.ErrEvaluation] and the
// evaluator's error.
func Run(ctx context.Context, exprs []Expression, times int, opts ...Option) (Results, error) {
	return New(opts...).Run(ctx, exprs, times)
}

type job struct {
	expr int
	rep  int
}

// Run implements the package-level [Run].
func (r *Runner) Run(ctx context.Context, exprs []Expression, times int) (Results, error) {
	work, err := r.schedule(exprs, times)
	if err != nil {
		return nil, err
	}

	measured := make([]Result, len(exprs))
	for i := range measured {
		measured[i] = make(Result, times)
	}

	r.logger.DebugContext(ctx, "benchmark start",
		slog.Int("expressions", len(exprs)),
		slog.Int("times", times),
	)

	for n, j := range work {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		elapsed, err := r.measure(ctx, exprs[j.expr])
		if err != nil {
			return nil, evalError(exprs[j.expr].Label, n, err)
		}

		measured[j.expr][j.rep] = elapsed
	}

	return collect(exprs, measured), nil
}

func (r *Runner) measure(ctx context.Context, e Expression) (time.Duration, error) {
	t0 := r.clock.Now()
	_, err := e.Eval.Eval(ctx)
	t1 := r.clock.Now()

	return max(clock.Elapsed(t0, t1)-r.overhead, 0), err
}

// schedule validates the arguments and returns the shuffled worklist.
func (r *Runner) schedule(exprs []Expression, times int) ([]job, error) {
	if times <= 0 {
		return nil, pkg.ErrConfiguration.
			Wrap(fmt.Errorf("times must be positive, got %d", times)).
			With(slog.Int("times", times))
	}

	if len(exprs) == 0 {
		return nil, pkg.ErrConfiguration.Wrap(fmt.Errorf("no expressions"))
	}

	seen := make(map[string]struct{}, len(exprs))

	for i, e := range exprs {
		if e.Eval == nil {
			return nil, pkg.ErrConfiguration.
				Wrap(fmt.Errorf("expression %q has no evaluator", e.Label)).
				With(slog.Int("index", i))
		}

		if _, dup := seen[e.Label]; dup {
			return nil, pkg.ErrConfiguration.
				Wrap(fmt.Errorf("duplicate label %q", e.Label)).
				With(slog.Int("index", i))
		}

		seen[e.Label] = struct{}{}
	}

	work := make([]job, 0, len(exprs)*times)
	for i := range exprs {
		for rep := range times {
			work = append(work, job{expr: i, rep: rep})
		}
	}

	r.rand().Shuffle(len(work), func(i, j int) {
		work[i], work[j] = work[j], work[i]
	})

	return work, nil
}

func (r *Runner) rand() *rand.Rand {
	if r.seeded {
		return rand.New(rand.NewPCG(r.seed, r.seed^0x9e3779b97f4a7c15))
	}

	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func collect(exprs []Expression, measured []Result) Results {
	out := make(Results, len(exprs))
	for i, e := range exprs {
		out[e.Label] = measured[i]
	}

	return out
}

func evalError(label string, position int, err error) error {
	return pkg.ErrEvaluation.Wrap(err).With(
		slog.String("label", label),
		slog.Int("position", position),
	)
}
