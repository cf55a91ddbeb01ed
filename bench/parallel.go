package bench

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ardnew/sprof/pkg"
)

// RunParallel is [Run] with up to workers evaluations in flight at once.
//
// Concurrent evaluations contend for the same processors and caches, so
// individual measurements are inflated and not comparable with those of
// [Run]. Use it to get through a large schedule quickly, not to compare
// fast expressions. The first failing evaluation cancels the context seen
// by the others and no results are returned.
func RunParallel(
	ctx context.Context,
	exprs []Expression,
	times, workers int,
	opts ...Option,
) (Results, error) {
	return New(opts...).RunParallel(ctx, exprs, times, workers)
}

// RunParallel implements the package-level [RunParallel].
func (r *Runner) RunParallel(
	ctx context.Context,
	exprs []Expression,
	times, workers int,
) (Results, error) {
	if workers <= 0 {
		return nil, pkg.ErrConfiguration.
			Wrap(fmt.Errorf("workers must be positive, got %d", workers)).
			With(slog.Int("workers", workers))
	}

	if workers == 1 {
		return r.Run(ctx, exprs, times)
	}

	work, err := r.schedule(exprs, times)
	if err != nil {
		return nil, err
	}

	measured := make([]Result, len(exprs))
	for i := range measured {
		measured[i] = make(Result, times)
	}

	r.logger.DebugContext(ctx, "parallel benchmark start",
		slog.Int("expressions", len(exprs)),
		slog.Int("times", times),
		slog.Int("workers", workers),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for n, j := range work {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			elapsed, err := r.measure(gctx, exprs[j.expr])
			if err != nil {
				return evalError(exprs[j.expr].Label, n, err)
			}

			// Each job owns a distinct slot.
			measured[j.expr][j.rep] = elapsed

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return collect(exprs, measured), nil
}
