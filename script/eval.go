package script

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/sprof/bench"
	"github.com/ardnew/sprof/pkg"
)

// Evaluator is a compiled expression over a program's functions. It
// implements [bench.Evaluator] and is safe for concurrent use: each Eval
// borrows a [Runtime] from a pool.
type Evaluator struct {
	Source string

	prog    *Program
	program *vm.Program
	pool    sync.Pool
}

// Evaluator compiles source against the functions of p.
func (p *Program) Evaluator(source string, opts ...Option) (*Evaluator, error) {
	program, kind, err := p.compileExpr(source, p.signatures())
	if err != nil {
		return nil, kind.Wrap(err).With(slog.String("source", source))
	}

	e := &Evaluator{Source: source, prog: p, program: program}
	e.pool.New = func() any { return NewRuntime(p, opts...) }

	return e, nil
}

// Eval implements [bench.Evaluator].
func (e *Evaluator) Eval(ctx context.Context) (any, error) {
	rt := e.pool.Get().(*Runtime)
	defer e.pool.Put(rt)

	return rt.Eval(ctx, e.program)
}

// Expressions compiles each source against p and labels it with its text.
// A nil p compiles plain expressions with only the builtins in scope.
func Expressions(p *Program, sources []string, opts ...Option) ([]bench.Expression, error) {
	if p == nil {
		var err error
		if p, err = Parse("", nil); err != nil {
			return nil, err
		}
	}

	exprs := make([]bench.Expression, 0, len(sources))

	for _, source := range sources {
		e, err := p.Evaluator(source, opts...)
		if err != nil {
			return nil, err
		}

		exprs = append(exprs, bench.Expression{Label: source, Eval: e})
	}

	if len(exprs) == 0 {
		return nil, pkg.ErrConfiguration.Wrap(errors.New("no expressions"))
	}

	return exprs, nil
}
