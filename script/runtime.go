package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/sprof/log"
	"github.com/ardnew/sprof/pkg"
	"github.com/ardnew/sprof/stack"
)

// DefaultMaxDepth bounds the call stack of a [Runtime].
const DefaultMaxDepth = 1000

// Option configures a [Runtime].
type Option = pkg.Option[config]

type config struct {
	logger   log.Logger
	maxDepth int
}

// WithLogger sets the runtime logger.
func WithLogger(l log.Logger) Option {
	return func(c config) config {
		c.logger = l

		return c
	}
}

// WithMaxDepth bounds the number of active frames. Exceeding it fails the
// call with [pkg.ErrEvaluation].
func WithMaxDepth(n int) Option {
	return func(c config) config {
		if n > 0 {
			c.maxDepth = n
		}

		return c
	}
}

// Runtime executes a [Program]. A Runtime runs one call at a time; its
// frame stack may be sampled from any goroutine through [Runtime.Stack].
type Runtime struct {
	config

	prog *Program

	// mu guards the frame stack. Call is the single writer.
	mu       sync.Mutex
	frames   []stack.Frame
	deferred int

	busy sync.Mutex
	base map[string]any
}

// NewRuntime returns a runtime for p.
func NewRuntime(p *Program, opts ...Option) *Runtime {
	return &Runtime{
		config: pkg.Wrap(config{maxDepth: DefaultMaxDepth}, opts...),
		prog:   p,
	}
}

// Program returns the program executed by rt.
func (rt *Runtime) Program() *Program { return rt.prog }

// Func implements [stack.Symbols].
func (rt *Runtime) Func(id stack.FuncID) (stack.FuncInfo, bool) {
	return rt.prog.Func(id)
}

// Stack implements [stack.Source]. The snapshot is taken under the same
// lock the interpreter holds while changing frames, so it never observes a
// half-updated stack.
func (rt *Runtime) Stack(dst []stack.Frame) ([]stack.Frame, stack.Hazard) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	var h stack.Hazard
	if rt.deferred > 0 {
		h = stack.HazardDeferred
	}

	return append(dst, rt.frames...), h
}

// Depth returns the number of active frames.
func (rt *Runtime) Depth() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	return len(rt.frames)
}

// Call runs the function name with args and returns its result. Errors
// match [pkg.ErrUndefined], [pkg.ErrArity] or [pkg.ErrEvaluation].
func (rt *Runtime) Call(ctx context.Context, name string, args ...any) (any, error) {
	fn, ok := rt.prog.Funcs[name]
	if !ok {
		return nil, pkg.ErrUndefined.
			Wrap(fmt.Errorf("function %q is not defined in %s", name, rt.prog.File)).
			With(slog.String("function", name))
	}

	rt.busy.Lock()
	defer rt.busy.Unlock()

	rt.enter(ctx)
	defer rt.leave()

	v, err := rt.call(ctx, fn, args)
	if err != nil {
		rt.logger.DebugContext(ctx, "call failed",
			slog.String("function", name),
			slog.Any("error", err),
		)
	}

	return v, err
}

// Eval runs a compiled expression against the program's functions.
func (rt *Runtime) Eval(ctx context.Context, program *vm.Program) (any, error) {
	rt.busy.Lock()
	defer rt.busy.Unlock()

	rt.enter(ctx)
	defer rt.leave()

	v, err := expr.Run(program, maps.Clone(rt.base))
	if err != nil {
		return nil, unwrapEval(err, func(err error) error {
			return pkg.ErrEvaluation.Wrap(err).With(slog.String("source", program.Source().String()))
		})
	}

	return v, nil
}

// enter binds every callable to ctx for the duration of one top-level call.
func (rt *Runtime) enter(ctx context.Context) {
	base := make(map[string]any, len(rt.prog.Funcs)+len(natives))

	for name, fn := range rt.prog.Funcs {
		base[name] = callable(func(args ...any) (any, error) {
			return rt.call(ctx, fn, args)
		})
	}

	for name, n := range natives {
		id := rt.prog.natives[name]
		base[name] = callable(func(args ...any) (any, error) {
			return rt.native(ctx, id, name, n, args)
		})
	}

	rt.base = base
}

func (rt *Runtime) leave() {
	rt.base = nil

	rt.mu.Lock()
	rt.frames = rt.frames[:0]
	rt.deferred = 0
	rt.mu.Unlock()
}

func (rt *Runtime) push(id stack.FuncID, line int) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if len(rt.frames) >= rt.maxDepth {
		return pkg.ErrEvaluation.
			Wrap(fmt.Errorf("call depth exceeds %d", rt.maxDepth)).
			With(slog.Int("max_depth", rt.maxDepth))
	}

	rt.frames = append(rt.frames, stack.Frame{Func: id, Line: int32(line)})

	return nil
}

func (rt *Runtime) pop() {
	rt.mu.Lock()
	rt.frames = rt.frames[:len(rt.frames)-1]
	rt.mu.Unlock()
}

// setLine moves the innermost frame to line.
func (rt *Runtime) setLine(line int) {
	rt.mu.Lock()
	rt.frames[len(rt.frames)-1].Line = int32(line)
	rt.mu.Unlock()
}

func (rt *Runtime) call(ctx context.Context, fn *Func, args []any) (any, error) {
	if len(args) != len(fn.Params) {
		return nil, pkg.ErrArity.
			Wrap(fmt.Errorf("%s takes %d argument(s), called with %d", fn.Name, len(fn.Params), len(args))).
			With(slog.String("function", fn.Name))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := rt.push(fn.id, fn.Line); err != nil {
		return nil, err
	}

	defer rt.pop()

	env := maps.Clone(rt.base)
	for i, p := range fn.Params {
		env[p] = args[i]
	}

	for i := range fn.body {
		s := &fn.body[i]

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rt.setLine(s.line)

		switch s.kind {
		case stmtLazy:
			env[s.name] = &promise{rt: rt, fn: fn, stmt: s, env: env}

		case stmtReturn:
			if s.program == nil {
				return nil, nil
			}

			return rt.run(fn, s, env)

		case stmtLet:
			v, err := rt.run(fn, s, env)
			if err != nil {
				return nil, err
			}

			env[s.name] = v

		default:
			if _, err := rt.run(fn, s, env); err != nil {
				return nil, err
			}
		}
	}

	return nil, nil
}

func (rt *Runtime) native(
	ctx context.Context,
	id stack.FuncID,
	name string,
	n native,
	args []any,
) (any, error) {
	if len(args) != n.arity {
		return nil, pkg.ErrArity.
			Wrap(fmt.Errorf("%s takes %d argument(s), called with %d", name, n.arity, len(args))).
			With(slog.String("function", name))
	}

	if err := rt.push(id, 0); err != nil {
		return nil, err
	}

	defer rt.pop()

	return n.run(ctx, rt, args)
}

func (rt *Runtime) run(fn *Func, s *stmt, env map[string]any) (any, error) {
	v, err := expr.Run(s.program, env)
	if err != nil {
		return nil, unwrapEval(err, func(err error) error {
			return pkg.ErrEvaluation.
				Wrap(fmt.Errorf("%s:%d: in %s: %w", rt.prog.File, s.line, fn.Name, err)).
				With(
					slog.String("file", rt.prog.File),
					slog.Int("line", s.line),
					slog.String("function", fn.Name),
				)
		})
	}

	return v, nil
}

// unwrapEval strips the expression engine's wrapping from errors raised by
// nested calls so that the innermost located error surfaces unchanged.
// Other errors are passed to wrap.
func unwrapEval(err error, wrap func(error) error) error {
	var pe *pkg.Error
	if errors.As(err, &pe) {
		return pe
	}

	switch {
	case errors.Is(err, context.Canceled):
		return context.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return context.DeadlineExceeded
	}

	return wrap(err)
}

// promise is a value bound with lazy. It is evaluated at most once, in the
// frame of whoever forces it.
type promise struct {
	rt   *Runtime
	fn   *Func
	stmt *stmt
	env  map[string]any

	done  bool
	value any
	err   error
}

func (p *promise) force() (any, error) {
	if p.done {
		return p.value, p.err
	}

	p.rt.mu.Lock()
	p.rt.deferred++
	p.rt.mu.Unlock()

	defer func() {
		p.rt.mu.Lock()
		p.rt.deferred--
		p.rt.mu.Unlock()
	}()

	p.value, p.err = p.rt.run(p.fn, p.stmt, p.env)
	p.done = true

	return p.value, p.err
}
