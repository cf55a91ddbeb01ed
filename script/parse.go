package script

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/builtin"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/sprof/pkg"
	"github.com/ardnew/sprof/stack"
)

var (
	defPattern   = regexp.MustCompile(`^def\s+([A-Za-z_]\w*)\s*\(([^)]*)\)\s*:\s*$`)
	bindPattern  = regexp.MustCompile(`^(let|lazy)\s+([A-Za-z_]\w*)\s*=\s*(.*)$`)
	identPattern = regexp.MustCompile(`^[A-Za-z_]\w*$`)
)

// callable is the shape of every function visible to expressions.
type callable = func(args ...any) (any, error)

// Parse compiles the script text src. file names the script in frames and
// error messages.
func Parse(file string, src []byte) (*Program, error) {
	p := &Program{
		File:    file,
		Funcs:   make(map[string]*Func),
		lines:   strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n"),
		symbols: new(stack.Table),
		natives: make(map[string]stack.FuncID, len(natives)),
	}

	if n := len(p.lines); n > 0 && p.lines[n-1] == "" {
		p.lines = p.lines[:n-1]
	}

	for _, name := range nativeNames() {
		p.natives[name] = p.symbols.Intern(stack.FuncInfo{Name: name})
	}

	if err := p.scan(); err != nil {
		return nil, err
	}

	for _, name := range p.order {
		if err := p.compile(p.Funcs[name]); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// scan splits the source into functions and statements.
func (p *Program) scan() error {
	var fn *Func

	for i, raw := range p.lines {
		line := i + 1
		text := strings.TrimSpace(raw)

		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		if raw[0] != ' ' && raw[0] != '\t' {
			next, err := p.header(line, text)
			if err != nil {
				return err
			}

			fn = next

			continue
		}

		if fn == nil {
			return p.errorAt(pkg.ErrParse, line, errors.New("statement outside of a function"))
		}

		s, err := p.statement(fn, line, text)
		if err != nil {
			return err
		}

		fn.body = append(fn.body, s)
	}

	return nil
}

func (p *Program) header(line int, text string) (*Func, error) {
	m := defPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, p.errorAt(pkg.ErrParse, line,
			fmt.Errorf("expected \"def name(params):\", found %q", text))
	}

	name := m[1]

	if isReserved(name) {
		return nil, p.errorAt(pkg.ErrParse, line, fmt.Errorf("%q is a builtin", name))
	}

	if _, dup := p.Funcs[name]; dup {
		return nil, p.errorAt(pkg.ErrParse, line, fmt.Errorf("function %q redefined", name))
	}

	fn := &Func{Name: name, Line: line}

	if params := strings.TrimSpace(m[2]); params != "" {
		for param := range strings.SplitSeq(params, ",") {
			param = strings.TrimSpace(param)

			if !identPattern.MatchString(param) {
				return nil, p.errorAt(pkg.ErrParse, line, fmt.Errorf("invalid parameter %q", param))
			}

			if fn.hasLocal(param) {
				return nil, p.errorAt(pkg.ErrParse, line, fmt.Errorf("duplicate parameter %q", param))
			}

			fn.Params = append(fn.Params, param)
		}
	}

	fn.id = p.symbols.Intern(stack.FuncInfo{Name: name, File: p.File})
	p.Funcs[name] = fn
	p.order = append(p.order, name)

	return fn, nil
}

func (p *Program) statement(fn *Func, line int, text string) (stmt, error) {
	s := stmt{line: line}

	switch m := bindPattern.FindStringSubmatch(text); {
	case m != nil:
		s.kind = stmtLet
		if m[1] == "lazy" {
			s.kind = stmtLazy
		}

		s.name, s.source = m[2], strings.TrimSpace(m[3])

		if s.source == "" {
			return s, p.errorAt(pkg.ErrParse, line, fmt.Errorf("%s %s has no value", m[1], s.name))
		}

		if _, ok := p.Funcs[s.name]; ok || isReserved(s.name) {
			return s, p.errorAt(pkg.ErrParse, line, fmt.Errorf("%q shadows a function", s.name))
		}

		if !fn.hasLocal(s.name) {
			fn.locals = append(fn.locals, s.name)
		}

	case text == "return":
		s.kind = stmtReturn

	case strings.HasPrefix(text, "return ") || strings.HasPrefix(text, "return\t"):
		s.kind = stmtReturn
		s.source = strings.TrimSpace(text[len("return"):])

	default:
		s.kind = stmtExpr
		s.source = text
	}

	return s, nil
}

func isReserved(name string) bool {
	if _, ok := builtin.Index[name]; ok {
		return true
	}

	_, ok := natives[name]

	return ok || name == "def" || name == "let" || name == "lazy" || name == "return"
}

func (fn *Func) hasLocal(name string) bool {
	return slices.Contains(fn.Params, name) || slices.Contains(fn.locals, name)
}

// compile compiles every statement of fn against the names visible in it.
func (p *Program) compile(fn *Func) error {
	for _, name := range fn.Params {
		if _, ok := p.Funcs[name]; ok || isReserved(name) {
			return p.errorAt(pkg.ErrParse, fn.Line, fmt.Errorf("parameter %q shadows a function", name))
		}
	}

	env := p.signatures()

	for _, name := range fn.Params {
		env[name] = any(nil)
	}

	for _, name := range fn.locals {
		env[name] = any(nil)
	}

	for i := range fn.body {
		s := &fn.body[i]
		if s.source == "" {
			continue
		}

		program, kind, err := p.compileExpr(s.source, env)
		if err != nil {
			return p.errorAt(kind, s.line, err)
		}

		s.program = program
	}

	return nil
}

// signatures returns the compile-time environment of callable names.
func (p *Program) signatures() map[string]any {
	env := make(map[string]any, len(p.Funcs)+len(natives))

	for name := range p.Funcs {
		env[name] = callable(nil)
	}

	for name := range natives {
		env[name] = callable(nil)
	}

	return env
}

// arities maps every callable name to its parameter count.
func (p *Program) arities() map[string]int {
	m := make(map[string]int, len(p.Funcs)+len(natives))

	for name, fn := range p.Funcs {
		m[name] = len(fn.Params)
	}

	for name, n := range natives {
		m[name] = n.arity
	}

	return m
}

func (p *Program) compileExpr(
	source string,
	env map[string]any,
) (*vm.Program, *pkg.Error, error) {
	check := &arityCheck{arity: p.arities()}

	program, err := expr.Compile(source, expr.Env(env), expr.Patch(check))

	switch {
	case check.err != nil:
		return nil, pkg.ErrArity, check.err
	case err != nil:
		return nil, classify(err), err
	}

	return program, nil, nil
}

// classify maps an expression compile error to a sentinel.
func classify(err error) *pkg.Error {
	if strings.Contains(err.Error(), "unknown name") {
		return pkg.ErrUndefined
	}

	return pkg.ErrParse
}

func (p *Program) errorAt(kind *pkg.Error, line int, err error) error {
	return kind.
		Wrap(fmt.Errorf("%s:%d: %w", p.File, line, err)).
		With(slog.String("file", p.File), slog.Int("line", line))
}

// arityCheck rejects calls to known functions with the wrong argument
// count while an expression is compiled.
type arityCheck struct {
	arity map[string]int
	err   error
}

// Visit implements [ast.Visitor].
func (a *arityCheck) Visit(node *ast.Node) {
	if a.err != nil {
		return
	}

	call, ok := (*node).(*ast.CallNode)
	if !ok {
		return
	}

	id, ok := call.Callee.(*ast.IdentifierNode)
	if !ok {
		return
	}

	want, ok := a.arity[id.Value]
	if !ok || want == len(call.Arguments) {
		return
	}

	a.err = fmt.Errorf("%s takes %d argument(s), called with %d",
		id.Value, want, len(call.Arguments))
}

func errNotThisFile(file string) error {
	return pkg.ErrSourceNotFound.With(slog.String("file", file))
}
