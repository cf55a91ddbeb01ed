package script

import (
	"slices"

	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/sprof/stack"
)

type stmtKind uint8

const (
	stmtExpr stmtKind = iota
	stmtLet
	stmtLazy
	stmtReturn
)

func (k stmtKind) String() string {
	switch k {
	case stmtLet:
		return "let"
	case stmtLazy:
		return "lazy"
	case stmtReturn:
		return "return"
	default:
		return "expr"
	}
}

type stmt struct {
	kind    stmtKind
	line    int
	name    string
	source  string
	program *vm.Program
}

// Func is a user-defined function.
type Func struct {
	Name   string
	Params []string
	// Line is the line of the def header.
	Line int

	id     stack.FuncID
	body   []stmt
	locals []string
}

// ID returns the handle the function's frames carry.
func (f *Func) ID() stack.FuncID { return f.id }

// Program is a compiled script. It is immutable and may be shared by any
// number of [Runtime] values.
type Program struct {
	File  string
	Funcs map[string]*Func

	lines   []string
	order   []string
	symbols *stack.Table
	natives map[string]stack.FuncID
}

// Func implements [stack.Symbols].
func (p *Program) Func(id stack.FuncID) (stack.FuncInfo, bool) {
	return p.symbols.Func(id)
}

// Names returns the user function names in definition order.
func (p *Program) Names() []string { return slices.Clone(p.order) }

// Lines returns the source text, one element per line.
func (p *Program) Lines() []string { return slices.Clone(p.lines) }

// Load implements a source loader serving only the script's own file.
func (p *Program) Load(file string) ([]string, error) {
	if file != p.File {
		return nil, errNotThisFile(file)
	}

	return p.Lines(), nil
}
