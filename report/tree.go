package report

import (
	"slices"
	"time"

	"github.com/ardnew/sprof/aggregate"
	"github.com/ardnew/sprof/stack"
)

// Node is a function in the drill-down tree.
//
// The tree is a per-function drill-down, not a calling-context tree: a
// function's lines and their callees are aggregated over every caller,
// so a callee node lists lines reached from other call sites too. Each
// function is expanded once, under its costliest occurrence; every other
// occurrence is a Shared node without lines.
type Node struct {
	Func  string        `json:"func"  yaml:"func"`
	Ticks int           `json:"ticks" yaml:"ticks"`
	Time  time.Duration `json:"time"  yaml:"time"`
	// Recursive is set on a function already open higher in the tree.
	Recursive bool `json:"recursive,omitempty" yaml:"recursive,omitempty"`
	// Shared is set on a function whose lines appear elsewhere in the tree.
	Shared bool        `json:"shared,omitempty" yaml:"shared,omitempty"`
	Lines  []*LineNode `json:"lines,omitempty"  yaml:"lines,omitempty"`
}

// LineNode is a line inside a [Node] with the functions it called.
type LineNode struct {
	Location stack.Location `json:"location" yaml:"location"`
	Source   string         `json:"source"   yaml:"source"`

	Ticks    int           `json:"ticks"             yaml:"ticks"`
	Self     int           `json:"self"              yaml:"self"`
	Time     time.Duration `json:"time"              yaml:"time"`
	SelfTime time.Duration `json:"self_time"         yaml:"self_time"`
	Hazards  int           `json:"hazards,omitempty" yaml:"hazards,omitempty"`
	Calls    []*Node       `json:"calls,omitempty"   yaml:"calls,omitempty"`
}

// treeBuilder expands a tree, remembering which functions were opened.
type treeBuilder struct {
	r        *Reporter
	expanded map[string]struct{}
	path     []string
}

// Tree returns the drill-down tree rooted at every outermost function
// observed, ordered largest cost first at every level. Its size is linear
// in the number of call edges of the profile.
func (r *Reporter) Tree() []*Node {
	roots := r.profile.Roots()
	slices.SortStableFunc(roots, byCallCost)

	b := r.builder()
	nodes := make([]*Node, 0, len(roots))

	for _, c := range roots {
		nodes = append(nodes, b.node(c))
	}

	return nodes
}

// Subtree returns the tree below fn as if fn were a root. Its tick count is
// the largest observed for any of its lines.
func (r *Reporter) Subtree(fn string) *Node {
	ticks := 0
	if lines := r.byFunc[fn]; len(lines) > 0 {
		ticks = lines[0].Ticks
	}

	return r.builder().node(aggregate.Call{Func: fn, Ticks: ticks})
}

func (r *Reporter) builder() *treeBuilder {
	return &treeBuilder{r: r, expanded: make(map[string]struct{})}
}

func (b *treeBuilder) node(c aggregate.Call) *Node {
	n := &Node{
		Func:  c.Func,
		Ticks: c.Ticks,
		Time:  time.Duration(c.Ticks) * b.r.profile.Interval,
	}

	if slices.Contains(b.path, c.Func) {
		n.Recursive = true

		return n
	}

	if _, ok := b.expanded[c.Func]; ok {
		n.Shared = true

		return n
	}

	b.expanded[c.Func] = struct{}{}
	b.path = append(b.path, c.Func)

	defer func() { b.path = b.path[:len(b.path)-1] }()

	for _, l := range b.r.byFunc[c.Func] {
		src, _ := b.r.Source(l.Key)

		ln := &LineNode{
			Location: l.Location(),
			Source:   src,
			Ticks:    l.Ticks,
			Self:     l.Self,
			Time:     l.EstimatedTime(),
			SelfTime: l.SelfTime(),
			Hazards:  l.Hazards,
		}

		callees := b.r.profile.Calls(l.Key)
		slices.SortStableFunc(callees, byCallCost)

		for _, callee := range callees {
			ln.Calls = append(ln.Calls, b.node(callee))
		}

		n.Lines = append(n.Lines, ln)
	}

	return n
}

func byCallCost(a, b aggregate.Call) int { return b.Ticks - a.Ticks }
