// Package stack defines the call-stack data captured by the sampler and the
// interface a target runtime implements to be sampled.
//
// Capture and resolution are split. A [Source] hands out raw [Frame] values
// (a function handle plus the line executing in it) that are cheap to copy
// while the target is paused. Names and files are looked up afterwards
// through [Symbols], outside the critical section.
package stack

import (
	"fmt"
	"strconv"

	"github.com/ardnew/sprof/clock"
)

// FuncID is a runtime-assigned handle for a function.
type FuncID uint32

// Frame is one raw stack entry as captured.
type Frame struct {
	Func FuncID
	// Line is the line currently executing in this frame, or zero when the
	// frame has no source position (native builtins).
	Line int32
}

// Hazard flags samples whose shape is known to misrepresent the logical call
// graph. Flagged samples are attributed exactly as observed.
type Hazard uint8

const (
	// HazardDeferred marks a sample taken while a deferred argument was being
	// forced inside its callee, so the callee appears as the caller.
	HazardDeferred Hazard = 1 << iota
)

func (h Hazard) String() string {
	if h == 0 {
		return ""
	}

	if h&HazardDeferred != 0 {
		return "deferred"
	}

	return "hazard(" + strconv.Itoa(int(h)) + ")"
}

// Sample is one observation of a call stack, outermost frame first.
type Sample struct {
	Time   clock.Instant
	Stack  []Frame
	Hazard Hazard
}

// FuncInfo is the symbolic description of a function.
type FuncInfo struct {
	Name string
	// File is empty for functions without source (native builtins).
	File string
}

// Symbols resolves function handles.
type Symbols interface {
	Func(id FuncID) (FuncInfo, bool)
}

// Source is the runtime hook polled by the sampler.
//
// Stack appends the current stack, outermost first, to dst and returns it
// together with any hazard flags. The implementation must return a
// consistent snapshot: the target may not mutate its stack while Stack runs.
type Source interface {
	Symbols
	Stack(dst []Frame) ([]Frame, Hazard)
}

// Location is a position in a source file. The zero Location means "no
// source" and is how native frames are represented.
type Location struct {
	File string `json:"file,omitempty" yaml:"file,omitempty"`
	Line int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// Valid reports whether l names a file and line.
func (l Location) Valid() bool { return l.File != "" && l.Line > 0 }

func (l Location) String() string {
	if !l.Valid() {
		return "?"
	}

	return l.File + ":" + strconv.Itoa(l.Line)
}

// CallFrame is a resolved stack entry.
type CallFrame struct {
	Function string   `json:"function"           yaml:"function"`
	Location Location `json:"location,omitzero" yaml:"location,omitempty"`
	// Index is the frame's depth, 0 being the outermost.
	Index int `json:"index" yaml:"index"`
}

// Trace is a resolved [Sample].
type Trace struct {
	Time   clock.Instant `json:"time"             yaml:"time"`
	Frames []CallFrame   `json:"frames"           yaml:"frames"`
	Hazard Hazard        `json:"hazard,omitempty" yaml:"hazard,omitempty"`
}

// Anonymous returns the synthetic name given to a function without one.
func Anonymous(id FuncID) string {
	return fmt.Sprintf("<anonymous#%d>", id)
}

// Resolve converts s into a [Trace] using sym. Unknown handles and empty
// names get a synthetic name; frames without a file or line keep a zero
// Location.
func (s Sample) Resolve(sym Symbols) Trace {
	frames := make([]CallFrame, len(s.Stack))

	for i, f := range s.Stack {
		info, ok := sym.Func(f.Func)
		if !ok || info.Name == "" {
			info.Name = Anonymous(f.Func)
		}

		cf := CallFrame{Function: info.Name, Index: i}
		if info.File != "" && f.Line > 0 {
			cf.Location = Location{File: info.File, Line: int(f.Line)}
		}

		frames[i] = cf
	}

	return Trace{Time: s.Time, Frames: frames, Hazard: s.Hazard}
}

// ResolveAll resolves every sample in order.
func ResolveAll(samples []Sample, sym Symbols) []Trace {
	traces := make([]Trace, len(samples))
	for i, s := range samples {
		traces[i] = s.Resolve(sym)
	}

	return traces
}
