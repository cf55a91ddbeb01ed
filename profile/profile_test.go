package profile

import (
	"slices"
	"testing"
)

func TestProfiler_Options(t *testing.T) {
	p := New(WithMode("cpu"), WithPath("/tmp/x"), WithQuiet(true))

	if p != (Profiler{Mode: "cpu", Path: "/tmp/x", Quiet: true}) {
		t.Errorf("profiler = %+v", p)
	}
}

func TestProfiler_NoOp(t *testing.T) {
	tests := []struct {
		name string
		p    Profiler
	}{
		{"empty mode", Profiler{}},
		{"unknown mode", Profiler{Mode: "bogus", Path: t.TempDir(), Quiet: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := tt.p.Start().(ignore); !ok {
				t.Error("expected a no-op profiler")
			}
		})
	}
}

func TestModes_Sorted(t *testing.T) {
	if m := Modes(); !slices.IsSorted(m) {
		t.Errorf("modes not sorted: %v", m)
	}
}
