package stack

import (
	"sync"
	"testing"
)

func TestTable_Intern(t *testing.T) {
	var tab Table

	a := tab.Intern(FuncInfo{Name: "fib", File: "fib.sp"})
	b := tab.Intern(FuncInfo{Name: "main", File: "fib.sp"})
	c := tab.Intern(FuncInfo{Name: "fib", File: "fib.sp"})

	if a == 0 || b == 0 {
		t.Fatal("zero handle assigned")
	}

	if a != c {
		t.Errorf("same info interned twice: %d != %d", a, c)
	}

	if a == b {
		t.Error("distinct infos share a handle")
	}

	if _, ok := tab.Func(0); ok {
		t.Error("zero handle resolved")
	}

	if _, ok := tab.Func(99); ok {
		t.Error("out of range handle resolved")
	}
}

func TestTable_ConcurrentIntern(t *testing.T) {
	var (
		tab Table
		wg  sync.WaitGroup
	)

	ids := make([]FuncID, 32)
	for i := range ids {
		wg.Add(1)

		go func() {
			defer wg.Done()
			ids[i] = tab.Intern(FuncInfo{Name: "same"})
		}()
	}

	wg.Wait()

	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("inconsistent handles %v", ids)
		}
	}

	if tab.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", tab.Len())
	}
}

func TestSample_Resolve(t *testing.T) {
	var tab Table

	entry := tab.Intern(FuncInfo{Name: "main", File: "a.sp"})
	native := tab.Intern(FuncInfo{Name: "spin"})
	anon := tab.Intern(FuncInfo{File: "a.sp"})

	s := Sample{
		Time:   42,
		Stack:  []Frame{{Func: entry, Line: 3}, {Func: anon, Line: 7}, {Func: native}, {Func: 77, Line: 1}},
		Hazard: HazardDeferred,
	}

	tr := s.Resolve(&tab)

	if len(tr.Frames) != 4 || tr.Time != 42 || tr.Hazard != HazardDeferred {
		t.Fatalf("unexpected trace %+v", tr)
	}

	tests := []struct {
		name     string
		frame    CallFrame
		function string
		loc      Location
	}{
		{"resolved", tr.Frames[0], "main", Location{"a.sp", 3}},
		{"anonymous", tr.Frames[1], Anonymous(anon), Location{"a.sp", 7}},
		{"native", tr.Frames[2], "spin", Location{}},
		{"unknown", tr.Frames[3], Anonymous(77), Location{}},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.frame.Function != tt.function {
				t.Errorf("function = %q, want %q", tt.frame.Function, tt.function)
			}

			if tt.frame.Location != tt.loc {
				t.Errorf("location = %v, want %v", tt.frame.Location, tt.loc)
			}

			if tt.frame.Index != i {
				t.Errorf("index = %d, want %d", tt.frame.Index, i)
			}
		})
	}

	if tr.Frames[2].Location.Valid() {
		t.Error("native frame must not have a valid location")
	}
}

func TestReplay_RepeatsLast(t *testing.T) {
	var r Replay

	if got, _ := r.Stack(nil); len(got) != 0 {
		t.Fatalf("empty replay returned %v", got)
	}

	r.Push(0, Frame{Func: 1, Line: 1})
	r.Push(HazardDeferred, Frame{Func: 1, Line: 1}, Frame{Func: 2, Line: 5})

	first, h1 := r.Stack(nil)
	second, h2 := r.Stack(nil)
	third, h3 := r.Stack(nil)

	if len(first) != 1 || h1 != 0 {
		t.Errorf("first = %v %v", first, h1)
	}

	if len(second) != 2 || h2 != HazardDeferred {
		t.Errorf("second = %v %v", second, h2)
	}

	if len(third) != 2 || h3 != HazardDeferred {
		t.Errorf("third = %v %v", third, h3)
	}

	if r.Calls() != 3 {
		t.Errorf("calls = %d", r.Calls())
	}
}
