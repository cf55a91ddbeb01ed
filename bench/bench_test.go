package bench

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ardnew/sprof/clock"
	"github.com/ardnew/sprof/pkg"
)

// recorder logs the order in which labeled evaluators run.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) expr(label string) Expression {
	return Expression{Label: label, Eval: EvaluatorFunc(func(context.Context) (any, error) {
		r.mu.Lock()
		r.order = append(r.order, label)
		r.mu.Unlock()

		return label, nil
	})}
}

func (r *recorder) trail() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return strings.Join(r.order, ",")
}

func TestRun_CountInvariant(t *testing.T) {
	for _, times := range []int{1, 2, 7, 50} {
		var rec recorder

		res, err := Run(t.Context(), []Expression{rec.expr("e1"), rec.expr("e2")}, times)
		if err != nil {
			t.Fatalf("times=%d: %v", times, err)
		}

		if len(res) != 2 || len(res["e1"]) != times || len(res["e2"]) != times {
			t.Errorf("times=%d: got %d/%d measurements", times, len(res["e1"]), len(res["e2"]))
		}

		if len(rec.order) != 2*times {
			t.Errorf("times=%d: %d evaluations", times, len(rec.order))
		}
	}
}

func TestRun_OrderIsRandomized(t *testing.T) {
	exprs := func(rec *recorder) []Expression {
		return []Expression{rec.expr("a"), rec.expr("b"), rec.expr("c")}
	}

	seen := make(map[string]struct{})

	for range 20 {
		var rec recorder

		if _, err := Run(t.Context(), exprs(&rec), 10); err != nil {
			t.Fatal(err)
		}

		seen[rec.trail()] = struct{}{}
	}

	// 30!/(10!)^3 orders; 20 identical draws will not happen.
	if len(seen) < 2 {
		t.Error("evaluation order is constant across runs")
	}
}

func TestRun_SeedReproduces(t *testing.T) {
	run := func() string {
		var rec recorder

		_, err := Run(t.Context(), []Expression{rec.expr("a"), rec.expr("b")}, 16, WithSeed(42))
		if err != nil {
			t.Fatal(err)
		}

		return rec.trail()
	}

	if a, b := run(), run(); a != b {
		t.Errorf("seeded runs differ:\n%s\n%s", a, b)
	}
}

func TestRun_ErrorAbortsAll(t *testing.T) {
	var (
		rec  recorder
		boom = errors.New("boom")
	)

	failing := Expression{Label: "bad", Eval: EvaluatorFunc(func(context.Context) (any, error) {
		return nil, boom
	})}

	res, err := Run(t.Context(), []Expression{rec.expr("ok"), failing, rec.expr("ok2")}, 3)

	if !errors.Is(err, pkg.ErrEvaluation) || !errors.Is(err, boom) {
		t.Fatalf("expected evaluation error wrapping cause, got %v", err)
	}

	if res != nil {
		t.Errorf("expected no results, got %v", res)
	}

	if len(rec.order) > 6 {
		t.Errorf("schedule continued after failure: %d evaluations", len(rec.order))
	}
}

func TestRun_InvalidConfiguration(t *testing.T) {
	var rec recorder

	tests := []struct {
		name  string
		exprs []Expression
		times int
	}{
		{"zero times", []Expression{rec.expr("a")}, 0},
		{"negative times", []Expression{rec.expr("a")}, -1},
		{"no expressions", nil, 3},
		{"nil evaluator", []Expression{{Label: "a"}}, 3},
		{"duplicate label", []Expression{rec.expr("a"), rec.expr("a")}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(t.Context(), tt.exprs, tt.times)
			if !errors.Is(err, pkg.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}

	if len(rec.order) != 0 {
		t.Errorf("evaluated %d times despite invalid configuration", len(rec.order))
	}
}

func TestRun_MeasuresWithClock(t *testing.T) {
	c := &clock.Manual{Step: 5 * time.Microsecond}

	res, err := Run(t.Context(), []Expression{
		{Label: "x", Eval: EvaluatorFunc(func(context.Context) (any, error) { return nil, nil })},
	}, 4, WithClock(c))
	if err != nil {
		t.Fatal(err)
	}

	for i, d := range res["x"] {
		if d != 5*time.Microsecond {
			t.Errorf("measurement %d = %v", i, d)
		}
	}
}

func TestRun_OverheadCompensation(t *testing.T) {
	c := &clock.Manual{Step: 5 * time.Microsecond}
	nop := EvaluatorFunc(func(context.Context) (any, error) { return nil, nil })

	tests := []struct {
		overhead time.Duration
		want     time.Duration
	}{
		{2 * time.Microsecond, 3 * time.Microsecond},
		{time.Millisecond, 0},
		{-time.Second, 5 * time.Microsecond},
	}

	for _, tt := range tests {
		res, err := Run(t.Context(), []Expression{{Label: "x", Eval: nop}}, 2,
			WithClock(c), WithOverheadCompensation(tt.overhead))
		if err != nil {
			t.Fatal(err)
		}

		if !slices.Equal(res["x"], Result{tt.want, tt.want}) {
			t.Errorf("overhead %v: got %v", tt.overhead, res["x"])
		}
	}
}

func TestRun_CanceledContext(t *testing.T) {
	var rec recorder

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := Run(ctx, []Expression{rec.expr("a")}, 3); !errors.Is(err, context.Canceled) {
		t.Errorf("expected canceled, got %v", err)
	}
}

func TestRunParallel(t *testing.T) {
	var (
		inflight, peak atomic.Int32
		calls          atomic.Int32
	)

	eval := EvaluatorFunc(func(context.Context) (any, error) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}

		time.Sleep(time.Millisecond)
		inflight.Add(-1)
		calls.Add(1)

		return nil, nil
	})

	res, err := RunParallel(t.Context(), []Expression{
		{Label: "a", Eval: eval},
		{Label: "b", Eval: eval},
	}, 8, 4)
	if err != nil {
		t.Fatal(err)
	}

	if len(res["a"]) != 8 || len(res["b"]) != 8 || calls.Load() != 16 {
		t.Errorf("unexpected counts: a=%d b=%d calls=%d", len(res["a"]), len(res["b"]), calls.Load())
	}

	if peak.Load() > 4 {
		t.Errorf("peak concurrency %d exceeds workers", peak.Load())
	}
}

func TestRunParallel_ErrorAbortsAll(t *testing.T) {
	boom := errors.New("boom")

	res, err := RunParallel(t.Context(), []Expression{
		{Label: "ok", Eval: EvaluatorFunc(func(context.Context) (any, error) { return nil, nil })},
		{Label: "bad", Eval: EvaluatorFunc(func(context.Context) (any, error) { return nil, boom })},
	}, 5, 3)

	if !errors.Is(err, pkg.ErrEvaluation) || res != nil {
		t.Errorf("got res=%v err=%v", res, err)
	}

	if _, err := RunParallel(t.Context(), nil, 5, 0); !errors.Is(err, pkg.ErrConfiguration) {
		t.Errorf("zero workers: %v", err)
	}
}
