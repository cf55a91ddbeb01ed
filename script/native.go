package script

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/ardnew/sprof/pkg"
)

// native is a builtin implemented in Go. Its frames have no source
// position.
type native struct {
	arity int
	run   func(ctx context.Context, rt *Runtime, args []any) (any, error)
}

var natives map[string]native

func init() {
	natives = map[string]native{
		"spin":  {arity: 1, run: spin},
		"sleep": {arity: 1, run: sleep},
		"force": {arity: 1, run: force},
	}
}

func nativeNames() []string {
	return slices.Sorted(maps.Keys(natives))
}

// spinCheckMask sets how often spin polls for cancellation.
const spinCheckMask = 1<<16 - 1

// spin burns n iterations of integer arithmetic and returns the result.
func spin(ctx context.Context, _ *Runtime, args []any) (any, error) {
	n, err := toInt(args[0])
	if err != nil {
		return nil, err
	}

	var acc uint64

	for i := range n {
		acc = acc*6364136223846793005 + uint64(i) + 1442695040888963407

		if i&spinCheckMask == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	return int(acc >> 33), nil
}

// sleep blocks for the given number of milliseconds.
func sleep(ctx context.Context, _ *Runtime, args []any) (any, error) {
	ms, err := toFloat(args[0])
	if err != nil {
		return nil, err
	}

	t := time.NewTimer(time.Duration(ms * float64(time.Millisecond)))
	defer t.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
		return nil, nil
	}
}

// force evaluates a promise bound with lazy. Any other value is returned
// unchanged.
func force(_ context.Context, _ *Runtime, args []any) (any, error) {
	if p, ok := args[0].(*promise); ok {
		return p.force()
	}

	return args[0], nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case uint:
		return int(n), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			break
		}

		return int(n), nil
	}

	return 0, pkg.ErrEvaluation.Wrap(fmt.Errorf("expected a number, got %T", v))
}

func toFloat(v any) (float64, error) {
	if f, ok := v.(float64); ok {
		return f, nil
	}

	n, err := toInt(v)

	return float64(n), err
}
