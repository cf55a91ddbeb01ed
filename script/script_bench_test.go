package script

import (
	"bytes"
	"context"
	"testing"
)

// BenchmarkEvaluator_Eval measures one benchmarked evaluation, pooled
// runtime included.
func BenchmarkEvaluator_Eval(b *testing.B) {
	p, err := Parse("bench.sp", []byte(demo))
	if err != nil {
		b.Fatal(err)
	}

	tests := []struct {
		name string
		expr string
	}{
		{name: "arithmetic", expr: "1 + 2 * 3"},
		{name: "call", expr: "fast()"},
		{name: "recursion", expr: "fact(10)"},
	}

	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			e, err := p.Evaluator(tt.expr)
			if err != nil {
				b.Fatal(err)
			}

			ctx := context.Background()

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, err := e.Eval(ctx); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkParseReader_Cached measures a load of an unchanged script.
func BenchmarkParseReader_Cached(b *testing.B) {
	ClearCache()
	b.Cleanup(ClearCache)

	src := []byte(demo)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := ParseReader(ctx, "bench.sp", bytes.NewReader(src)); err != nil {
			b.Fatal(err)
		}
	}
}
