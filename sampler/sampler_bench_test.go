package sampler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ardnew/sprof/script"
)

const deepScript = `def deep(n):
    return n == 0 ? sleep(600000) : deep(n - 1)
`

// parked returns a runtime blocked in sleep with depth frames on its stack.
func parked(b *testing.B, depth int) *script.Runtime {
	b.Helper()

	p, err := script.Parse("deep.sp", []byte(deepScript))
	if err != nil {
		b.Fatal(err)
	}

	rt := script.NewRuntime(p)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		_, _ = rt.Call(ctx, "deep", depth-2)
	}()

	b.Cleanup(func() {
		cancel()
		<-done
	})

	deadline := time.Now().Add(5 * time.Second)
	for rt.Depth() != depth {
		if time.Now().After(deadline) {
			b.Fatalf("runtime reached depth %d, want %d", rt.Depth(), depth)
		}

		time.Sleep(time.Millisecond)
	}

	return rt
}

// BenchmarkSession_Tick measures one capture of a live script stack.
func BenchmarkSession_Tick(b *testing.B) {
	for _, depth := range []int{2, 8, 32, 128} {
		b.Run(fmt.Sprintf("depth_%d", depth), func(b *testing.B) {
			s := New(parked(b, depth))
			ctx := context.Background()

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if i%4096 == 0 {
					s.samples, s.arena = s.samples[:0], s.arena[:0]
				}

				s.tick(ctx)
			}
		})
	}
}

// BenchmarkSample_Resolve measures symbolization after capture.
func BenchmarkSample_Resolve(b *testing.B) {
	rt := parked(b, 32)
	s := New(rt)
	s.tick(context.Background())

	smp := s.samples[0]

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = smp.Resolve(rt)
	}
}
