// Package profile provides optional runtime self-profiling of the sprof
// binary through [github.com/pkg/profile].
//
// Profiling must be enabled at build time with the "pprof" build tag:
//
//	go build -tags pprof -o sprof .
//
// Without the tag every [Profiler] is a no-op and [Modes] is empty.
//
// # Modes
//
//   - allocs:    memory allocation profiling (all allocations)
//   - block:     block (synchronization) profiling
//   - clock:     wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: goroutine profiling
//   - heap:      heap memory profiling (live allocations)
//   - mem:       general memory profiling
//   - mutex:     mutex contention profiling
//   - thread:    thread creation profiling
//   - trace:     execution trace profiling
//
// Output files are named after the mode (cpu.pprof, mem.pprof) and can be
// inspected with "go tool pprof":
//
//	sprof --pprof-mode=cpu prof fib.sp
//	go tool pprof -http=: ~/.cache/sprof/pprof/cpu.pprof
//
// Profiles of the interpreted script itself are produced by
// "sprof prof --out-pprof", not by this package.
package profile

// Tag is the build tag required to enable self-profiling.
const Tag = `pprof`
