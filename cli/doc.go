// Package cli contains the command line interface for sprof.
//
// # Commands
//
//	sprof prof SCRIPT    sample a script and report the cost of each line
//	sprof bench EXPR...  time expressions against each other
//	sprof clock          print the resolution and read cost of the clock
//	sprof init           write the current flag values to the config file
//
// # Configuration
//
// Flag defaults are read from config.yaml and config.json in the user
// configuration directory (for example ~/.config/sprof). Top-level keys
// apply to every command and a key named after a command holds flags for
// that command only. Flags given on the command line always win.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// # Self-profiling Options
//
// Profiling sprof itself is only available when built with the pprof tag:
//
//	go build -tags pprof -o sprof .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default ~/.cache/sprof/pprof)
//
// # Examples
//
//	# Profile fib.sp, sampling every 200µs, and browse the result
//	sprof prof fib.sp --interval 200us -i
//
//	# Keep the samples and a pprof profile for later
//	sprof prof fib.sp --out-samples run.yaml --out-pprof run.pb.gz
//	sprof prof --from run.yaml --func fib
//
//	# Compare two expressions in nanoseconds
//	sprof bench -f fib.sp 'fib(10)' 'fastfib(10)' --unit ns
package cli
