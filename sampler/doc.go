// Package sampler periodically captures the call stack of a running target.
//
// A [Session] owns one sampling run. [Session.Start] launches a ticker
// goroutine that, on every tick, asks the target's [stack.Source] for a
// snapshot of its stack. The source pauses the target only for the copy, so
// the critical section is bounded by the stack depth. Frames are stored raw;
// symbol resolution is left to the aggregate package.
//
// [Session.Stop] halts the ticker, waits for the goroutine to exit, and hands
// the collected samples to the caller in chronological order. After Stop the
// session holds no buffers or goroutines and every further call to Stop
// returns [pkg.ErrAlreadyStopped].
//
//	s := sampler.New(runtime)
//	samples, err := s.Profile(ctx, time.Millisecond, func(ctx context.Context) error {
//		_, err := runtime.Call(ctx, "main")
//		return err
//	})
package sampler
