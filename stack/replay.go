package stack

import "sync"

// Replay is a [Source] that returns a fixed sequence of stacks, one per call
// to Stack, repeating the last one once exhausted. It stands in for a live
// runtime when the sampled program must be deterministic.
type Replay struct {
	Table

	mu     sync.Mutex
	stacks [][]Frame
	hazard []Hazard
	next   int
}

// Push appends a stack to the replay sequence.
func (r *Replay) Push(h Hazard, frames ...Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stacks = append(r.stacks, frames)
	r.hazard = append(r.hazard, h)
}

// Stack implements [Source].
func (r *Replay) Stack(dst []Frame) ([]Frame, Hazard) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.stacks) == 0 {
		return dst, 0
	}

	i := min(r.next, len(r.stacks)-1)
	r.next++

	return append(dst, r.stacks[i]...), r.hazard[i]
}

// Calls returns how many times Stack has been called.
func (r *Replay) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.next
}
