package stack

import "sync"

// Table is a concurrency-safe [Symbols] implementation that hands out
// sequential handles.
type Table struct {
	mu    sync.RWMutex
	funcs []FuncInfo
	index map[FuncInfo]FuncID
}

// Intern returns the handle for info, registering it on first use.
// Handles start at 1 so that the zero FuncID never names a function.
func (t *Table) Intern(info FuncInfo) FuncID {
	t.mu.RLock()
	id, ok := t.index[info]
	t.mu.RUnlock()

	if ok {
		return id
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if id, ok := t.index[info]; ok {
		return id
	}

	if t.index == nil {
		t.index = make(map[FuncInfo]FuncID)
	}

	t.funcs = append(t.funcs, info)
	id = FuncID(len(t.funcs))
	t.index[info] = id

	return id
}

// Func implements [Symbols].
func (t *Table) Func(id FuncID) (FuncInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if id == 0 || int(id) > len(t.funcs) {
		return FuncInfo{}, false
	}

	return t.funcs[id-1], true
}

// Len returns the number of registered functions.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.funcs)
}
