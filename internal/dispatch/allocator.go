package dispatch

import "sync/atomic"

// Allocator hands out strictly increasing correlation ids. Ids are never
// reused for the lifetime of the allocator, reconnects included.
type Allocator struct {
	last atomic.Uint64
}

// NewAllocator returns an allocator whose first id is first (minimum 1).
func NewAllocator(first uint64) *Allocator {
	a := &Allocator{}
	if first > 1 {
		a.last.Store(first - 1)
	}
	return a
}

// Next returns the next id.
func (a *Allocator) Next() uint64 {
	return a.last.Add(1)
}

// Seed raises the allocator so the next id is at least next. Lower values are ignored.
func (a *Allocator) Seed(next uint64) {
	if next == 0 {
		return
	}
	for {
		last := a.last.Load()
		if last >= next-1 {
			return
		}
		if a.last.CompareAndSwap(last, next-1) {
			return
		}
	}
}

// Peek returns the id the next call to Next will return.
func (a *Allocator) Peek() uint64 {
	return a.last.Load() + 1
}
