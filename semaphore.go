package nest

import (
	"context"
	"sync/atomic"
)

// Semaphore is a counting, context-aware semaphore: each Acquire takes
// exactly one slot and each Release frees one. Acquire unblocks
// early if its context is cancelled, which is what lets Scope.Admit stop
// waiting for a concurrency slot the instant the queued Frame is halted.
type Semaphore struct {
	ch       chan struct{}
	cap      int
	acquired atomic.Int64
}

// NewSemaphore creates a semaphore with the given capacity. It panics if
// n <= 0.
func NewSemaphore(n int) *Semaphore {
	if n <= 0 {
		panic("nest: NewSemaphore requires n > 0")
	}
	return &Semaphore{ch: make(chan struct{}, n), cap: n}
}

// Acquire blocks until a slot is available or ctx is done, whichever
// comes first, returning context.Cause(ctx) on the latter.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.ch <- struct{}{}:
		s.acquired.Add(1)
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// TryAcquire attempts to acquire a slot without blocking.
func (s *Semaphore) TryAcquire() bool {
	select {
	case s.ch <- struct{}{}:
		s.acquired.Add(1)
		return true
	default:
		return false
	}
}

// Release releases a slot. It panics if more slots are released than
// were ever acquired.
func (s *Semaphore) Release() {
	if s.acquired.Add(-1) < 0 {
		s.acquired.Add(1)
		panic("nest: Semaphore.Release called without matching Acquire")
	}
	<-s.ch
}

// Available returns the number of free slots. The value may be stale
// the instant it is read under concurrent use.
func (s *Semaphore) Available() int {
	return s.cap - len(s.ch)
}
