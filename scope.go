package nest

import (
	"sync"
	"sync/atomic"
)

type scopeState int32

const (
	scopeOpen scopeState = iota
	scopeClosing
	scopeClosed
)

func (s scopeState) String() string {
	switch s {
	case scopeOpen:
		return "open"
	case scopeClosing:
		return "closing"
	default:
		return "closed"
	}
}

// Scope owns a set of child Frames and enforces that none of them outlives
// it. A Scope is driven by exactly one Frame (its "driver"); the root
// Scope created by Run/CreateScope has no driver and closes only when it
// is halted or when one of its children errors.
type Scope struct {
	id     ID
	driver *Frame // nil for a detached/root scope
	parent *Scope // nil for a detached/root scope

	state atomic.Int32

	mu       sync.Mutex
	children []*Frame

	firstErr      error
	firstErrFrame *Frame
	suppressed    []error

	localMu sync.Mutex
	local   map[any]any

	closingHooksMu sync.Mutex
	closingHooks   []func()

	closingCh chan struct{}
	closedCh  chan struct{}

	enterClosingOnce sync.Once
	teardownOnce     sync.Once

	cfg *config
	sem *Semaphore
}

func newScope(driver *Frame, cfg *config) *Scope {
	sc := &Scope{
		id:        newID(),
		driver:    driver,
		local:     make(map[any]any),
		closingCh: make(chan struct{}),
		closedCh:  make(chan struct{}),
		cfg:       cfg,
	}
	if driver != nil {
		sc.parent = driver.parentScope
	}
	if cfg != nil && cfg.limit > 0 {
		sc.sem = NewSemaphore(cfg.limit)
	}
	return sc
}

// ID returns the Scope's identity.
func (s *Scope) ID() ID { return s.id }

// Parent returns the Scope containing this Scope's driver Frame, or nil
// for a detached/root scope.
func (s *Scope) Parent() *Scope { return s.parent }

// State reports whether the Scope is still admitting children.
func (s *Scope) State() scopeState { return scopeState(s.state.Load()) }

// ActiveChildren returns the number of children admitted into the scope
// that have not yet closed.
func (s *Scope) ActiveChildren() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.children {
		if c.State() != FrameClosed {
			n++
		}
	}
	return n
}

// TotalAdmitted returns the total number of children ever admitted.
func (s *Scope) TotalAdmitted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.children)
}

// AvailableSlots returns the number of free concurrency slots under this
// scope's WithLimit, or -1 if the scope is unbounded.
func (s *Scope) AvailableSlots() int {
	if s.sem == nil {
		return -1
	}
	return s.sem.Available()
}

// Admit creates a new child Frame running comp and starts it immediately.
// It returns ErrScopeClosed if the scope is no longer open.
func (s *Scope) Admit(name string, comp Computation) (*Frame, error) {
	if s.State() != scopeOpen {
		return nil, ErrScopeClosed
	}

	fr := newFrame(s, name, s.cfg)

	s.mu.Lock()
	if scopeState(s.state.Load()) != scopeOpen {
		s.mu.Unlock()
		return nil, ErrScopeClosed
	}
	s.children = append(s.children, fr)
	s.mu.Unlock()

	go func() {
		if s.sem != nil {
			if err := s.sem.Acquire(fr.ctx); err == nil {
				defer s.sem.Release()
			}
			// Halted while still queued for a slot: Acquire returns early and
			// comp still runs, so it observes the already-cancelled context
			// and any Ensure/defer bookkeeping it performs still executes.
		}
		fr.run(comp)
	}()

	return fr, nil
}

// onChildDone is invoked by a child Frame once its own Outcome and
// cleanups have settled. An errored child records the error (first one
// wins, later ones are suppressed) and begins closing the scope
// asynchronously, halting every remaining sibling in reverse admission
// order.
func (s *Scope) onChildDone(fr *Frame, outcome Outcome) {
	if outcome.IsErrored() {
		s.recordError(fr, &FrameError{Frame: fr.id, Name: fr.name, Err: outcome.Err()})
	}
}

func (s *Scope) recordError(fr *Frame, err error) {
	s.mu.Lock()
	if s.firstErr == nil {
		s.firstErr = err
		s.firstErrFrame = fr
		s.mu.Unlock()
		go s.closeAndAwait()
		return
	}
	s.suppressed = append(s.suppressed, err)
	s.mu.Unlock()
}

// firstRecordedError returns the first child error recorded against this
// scope, combined with any later ones as suppressed causes.
func (s *Scope) firstRecordedError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.firstErr == nil {
		return nil
	}
	err := s.firstErr
	for _, e := range s.suppressed {
		err = attachSuppressed(err, e)
	}
	return err
}

// onEnterClosing registers a hook fired exactly once, the moment the
// scope transitions from open to closing — before any child has
// necessarily finished halting. AbortSignal uses this to fire as soon as
// teardown begins rather than waiting for it to complete.
func (s *Scope) onEnterClosing(hook func()) {
	s.closingHooksMu.Lock()
	if scopeState(s.state.Load()) != scopeOpen {
		s.closingHooksMu.Unlock()
		hook()
		return
	}
	s.closingHooks = append(s.closingHooks, hook)
	s.closingHooksMu.Unlock()
}

func (s *Scope) enterClosing() {
	s.enterClosingOnce.Do(func() {
		s.state.Store(int32(scopeClosing))
		s.closingHooksMu.Lock()
		hooks := s.closingHooks
		s.closingHooks = nil
		s.closingHooksMu.Unlock()
		for _, h := range hooks {
			h()
		}
		close(s.closingCh)
	})
}

// ClosingSignal returns a channel closed the moment this scope begins
// tearing down, whether because its driver terminated, a child errored,
// or an ancestor halted it. Suspend/Sleep/Wait select on it so a Frame
// parked on its own scope still wakes promptly when a sibling's failure
// starts the teardown.
func (s *Scope) ClosingSignal() <-chan struct{} { return s.closingCh }

// Closed returns a channel closed once every child has fully torn down.
func (s *Scope) Closed() <-chan struct{} { return s.closedCh }

// closeAndAwait transitions the scope to closing (if not already) and
// halts every current child in strict reverse admission order, waiting
// for each to fully close (including its own subtree) before halting the
// next. It is idempotent and safe to call from multiple goroutines
// concurrently; only the first caller does the work, the rest block
// until it completes.
func (s *Scope) closeAndAwait() {
	s.enterClosing()
	s.teardownOnce.Do(func() {
		s.mu.Lock()
		snapshot := append([]*Frame(nil), s.children...)
		s.mu.Unlock()

		for i := len(snapshot) - 1; i >= 0; i-- {
			child := snapshot[i]
			child.requestHalt()
			<-child.doneCh
		}

		s.state.Store(int32(scopeClosed))
		close(s.closedCh)
	})
}

// Halt requests that the scope tear down: every child is halted in
// reverse admission order and awaited before Halt returns. Halt is safe
// to call more than once and from any goroutine.
func (s *Scope) Halt() {
	s.closeAndAwait()
}

// LocalGet walks this scope and its ancestors, returning the first
// binding found for key.
func (s *Scope) LocalGet(key any) (any, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		sc.localMu.Lock()
		v, ok := sc.local[key]
		sc.localMu.Unlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// LocalSet binds key to value in this scope only; it does not affect
// ancestors or descendants.
func (s *Scope) LocalSet(key, value any) {
	s.localMu.Lock()
	defer s.localMu.Unlock()
	s.local[key] = value
}
