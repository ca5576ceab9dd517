package nest

import (
	"context"
	"sync"
	"time"
)

// Spawn admits a named child Frame running comp into fr's own Scope. The
// child starts running immediately and fr.Scope() owns its lifetime: if
// comp errors, fr itself is woken (if parked) and, once fr's own
// computation returns, the child is awaited as part of teardown.
func Spawn(fr *Frame, name string, comp Computation) (*Frame, error) {
	return fr.ownScope.Admit(name, comp)
}

// wake is the outcome of a park: either the wait condition fired (done),
// this Frame itself was halted, or a child of fr's own scope errored
// while fr was parked.
type wake int

const (
	wakeDone wake = iota
	wakeHalted
	wakeChildErrored
)

func (fr *Frame) parkSelect(cond <-chan struct{}) wake {
	select {
	case <-cond:
		return wakeDone
	case <-fr.ctx.Done():
		return wakeHalted
	case <-fr.ownScope.ClosingSignal():
		return wakeChildErrored
	}
}

// Suspend parks the calling Frame until it is halted, either directly or
// because a child spawned from it failed. It never returns on its own;
// the only way out is cancellation, which Suspend reports as the halt
// cause so the caller's reconcileOutcome can classify it correctly.
func Suspend(fr *Frame) error {
	fr.setParked(true)
	defer fr.setParked(false)

	done := make(chan struct{}) // never fires; Suspend only wakes on halt
	switch fr.parkSelect(done) {
	case wakeChildErrored:
		return fr.ownScope.firstRecordedError()
	default:
		return context.Cause(fr.ctx)
	}
}

// Sleep parks the calling Frame for d, or until it is halted or a child
// errors, whichever comes first.
func Sleep(fr *Frame, d time.Duration) error {
	fr.setParked(true)
	defer fr.setParked(false)

	timer := time.NewTimer(d)
	defer timer.Stop()

	switch fr.parkSelect(timer.C) {
	case wakeDone:
		return nil
	case wakeChildErrored:
		return fr.ownScope.firstRecordedError()
	default:
		return context.Cause(fr.ctx)
	}
}

// Registrar installs a host callback and returns an abort thunk to cancel
// that installation. Exactly one of resume or abort ever takes effect.
type Registrar func(resume func(value any, err error)) (abort func())

// Wait installs reg and parks the calling Frame until resume is called,
// the Frame is halted, or a child errors — whichever comes first. If the
// wait is abandoned before resume fires, the registrar's abort thunk is
// invoked so the host side can release any pending registration.
func Wait(fr *Frame, reg Registrar) (any, error) {
	fr.setParked(true)
	defer fr.setParked(false)

	type result struct {
		val any
		err error
	}
	resultCh := make(chan result, 1)
	var once sync.Once
	resume := func(v any, err error) {
		once.Do(func() { resultCh <- result{v, err} })
	}
	abort := reg(resume)

	select {
	case r := <-resultCh:
		return r.val, r.err
	case <-fr.ctx.Done():
		if abort != nil {
			abort()
		}
		return nil, context.Cause(fr.ctx)
	case <-fr.ownScope.ClosingSignal():
		if abort != nil {
			abort()
		}
		return nil, fr.ownScope.firstRecordedError()
	}
}

// Join waits for target to terminate and yields its terminal outcome:
// the returned value on Returned, the error on Errored, and (zero value,
// nil) on Halted — callers that must distinguish a halt from a plain nil
// error should inspect target.Outcome() directly. Join does not itself
// halt target; it only observes.
func Join(target *Frame) (any, error) {
	<-target.Done()
	outcome := target.Outcome()
	if outcome.IsErrored() {
		return nil, outcome.Err()
	}
	if outcome.IsHalted() {
		return nil, nil
	}
	return outcome.Value(), nil
}

// Call inline-executes op with the Frame's own context, propagating its
// outcome directly. It is the synchronous counterpart to Spawn: no new
// Frame is created, so op runs on the calling goroutine.
func Call[T any](fr *Frame, op func(ctx context.Context) (T, error)) (T, error) {
	return op(fr.ctx)
}
