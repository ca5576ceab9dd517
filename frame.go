package nest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"code.hybscloud.com/kont"
)

// FrameState is the lifecycle stage of a Frame.
type FrameState int32

const (
	FrameFresh FrameState = iota
	FrameRunning
	FrameTearingDown
	FrameClosed
)

func (s FrameState) String() string {
	switch s {
	case FrameFresh:
		return "fresh"
	case FrameRunning:
		return "running"
	case FrameTearingDown:
		return "tearing-down"
	case FrameClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Computation is the body of work a Frame runs. It receives the Frame's
// own context (cancelled the moment the Frame is asked to halt) and the
// Frame itself, which exposes the suspension primitives (Suspend, Sleep,
// Spawn, Ensure, Wait) and the Scope the computation may use to admit
// children.
type Computation func(ctx context.Context, fr *Frame) (any, error)

// Frame is a single node of the task tree: one running computation, its
// own cleanup stack, and (if it spawns children) its own Scope.
type Frame struct {
	id          ID
	name        string
	parentScope *Scope // the Scope this Frame is a child of; nil only for a synthetic root
	ownScope    *Scope // the Scope containing this Frame's own children

	ctx    context.Context
	cancel context.CancelCauseFunc

	haltRequested atomic.Bool
	parked        atomic.Bool

	state atomic.Int32

	cleanupMu sync.Mutex
	cleanups  []func(ctx context.Context) error

	doneCh  chan struct{}
	outcome Outcome

	cfg *config
}

func newFrame(parentScope *Scope, name string, cfg *config) *Frame {
	ctx, cancel := context.WithCancelCause(context.Background())
	fr := &Frame{
		id:          newID(),
		name:        name,
		parentScope: parentScope,
		ctx:         ctx,
		cancel:      cancel,
		doneCh:      make(chan struct{}),
		cfg:         cfg,
	}
	fr.ownScope = newScope(fr, cfg)
	return fr
}

// ID returns the Frame's identity.
func (fr *Frame) ID() ID { return fr.id }

// Name returns the name the Frame was admitted with.
func (fr *Frame) Name() string { return fr.name }

// State returns the Frame's current lifecycle stage.
func (fr *Frame) State() FrameState { return FrameState(fr.state.Load()) }

// Context returns the Frame's own context. It is cancelled the moment the
// Frame is halted, either directly or because an ancestor scope is
// tearing down.
func (fr *Frame) Context() context.Context { return fr.ctx }

// Scope returns the Scope this Frame owns for its own children.
func (fr *Frame) Scope() *Scope { return fr.ownScope }

// Done returns a channel closed once the Frame's Outcome is settled and
// every cleanup has run.
func (fr *Frame) Done() <-chan struct{} { return fr.doneCh }

// Outcome returns the Frame's terminal state. Valid only after Done() is
// closed; it returns the zero Outcome (which reads as Returned(nil))
// beforehand.
func (fr *Frame) Outcome() Outcome { return fr.outcome }

// Ensure registers a cleanup to run during this Frame's teardown, after
// its own Scope has finished closing every child. Cleanups run in
// reverse registration order; every one runs even if an earlier one in
// the same batch returns an error. A cleanup error always surfaces: it
// overrides a successful or halted outcome, and is attached as suppressed
// to an existing error outcome.
func (fr *Frame) Ensure(cleanup func(ctx context.Context) error) {
	fr.cleanupMu.Lock()
	defer fr.cleanupMu.Unlock()
	fr.cleanups = append(fr.cleanups, cleanup)
}

// requestHalt cancels the Frame's context exactly once. It is always
// safe to call on an already-halted or already-closed Frame.
func (fr *Frame) requestHalt() {
	if fr.haltRequested.CompareAndSwap(false, true) {
		fr.cancel(errHalted)
	}
}

// Halted reports whether this Frame has been asked to halt, regardless of
// whether it has finished tearing down yet.
func (fr *Frame) Halted() bool { return fr.haltRequested.Load() }

func (fr *Frame) setParked(v bool) { fr.parked.Store(v) }

// Parked reports whether the Frame is currently suspended on a primitive
// such as Suspend, Sleep, or Wait.
func (fr *Frame) Parked() bool { return fr.parked.Load() }

// run executes comp to completion, tears down this Frame's own Scope,
// reconciles the final Outcome, drains cleanups, and notifies the
// parent Scope. It must be called exactly once, from its own goroutine.
func (fr *Frame) run(comp Computation) {
	fr.state.Store(int32(FrameRunning))
	if fr.cfg != nil && fr.cfg.onFrameStart != nil {
		fr.cfg.onFrameStart(fr)
	}

	val, err := fr.safeExec(comp)

	fr.ownScope.closeAndAwait()
	final := fr.reconcileOutcome(val, err)
	fr.teardown(final)
}

func (fr *Frame) safeExec(comp Computation) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	return comp(fr.ctx, fr)
}

func (fr *Frame) reconcileOutcome(val any, err error) Outcome {
	var own Outcome
	switch {
	case fr.haltRequested.Load() && (err == nil || errors.Is(err, context.Canceled) || errors.Is(err, errHalted)):
		own = Halted
	case err != nil:
		own = Errored(err)
	default:
		own = Returned(val)
	}

	if childErr := fr.ownScope.firstRecordedError(); childErr != nil {
		if own.IsErrored() {
			return Errored(attachSuppressed(own.Err(), childErr))
		}
		return Errored(childErr)
	}
	return own
}

func (fr *Frame) teardown(final Outcome) {
	fr.state.Store(int32(FrameTearingDown))

	if cleanupErr := fr.drainCleanups(); cleanupErr != nil {
		ce := &CleanupError{Frame: fr.id, Err: cleanupErr}
		switch {
		case final.IsErrored():
			final = Errored(attachSuppressed(final.Err(), ce))
		default:
			final = Errored(ce)
		}
	}

	fr.outcome = final
	fr.state.Store(int32(FrameClosed))
	if fr.cfg != nil && fr.cfg.onFrameDone != nil {
		fr.cfg.onFrameDone(fr, final)
	}
	close(fr.doneCh)

	if fr.parentScope != nil {
		fr.parentScope.onChildDone(fr, final)
	}
}

// drainCleanups runs every registered cleanup in reverse order using a
// kont continuation chain: Bind sequences each cleanup after the previous
// one regardless of whether it errored, and Run drives the chain to
// completion. Errors from individual cleanups are collected and folded
// into a single SuppressedError chain (first one wins).
func (fr *Frame) drainCleanups() error {
	fr.cleanupMu.Lock()
	stack := fr.cleanups
	fr.cleanups = nil
	fr.cleanupMu.Unlock()

	if len(stack) == 0 {
		return nil
	}

	var errs error
	chain := kont.Return[struct{}, struct{}](struct{}{})
	for i := len(stack) - 1; i >= 0; i-- {
		thunk := stack[i]
		prev := chain
		chain = kont.Bind(prev, func(_ struct{}) kont.Cont[struct{}, struct{}] {
			if err := thunk(fr.ctx); err != nil {
				errs = attachSuppressed(errs, err)
			}
			return kont.Return[struct{}, struct{}](struct{}{})
		})
	}
	kont.Run(chain)
	return errs
}
