package nest

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrScopeClosed is returned by Scope.Admit, Spawn, and the other calls
// that admit a Frame (SpawnTyped, Race) when the target Scope is no
// longer open.
var ErrScopeClosed = errors.New("nest: scope closed")

// errHalted is the context.Cause attached to a Frame's context when it is
// asked to halt. It is never returned to user code directly; Frame
// classifies it into a Halted outcome instead.
var errHalted = errors.New("nest: halted")

// ProtocolError reports a violation of a primitive's usage contract, such
// as calling Next on a Subscription from two goroutines at once.
type ProtocolError struct {
	Op  string
	Msg string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("nest: protocol error in %s: %s", e.Op, e.Msg)
}

// PanicError wraps a recovered panic value together with the goroutine
// stack trace captured at the point of the panic. A panicking Computation
// is treated exactly like one that returned a non-nil error: it becomes
// the Errored outcome of its Frame and is subject to the same scope
// teardown and propagation rules.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("nest: panic: %v\n\n%s", e.Value, e.Stack)
}

func (e *PanicError) Unwrap() error { return nil }

func newPanicError(v any) *PanicError {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{Value: v, Stack: string(buf[:n])}
}

// FrameError wraps an error with the identity of the Frame that produced
// it, so callers can attribute a Scope's aggregated failure to the
// specific child responsible. It is the nest analogue of attributing a
// failure to a named task.
type FrameError struct {
	Frame ID
	Name  string
	Err   error
}

func (e *FrameError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("nest: frame %q failed: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("nest: frame %s failed: %v", e.Frame, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// FrameOf extracts the identity of the Frame responsible for the first
// *FrameError in err's chain.
func FrameOf(err error) (ID, string, bool) {
	var fe *FrameError
	if errors.As(err, &fe) {
		return fe.Frame, fe.Name, true
	}
	return ID{}, "", false
}

// IsFrameError reports whether err, or any error in its chain, is a
// *FrameError.
func IsFrameError(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe)
}

// CauseOf unwraps the first *FrameError in err's chain and returns its
// underlying cause. If err is not a FrameError, it is returned unchanged.
func CauseOf(err error) error {
	var fe *FrameError
	if errors.As(err, &fe) {
		return fe.Err
	}
	return err
}

// AllFrameErrors recursively collects every *FrameError from err's chain,
// including errors joined via errors.Join or attached as SuppressedError.
func AllFrameErrors(err error) []*FrameError {
	if err == nil {
		return nil
	}
	var out []*FrameError
	collectFrameErrors(err, &out)
	return out
}

func collectFrameErrors(err error, out *[]*FrameError) {
	switch e := err.(type) {
	case *FrameError:
		*out = append(*out, e)
		collectFrameErrors(e.Err, out)
	case *SuppressedError:
		collectFrameErrors(e.Err, out)
		for _, sub := range e.Suppressed {
			collectFrameErrors(sub, out)
		}
	case interface{ Unwrap() []error }:
		for _, sub := range e.Unwrap() {
			collectFrameErrors(sub, out)
		}
	case interface{ Unwrap() error }:
		collectFrameErrors(e.Unwrap(), out)
	}
}

// SuppressedError attaches one or more secondary errors to a primary
// error without altering what errors.Is/errors.As see as the cause. It
// implements the "first error wins, the rest are attached" propagation
// rule used throughout scope teardown: a second, third, ... concurrent
// failure never replaces the first, but is never silently dropped either.
type SuppressedError struct {
	Err        error
	Suppressed []error
}

func (e *SuppressedError) Error() string {
	if len(e.Suppressed) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v (+%d suppressed)", e.Err, len(e.Suppressed))
}

func (e *SuppressedError) Unwrap() error { return e.Err }

// Cause implements the same contract as errors.Unwrap but named to match
// the "suppressed exception" vocabulary familiar from other runtimes.
func (e *SuppressedError) Cause() error { return e.Err }

func attachSuppressed(primary error, extra error) error {
	if primary == nil {
		return extra
	}
	if extra == nil {
		return primary
	}
	var se *SuppressedError
	if errors.As(primary, &se) {
		return &SuppressedError{Err: se.Err, Suppressed: append(append([]error(nil), se.Suppressed...), extra)}
	}
	return &SuppressedError{Err: primary, Suppressed: []error{extra}}
}

// AllSuppressed returns the primary error and every error suppressed onto
// it, in attachment order. If err is not a *SuppressedError, it returns
// err alone.
func AllSuppressed(err error) []error {
	var se *SuppressedError
	if errors.As(err, &se) {
		out := make([]error, 0, 1+len(se.Suppressed))
		out = append(out, se.Err)
		return append(out, se.Suppressed...)
	}
	if err == nil {
		return nil
	}
	return []error{err}
}

// CleanupError reports a failure raised by an Ensure cleanup during
// teardown. A cleanup error always surfaces: it replaces a successful or
// halted outcome, and is attached as suppressed to an existing error.
type CleanupError struct {
	Frame ID
	Err   error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("nest: cleanup failed in frame %s: %v", e.Frame, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }
