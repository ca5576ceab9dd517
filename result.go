package nest

import "context"

// Result is the typed handle returned by SpawnTyped: a thin wrapper over
// the underlying Frame that lets the caller retrieve a concrete T instead
// of unpacking Outcome.Value() by hand.
type Result[T any] struct {
	fr *Frame
}

// SpawnTyped spawns a named child Frame running fn and wraps it in a
// Result[T], so callers working with a single concrete return type don't
// have to type-assert Outcome.Value() themselves. The child is admitted
// into fr's own Scope exactly like Spawn.
func SpawnTyped[T any](fr *Frame, name string, work func(ctx context.Context) (T, error)) (*Result[T], error) {
	child, err := Spawn(fr, name, func(ctx context.Context, _ *Frame) (any, error) {
		return work(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &Result[T]{fr: child}, nil
}

// Wait blocks until the underlying Frame closes and returns its value and
// error. A Halted outcome reports the zero value and nil error: the
// caller distinguishes that case, if it matters, via r.Frame().Outcome().
func (r *Result[T]) Wait() (T, error) {
	<-r.fr.Done()
	var zero T
	outcome := r.fr.Outcome()
	if outcome.IsErrored() {
		return zero, outcome.Err()
	}
	if outcome.IsHalted() {
		return zero, nil
	}
	v, _ := outcome.Value().(T)
	return v, nil
}

// Done returns a channel closed once the underlying Frame has finished.
func (r *Result[T]) Done() <-chan struct{} { return r.fr.Done() }

// Frame returns the Frame backing this Result, for callers that need
// direct access to its Outcome, ID, or halt controls.
func (r *Result[T]) Frame() *Frame { return r.fr }
