package nest

import "context"

// Resource describes an acquire/release pair: Acquire produces a value,
// Release is guaranteed to run exactly once, no later than the teardown
// of the Scope that requested it — even if the caller never explicitly
// releases it, even if the caller's Frame errors or is halted first.
//
// This is deliberately not built on kont's Bracket: Bracket releases the
// instant the `use` callback returns, which does not match a scope-scoped
// resource whose lifetime is the surrounding Scope rather than a single
// call. Provide registers the release as an Ensure cleanup instead, so it
// runs during the Scope's own reverse-order teardown alongside every
// other cleanup registered in that Frame.
type Resource[T any] struct {
	Acquire func(ctx context.Context) (T, error)
	Release func(ctx context.Context, v T) error
}

// Provide acquires a resource in the calling Frame and registers its
// release as a cleanup of that same Frame. It returns the acquired value;
// if Acquire fails, Provide returns the zero value and that error without
// registering any cleanup (there is nothing to release).
//
// The resource is released in reverse order relative to every other
// Ensure call the Frame makes, so resources acquired later are released
// first — the usual nesting discipline for acquire-then-use-then-release.
func Provide[T any](fr *Frame, r Resource[T]) (T, error) {
	v, err := r.Acquire(fr.ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	fr.Ensure(func(ctx context.Context) error {
		return r.Release(ctx, v)
	})
	return v, nil
}

// ProvideIn is like Provide but releases the resource when the given
// Scope tears down rather than when the calling Frame does — useful when
// a resource must outlive the Frame that acquired it but still be bound
// to an ancestor's lifetime (for example, a connection pool acquired by
// a setup Frame but used by its siblings).
func ProvideIn[T any](ctx context.Context, sc *Scope, r Resource[T]) (T, error) {
	v, err := r.Acquire(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	sc.onEnterClosing(func() {
		_ = r.Release(context.Background(), v)
	})
	return v, nil
}
