package nest

import "context"

// Stream is a stateless recipe for producing values: each call to Open
// yields a fresh Subscription, and consumers of different Subscriptions
// share no state or buffering with each other.
type Stream[T any] struct {
	open func() *Subscription[T]
}

// NewStream builds a Stream from an open function. Most callers use one
// of the constructors below instead of calling this directly.
func NewStream[T any](open func() *Subscription[T]) *Stream[T] {
	return &Stream[T]{open: open}
}

// Open produces a fresh Subscription over the stream's recipe.
func (s *Stream[T]) Open() *Subscription[T] { return s.open() }

// FromChannel adapts a Channel into a Stream: each Open call attaches a
// new Subscription to ch, exactly like calling ch.Subscribe directly.
func FromChannel[T any](ch *Channel[T]) *Stream[T] {
	return NewStream(ch.Subscribe)
}

// FromSlice builds a Stream that replays items, one per Next call, and
// terminates with the zero value of T.
func FromSlice[T any](fr *Frame, items []T) *Stream[T] {
	return NewStream(func() *Subscription[T] {
		sub := newSubscription[T]()
		if _, err := Spawn(fr, "stream-from-slice", func(ctx context.Context, _ *Frame) (any, error) {
			for _, item := range items {
				sub.push(item)
			}
			var zero T
			sub.closeWith(zero)
			return nil, nil
		}); err != nil {
			var zero T
			sub.closeWith(zero)
		}
		return sub
	})
}

// FromFunc builds a Stream whose values come from repeatedly calling
// next until it reports done == true; that final value becomes the
// Subscription's terminal value and is not delivered as a plain item.
func FromFunc[T any](fr *Frame, next func(ctx context.Context) (T, bool, error)) *Stream[T] {
	return NewStream(func() *Subscription[T] {
		sub := newSubscription[T]()
		if _, err := Spawn(fr, "stream-from-func", func(ctx context.Context, _ *Frame) (any, error) {
			for {
				if ctx.Err() != nil {
					var zero T
					sub.closeWith(zero)
					return nil, context.Cause(ctx)
				}
				v, done, err := next(ctx)
				if err != nil {
					var zero T
					sub.closeWith(zero)
					return nil, err
				}
				if done {
					sub.closeWith(v)
					return nil, nil
				}
				sub.push(v)
			}
		}); err != nil {
			var zero T
			sub.closeWith(zero)
		}
		return sub
	})
}

// Each drives sub to completion, calling fn once for every non-terminal
// value it yields, in order, enforcing the one-Next-at-a-time
// back-pressure a Subscription requires. It returns the terminal value
// exposed by the final Next call — never passed to fn — or the first
// error raised by either Next or fn.
func Each[T any](fr *Frame, sub *Subscription[T], fn func(ctx context.Context, v T) error) (T, error) {
	var zero T
	for {
		v, done, err := sub.Next(fr)
		if err != nil {
			return zero, err
		}
		if done {
			return v, nil
		}
		if err := fn(fr.Context(), v); err != nil {
			return zero, err
		}
	}
}

// Collect drains sub fully into a slice, discarding the terminal value
// and returning it separately alongside any error.
func Collect[T any](fr *Frame, sub *Subscription[T]) ([]T, T, error) {
	var items []T
	terminal, err := Each(fr, sub, func(ctx context.Context, v T) error {
		items = append(items, v)
		return nil
	})
	return items, terminal, err
}
