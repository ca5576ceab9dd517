package nest

import (
	"context"
	"time"

	"github.com/kairoslab/nest/wire"
)

// subscriptionToChan pumps sub's non-terminal values onto a raw channel
// on a Frame of its own, closing the channel once sub reaches its
// terminal value or errors. It is the bridge that lets the wire package's
// raw-channel combinators (Merge, Tee, Zip, First) operate over streams.
func subscriptionToChan[T any](fr *Frame, sub *Subscription[T]) <-chan T {
	out := make(chan T)
	_, _ = Spawn(fr, "subscription-pump", func(ctx context.Context, pfr *Frame) (any, error) {
		defer close(out)
		for {
			v, done, err := sub.Next(pfr)
			if err != nil || done {
				return nil, err
			}
			select {
			case out <- v:
			case <-ctx.Done():
				return nil, nil
			}
		}
	})
	return out
}

// chanToStream wraps a raw channel as a single-shot Stream: Open may be
// called only once, since the backing channel has exactly one consumer.
// terminal is the value every Subscription reports once ch closes.
//
// Reading through wire.OrDone means a single loop covers both ways this
// ends: ch closing on its own, or fr's context being cancelled out from
// under it.
func chanToStream[T any](fr *Frame, ch <-chan T, terminal T) *Stream[T] {
	return NewStream(func() *Subscription[T] {
		sub := newSubscription[T]()
		_, _ = Spawn(fr, "stream-from-chan", func(ctx context.Context, _ *Frame) (any, error) {
			for v := range wire.OrDone(ctx, ch) {
				sub.push(v)
			}
			sub.closeWith(terminal)
			return nil, nil
		})
		return sub
	})
}

// MergeStreams fans multiple streams into one: each Open pumps every
// input stream's own Subscription onto a raw channel and combines them
// with wire.Merge, so values interleave in whatever order they arrive.
// The merged stream's terminal value is always the zero value of T,
// since no single input's terminal is privileged.
func MergeStreams[T any](fr *Frame, streams ...*Stream[T]) *Stream[T] {
	return NewStream(func() *Subscription[T] {
		chans := make([]<-chan T, len(streams))
		for i, s := range streams {
			chans[i] = subscriptionToChan(fr, s.Open())
		}
		merged := wire.Merge(fr.Context(), chans...)
		var zero T
		return chanToStream(fr, merged, zero).Open()
	})
}

// ZipStreams pairs items from two streams element-by-element using
// wire.Zip, stopping as soon as either side is exhausted. The zipped
// stream's terminal value is always the zero Pair.
func ZipStreams[A, B any](fr *Frame, a *Stream[A], b *Stream[B]) *Stream[wire.Pair[A, B]] {
	return NewStream(func() *Subscription[wire.Pair[A, B]] {
		chA := subscriptionToChan(fr, a.Open())
		chB := subscriptionToChan(fr, b.Open())
		zipped := wire.Zip(fr.Context(), chA, chB)
		var zero wire.Pair[A, B]
		return chanToStream(fr, zipped, zero).Open()
	})
}

// RaceFirst opens every stream and returns the first value any of them
// produces, via wire.First. Once a winner (or cancellation) settles the
// race, every losing subscription-pump channel is drained in the
// background with wire.Drain so those pumps don't sit blocked on a send
// nobody will ever read; RaceFirst itself does not wait for that drain
// to finish.
func RaceFirst[T any](fr *Frame, streams ...*Stream[T]) (T, error) {
	chans := make([]<-chan T, len(streams))
	for i, s := range streams {
		chans[i] = subscriptionToChan(fr, s.Open())
	}
	first := wire.First(fr.Context(), chans...)

	drainAll := func() {
		for _, ch := range chans {
			go wire.Drain(ch)
		}
	}

	select {
	case v, ok := <-first:
		drainAll()
		if !ok {
			var zero T
			return zero, context.Cause(fr.Context())
		}
		return v, nil
	case <-fr.Context().Done():
		drainAll()
		var zero T
		return zero, context.Cause(fr.Context())
	}
}

// BroadcastStream splits one stream into n independent streams using
// wire.Broadcast, each buffered bufSize deep so one slow consumer does
// not stall the others (up to that buffer's depth).
func BroadcastStream[T any](fr *Frame, s *Stream[T], n int, bufSize int) []*Stream[T] {
	src := subscriptionToChan(fr, s.Open())
	outs := wire.Broadcast(fr.Context(), src, n, bufSize)
	var zero T
	streams := make([]*Stream[T], n)
	for i, ch := range outs {
		streams[i] = chanToStream(fr, ch, zero)
	}
	return streams
}

// MapStream applies fn to every value of s, via wire.Map.
func MapStream[T, U any](fr *Frame, s *Stream[T], fn func(T) U) *Stream[U] {
	src := subscriptionToChan(fr, s.Open())
	mapped := wire.Map(fr.Context(), src, fn)
	var zero U
	return chanToStream(fr, mapped, zero)
}

// FilterStream keeps only the values of s for which fn returns true,
// via wire.Filter.
func FilterStream[T any](fr *Frame, s *Stream[T], fn func(T) bool) *Stream[T] {
	src := subscriptionToChan(fr, s.Open())
	filtered := wire.Filter(fr.Context(), src, fn)
	var zero T
	return chanToStream(fr, filtered, zero)
}

// ThrottleStream rate-limits s to at most n values per d, via
// wire.Throttle's token-bucket.
func ThrottleStream[T any](fr *Frame, s *Stream[T], n int, d time.Duration) *Stream[T] {
	src := subscriptionToChan(fr, s.Open())
	throttled := wire.Throttle(fr.Context(), src, n, d)
	var zero T
	return chanToStream(fr, throttled, zero)
}

// DebounceStream emits only the last value of s seen within each quiet
// period of d, via wire.Debounce. Useful for collapsing a burst of
// rapid updates (config reloads, UI input) down to the settled value.
func DebounceStream[T any](fr *Frame, s *Stream[T], d time.Duration) *Stream[T] {
	src := subscriptionToChan(fr, s.Open())
	debounced := wire.Debounce(fr.Context(), src, d)
	var zero T
	return chanToStream(fr, debounced, zero)
}

// BatchStream groups s's values into slices, via wire.Buffer: a batch is
// flushed once it holds size items or timeout elapses since the batch's
// first item, whichever comes first.
func BatchStream[T any](fr *Frame, s *Stream[T], size int, timeout time.Duration) *Stream[[]T] {
	src := subscriptionToChan(fr, s.Open())
	batched := wire.Buffer(fr.Context(), src, size, timeout)
	return chanToStream[[]T](fr, batched, nil)
}

// BatchStreamWithReason works like BatchStream but each emitted batch is
// tagged with the wire.FlushReason that produced it, via
// wire.BufferWithReason — useful when a caller needs to tell a
// size-triggered flush apart from a timeout- or close-triggered one.
func BatchStreamWithReason[T any](fr *Frame, s *Stream[T], size int, timeout time.Duration) *Stream[wire.BatchResult[T]] {
	src := subscriptionToChan(fr, s.Open())
	batched := wire.BufferWithReason(fr.Context(), src, size, timeout)
	return chanToStream(fr, batched, wire.BatchResult[T]{Reason: wire.FlushClose})
}

// WindowStream groups s's values into time-based batches, via wire.Window.
// Tumbling windows emit non-overlapping batches every d; sliding windows
// emit, every d, a batch of everything received in the trailing d.
func WindowStream[T any](fr *Frame, s *Stream[T], d time.Duration, mode wire.WindowMode) *Stream[[]T] {
	src := subscriptionToChan(fr, s.Open())
	windowed := wire.Window(fr.Context(), src, d, mode)
	return chanToStream[[]T](fr, windowed, nil)
}

// PartitionStream splits s into two streams by fn: values for which fn
// returns true flow into match, the rest into rest, via wire.Partition.
// Both returned streams must be drained concurrently or the shared
// dispatcher blocks, exactly as wire.Partition documents.
func PartitionStream[T any](fr *Frame, s *Stream[T], fn func(T) bool) (match, rest *Stream[T]) {
	src := subscriptionToChan(fr, s.Open())
	matchCh, restCh := wire.Partition(fr.Context(), src, fn)
	var zero T
	return chanToStream(fr, matchCh, zero), chanToStream(fr, restCh, zero)
}

// TeeStream broadcasts every value of s to n independent streams, via
// wire.Tee. Unlike BroadcastStream, the outputs are unbuffered: a slow
// consumer stalls every other branch until it catches up.
func TeeStream[T any](fr *Frame, s *Stream[T], n int) []*Stream[T] {
	src := subscriptionToChan(fr, s.Open())
	outs := wire.Tee(fr.Context(), src, n)
	var zero T
	streams := make([]*Stream[T], n)
	for i, ch := range outs {
		streams[i] = chanToStream(fr, ch, zero)
	}
	return streams
}

// FanOutStream distributes s's values round-robin across n streams, via
// wire.FanOut. Use this to spread work across a fixed worker set, where
// TeeStream or BroadcastStream would instead duplicate every value.
func FanOutStream[T any](fr *Frame, s *Stream[T], n int) []*Stream[T] {
	src := subscriptionToChan(fr, s.Open())
	outs := wire.FanOut(fr.Context(), src, n)
	var zero T
	streams := make([]*Stream[T], n)
	for i, ch := range outs {
		streams[i] = chanToStream(fr, ch, zero)
	}
	return streams
}

// TakeN pulls exactly n values from s, via wire.RecvBatch, returning
// fewer if s ends first. It blocks until n values have arrived, s's
// subscription closes, or fr's context is cancelled.
func TakeN[T any](fr *Frame, s *Stream[T], n int) ([]T, error) {
	src := subscriptionToChan(fr, s.Open())
	return wire.RecvBatch(fr.Context(), src, n)
}
