// Package wire provides the raw, context-aware channel plumbing that the
// Channel/Subscription/Stream primitives are built on.
//
// Go channels have sharp edges: sends to closed channels panic, blocked
// sends leak goroutines, and combining channels with context cancellation
// requires careful select statements. wire supplies building blocks that
// handle these concerns so the higher-level primitives don't have to:
//
//   - [Send] and [Recv]: context-aware send and receive that unblock on
//     cancellation instead of leaking goroutines.
//   - [SendBatch] and [RecvBatch]: send or receive multiple values in one
//     call, stopping early on cancellation or channel close.
//   - [Merge]: fan-in used by MergeStreams to combine several streams.
//   - [FanOut]: distributes values from one channel across N workers.
//   - [Tee] and [Broadcast]: used by TeeStream and BroadcastStream to
//     replicate a stream.
//   - [Zip]: used by ZipStreams to pair values from two streams.
//   - [Map] and [Filter]: transforms through a function or predicate.
//   - [Throttle] and [Debounce]: rate- and quiet-period-based shaping.
//   - [Buffer] and [Window]: batches items by size, timeout, or time window.
//   - [First]: used by RaceFirst to take the first value across streams.
//   - [OrDone]: wraps a channel to respect context cancellation.
//   - [Drain]: discards remaining values to unblock producers during teardown.
//   - [Partition]: splits one channel into a matching and non-matching pair.
//
// Every function that spawns a goroutine ties it to a [context.Context], so
// it terminates when that context is canceled rather than leaking.
//
// These are deliberately low-level: nest itself exercises every one of them
// through the Stream-level wrappers in stream_ops.go (MapStream,
// FilterStream, ThrottleStream, DebounceStream, BatchStream, WindowStream,
// PartitionStream, TeeStream, FanOutStream, TakeN) and through
// WorkerPool.SubmitBatch, rather than leaving any as an unused low-level
// toolkit.
package wire
