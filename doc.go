// Package nest is a structured concurrency runtime for Go.
//
// A computation runs inside a Frame. A Frame that spawns children owns a
// Scope, and no child ever outlives the Scope that admitted it: when a
// Frame's own computation returns, errors, or is halted, its Scope tears
// down every remaining child in strict reverse admission order before the
// Frame itself is considered closed. An error from any child halts its
// siblings and is surfaced as the Scope owner's outcome; a panic is
// captured as a *PanicError and handled the same way.
//
// # Running a computation
//
// [Run] builds a root Scope and Frame around a computation and returns a
// [Task] handle:
//
//	t := nest.Run(ctx, func(ctx context.Context, fr *nest.Frame) (any, error) {
//	    nest.Spawn(fr, "fetch-users", fetchUsers)
//	    nest.Spawn(fr, "fetch-orders", fetchOrders)
//	    return nil, nil
//	})
//	outcome := t.Join()
//
// [Main] wraps Run with SIGINT/SIGTERM handling suitable for a process
// entry point. [CreateScope] returns a detached [Scope] for hosts that
// drive several independent root Frames (e.g. one per inbound request)
// against a single lifetime.
//
// # Primitives
//
// [Spawn] admits a child Frame. [Sleep] and [Suspend] park the calling
// Frame. [Ensure] registers a cleanup that always runs, in reverse
// registration order, during teardown. [Race] runs several computations
// and keeps the first to settle, halting the rest. [Resource]/[Provide]
// acquire a value and guarantee its release no later than the scope that
// requested it tears down.
//
// # Signals, channels, streams
//
// [Signal] and [Channel] are multi-subscriber broadcast points; a
// [Subscription] is the single-consumer handle a subscriber pulls from.
// [Stream] composes a stateless recipe for producing a fresh Subscription,
// and [Each] walks one with backpressure, exposing the final value
// separately from the iterated elements. [UseAbortSignal] and
// [BridgeAbortSignal] connect a Scope's lifetime to host AbortSignal-style
// APIs (an incoming http.Request, a browser-style event target, a test
// harness).
//
// # Realization note
//
// Rather than a single cooperative scheduler stepping one Frame at a
// time, each Frame runs on its own goroutine and synchronizes through
// context cancellation, channels, and mutexes. Exactly one goroutine is
// ever doing meaningful work against a given Frame's state; the rest are
// parked in a select. This keeps the implementation within reach of the
// standard library's concurrency primitives while preserving the
// ordering and propagation guarantees a true single-threaded stepper
// would give. See DESIGN.md for the full reasoning and the libraries
// each component is grounded on.
package nest
