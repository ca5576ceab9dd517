package nest

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// config carries the construction-time options shared by every Frame and
// Scope descended from a single Run/Main/CreateScope call. It is
// immutable once built and passed down by pointer so every Frame in a
// task tree observes the same limit and observability hooks.
type config struct {
	limit int

	metrics *metricsCounters
	onEvent func(FrameEvent)

	onFrameStart func(fr *Frame)
	onFrameDone  func(fr *Frame, outcome Outcome)
}

// Option configures a Task or detached Scope at construction time.
type Option func(*config)

// WithLimit sets the maximum number of Frames that may run concurrently
// within any single Scope descended from this call. A Frame queued past
// the limit still starts — and observes an already-cancelled context —
// if it is halted before a slot frees up.
//
// A limit of zero (the default) means unlimited concurrency. WithLimit
// panics if n is negative.
func WithLimit(n int) Option {
	if n < 0 {
		panic("nest: limit must be non-negative")
	}
	return func(c *config) { c.limit = n }
}

// WithOnEvent registers fn to be called once when a Frame starts and
// exactly once when it closes, reporting its final FrameEventKind. fn
// must not block: it runs synchronously on the Frame's own goroutine, so
// a slow hook delays that Frame's teardown and anything awaiting it.
func WithOnEvent(fn func(FrameEvent)) Option {
	return func(c *config) { c.onEvent = fn }
}

// WithPrometheus registers a family of nest_frames_* counters and a
// nest_frames_active gauge with reg, kept in lockstep with every Frame's
// lifecycle alongside the plain Metrics snapshot available from Task.
// It returns an error if registration fails, for example because reg
// already has a collector under one of those names.
func WithPrometheus(reg prometheus.Registerer) (Option, error) {
	mc := newMetricsCounters()
	if err := mc.registerPrometheus(reg); err != nil {
		return nil, err
	}
	return func(c *config) { c.metrics = mc }, nil
}

func newConfig(opts ...Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = newMetricsCounters()
	}

	c.onFrameStart = func(fr *Frame) {
		c.metrics.onStart()
		if c.onEvent != nil {
			c.onEvent(FrameEvent{Frame: fr.id, Name: fr.name, Kind: EventStarted})
		}
	}
	c.onFrameDone = func(fr *Frame, outcome Outcome) {
		c.metrics.onDone(outcome)
		if c.onEvent == nil {
			return
		}
		kind := EventReturned
		switch {
		case outcome.IsHalted():
			kind = EventHalted
		case outcome.IsErrored():
			kind = EventErrored
			var pe *PanicError
			if errors.As(outcome.Err(), &pe) {
				kind = EventPanicked
			}
		}
		c.onEvent(FrameEvent{Frame: fr.id, Name: fr.name, Kind: kind, Err: outcome.Err()})
	}
	return c
}
