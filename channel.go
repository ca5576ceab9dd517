package nest

import "sync"

// subEvent is one FIFO element of a Subscription's buffer: either a
// plain value (done == false) or the terminal value (done == true),
// after which every further Next call yields the same terminal event.
type subEvent[T any] struct {
	done  bool
	value T
}

// Subscription is a stateful FIFO reader over a Channel's broadcast: at
// most one Next call may be outstanding on a given Subscription at a
// time. Values sent to the owning Channel before this Subscription
// existed are never delivered to it.
type Subscription[T any] struct {
	mu       sync.Mutex
	buf      []subEvent[T]
	closed   bool
	terminal subEvent[T]

	waiter func(v any, err error)
}

func newSubscription[T any]() *Subscription[T] {
	return &Subscription[T]{}
}

func (s *Subscription[T]) push(v T) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.waiter != nil {
		w := s.waiter
		s.waiter = nil
		s.mu.Unlock()
		w(subEvent[T]{value: v}, nil)
		return
	}
	s.buf = append(s.buf, subEvent[T]{value: v})
	s.mu.Unlock()
}

func (s *Subscription[T]) closeWith(v T) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.terminal = subEvent[T]{done: true, value: v}
	if s.waiter != nil && len(s.buf) == 0 {
		w := s.waiter
		s.waiter = nil
		s.mu.Unlock()
		w(s.terminal, nil)
		return
	}
	s.mu.Unlock()
}

// Next returns the next buffered value, parking the calling Frame if
// none is available yet. Once the Subscription has been closed and its
// buffer drained, every subsequent Next returns the same terminal
// (value, true) pair. Next returns a *ProtocolError if another Next call
// on the same Subscription is already outstanding.
func (s *Subscription[T]) Next(fr *Frame) (T, bool, error) {
	var zero T

	s.mu.Lock()
	if s.waiter != nil {
		s.mu.Unlock()
		return zero, false, &ProtocolError{Op: "Subscription.Next", Msg: "a Next call is already outstanding on this subscription"}
	}
	if len(s.buf) > 0 {
		ev := s.buf[0]
		s.buf = s.buf[1:]
		s.mu.Unlock()
		return ev.value, ev.done, nil
	}
	if s.closed {
		ev := s.terminal
		s.mu.Unlock()
		return ev.value, ev.done, nil
	}
	s.mu.Unlock()

	v, err := Wait(fr, func(resume func(value any, err error)) func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.buf) > 0 {
			ev := s.buf[0]
			s.buf = s.buf[1:]
			resume(ev, nil)
			return func() {}
		}
		if s.closed {
			resume(s.terminal, nil)
			return func() {}
		}
		s.waiter = resume
		return func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.waiter = nil
		}
	})
	if err != nil {
		return zero, false, err
	}
	ev := v.(subEvent[T])
	return ev.value, ev.done, nil
}

// Channel is a multi-subscriber broadcast point. Send enqueues a value
// into every currently-attached Subscription's buffer; subscriptions
// created after a Send call never see it. Close marks every
// currently-attached (and every future) Subscription's buffer with the
// same terminal value.
type Channel[T any] struct {
	mu          sync.Mutex
	subscribers []*Subscription[T]
	closed      bool
	terminal    T
}

// NewChannel creates an empty, open Channel.
func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{}
}

// Subscribe attaches a new Subscription. If the Channel is already
// closed, the returned Subscription is immediately terminal.
func (c *Channel[T]) Subscribe() *Subscription[T] {
	sub := newSubscription[T]()
	c.mu.Lock()
	if c.closed {
		terminal := c.terminal
		c.mu.Unlock()
		sub.closeWith(terminal)
		return sub
	}
	c.subscribers = append(c.subscribers, sub)
	c.mu.Unlock()
	return sub
}

// Send enqueues v into every subscriber currently attached. A Send on a
// Channel with no subscribers is silently dropped. Send on a closed
// Channel is a no-op.
func (c *Channel[T]) Send(v T) {
	c.mu.Lock()
	subs := c.subscribers
	c.mu.Unlock()
	for _, sub := range subs {
		sub.push(v)
	}
}

// Close marks every attached subscriber's buffer with the terminal value
// v and prevents further Send calls from having any effect. Close is a
// no-op if the Channel is already closed.
func (c *Channel[T]) Close(v T) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.terminal = v
	subs := c.subscribers
	c.mu.Unlock()
	for _, sub := range subs {
		sub.closeWith(v)
	}
}

// Signal is a Channel whose Send is meant to be called synchronously
// from a plain callback — a host event handler, a timer, a foreign
// library's listener — rather than from within a Frame. Its buffering
// and subscription semantics are identical to Channel.
type Signal[T any] struct {
	*Channel[T]
}

// NewSignal creates an empty, open Signal.
func NewSignal[T any]() *Signal[T] {
	return &Signal[T]{Channel: NewChannel[T]()}
}

// Fire is an alias for Send, named for the external-event-handler use
// case a Signal is meant for.
func (s *Signal[T]) Fire(v T) { s.Send(v) }
