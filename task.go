package nest

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Task is the handle to a running root computation: the single Frame
// admitted directly into a fresh root Scope with no parent of its own.
// Halting or awaiting the Task halts or awaits that root Frame, which in
// turn tears down everything spawned transitively beneath it.
type Task struct {
	root *Scope
	fr   *Frame
	cfg  *config
}

// Run starts comp as the driver of a brand-new task tree and returns
// immediately with a handle to it; comp and anything it spawns run
// concurrently with the caller. ctx.Done() halts the whole tree exactly
// as Task.Halt would.
func Run(ctx context.Context, comp func(ctx context.Context, fr *Frame) (any, error), opts ...Option) *Task {
	cfg := newConfig(opts...)
	root := newScope(nil, cfg)

	fr, err := root.Admit("root", comp)
	if err != nil {
		// The only way Admit fails here is a scope that isn't open, which a
		// freshly constructed root Scope never is.
		panic("nest: unreachable: fresh root scope rejected admission")
	}

	t := &Task{root: root, fr: fr, cfg: cfg}

	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				t.Halt()
			case <-fr.Done():
			}
		}()
	}

	return t
}

// Halt requests that the task tree tear down: every Frame beneath the
// root, down to the leaves, is halted in strict reverse order and
// awaited before Halt returns.
func (t *Task) Halt() { t.root.Halt() }

// Join blocks until the root Frame (and everything it spawned) has
// closed, and returns its final Outcome.
func (t *Task) Join() Outcome {
	<-t.fr.Done()
	return t.fr.Outcome()
}

// Metrics returns a live snapshot of this task tree's activity.
func (t *Task) Metrics() Metrics { return t.cfg.metrics.snapshot() }

// Root returns the Scope owning the task's single root Frame, primarily
// useful for ActiveChildren/TotalAdmitted introspection in tests.
func (t *Task) Root() *Scope { return t.root }

// Main runs comp as a root task and blocks until it finishes, halting it
// early on SIGINT or SIGTERM so process shutdown is orderly: every
// outstanding Frame gets its chance to run Ensure cleanups before the
// process exits. It is meant to be called directly from func main.
func Main(comp func(ctx context.Context, fr *Frame) (any, error), opts ...Option) Outcome {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t := Run(ctx, comp, opts...)
	return t.Join()
}

// Run admits comp as a driver Frame into sc, exactly like Admit, and
// wraps the result in a Task handle. It lets a detached Scope host one or
// more independent root computations, each joinable and haltable on its
// own terms, without nesting them inside a single parent computation.
//
// Run panics if sc is not open; callers driving a detached Scope from
// CreateScope control that lifetime themselves and are expected to check
// sc.State() first if admission after teardown is a real possibility.
func (sc *Scope) Run(comp Computation) *Task {
	fr, err := sc.Admit("root", comp)
	if err != nil {
		panic("nest: Scope.Run: " + err.Error())
	}
	return &Task{root: sc, fr: fr, cfg: sc.cfg}
}

// CreateScope constructs a detached root Scope with no driver Frame of
// its own, useful when a program wants to admit several independent root
// Frames side by side rather than nesting them under one driver
// computation. It returns the Scope alongside a destroy func that halts
// it; the Scope must be torn down through destroy (or an explicit
// sc.Halt()) since there is no driver whose return would close it
// automatically.
func CreateScope(opts ...Option) (*Scope, func()) {
	cfg := newConfig(opts...)
	sc := newScope(nil, cfg)
	return sc, sc.Halt
}
