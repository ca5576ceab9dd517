package nest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/kairoslab/nest/wire"
)

// ErrPoolClosed is returned by WorkerPool.Submit once the pool has been
// closed.
var ErrPoolClosed = errors.New("nest: worker pool is closed")

// WorkerPool is a fixed-size pool of persistent workers, each running as
// its own Frame spawned from the Frame that creates the pool. Unlike a
// fresh Spawn per unit of work, a WorkerPool amortizes Frame overhead
// across many short-lived task submissions — the usual fit is a
// Resource whose Acquire is NewWorkerPool and whose Release is Close.
type WorkerPool struct {
	tasks chan func(ctx context.Context) error

	closed atomic.Bool
	done   chan struct{}
	workerCount int

	errMu sync.Mutex
	errs  []error

	submitted atomic.Int64
	completed atomic.Int64
	errored   atomic.Int64
	inFlight  atomic.Int64
}

// PoolStats is a point-in-time snapshot of a WorkerPool's activity.
type PoolStats struct {
	Submitted  int64
	Completed  int64
	Errored    int64
	InFlight   int64
	QueueDepth int
	Workers    int
}

// PoolOption configures a WorkerPool.
type PoolOption func(*poolConfig)

type poolConfig struct {
	queueSize int
}

// WithQueueSize sets the task queue buffer size. The default is n*2
// where n is the worker count passed to NewWorkerPool.
func WithQueueSize(size int) PoolOption {
	if size < 0 {
		panic("nest: WithQueueSize requires a non-negative size")
	}
	return func(c *poolConfig) { c.queueSize = size }
}

// NewWorkerPool spawns n persistent worker Frames as children of fr and
// returns a pool whose workers share one task queue: each submitted task
// is taken by whichever worker is free next. Every worker Frame halts
// the moment fr's own Scope tears down, and once all of them have exited
// the pool stops accepting work — a WorkerPool's lifetime is bound to
// its parent Frame's own Scope exactly like any other Spawn.
func NewWorkerPool(fr *Frame, n int, opts ...PoolOption) (*WorkerPool, error) {
	if n <= 0 {
		panic("nest: NewWorkerPool requires n > 0")
	}
	cfg := poolConfig{queueSize: n * 2}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &WorkerPool{
		tasks:       make(chan func(ctx context.Context) error, cfg.queueSize),
		done:        make(chan struct{}),
		workerCount: n,
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		if _, err := Spawn(fr, "worker", func(ctx context.Context, _ *Frame) (any, error) {
			defer wg.Done()
			p.runWorker(ctx)
			return nil, nil
		}); err != nil {
			wg.Add(-1 * (n - i))
			return nil, err
		}
	}
	go func() {
		wg.Wait()
		p.closed.Store(true)
		close(p.done)
	}()

	return p, nil
}

func (p *WorkerPool) runWorker(ctx context.Context) {
	for {
		select {
		case fn, ok := <-p.tasks:
			if !ok {
				return
			}
			p.runTask(ctx, fn)
		case <-ctx.Done():
			return
		}
	}
}

func (p *WorkerPool) runTask(ctx context.Context, fn func(ctx context.Context) error) {
	p.inFlight.Add(1)
	defer func() {
		p.inFlight.Add(-1)
		p.completed.Add(1)
	}()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = newPanicError(r)
			}
		}()
		err = fn(ctx)
	}()
	if err != nil {
		p.errored.Add(1)
		p.errMu.Lock()
		p.errs = append(p.errs, err)
		p.errMu.Unlock()
	}
}

// Stats returns a point-in-time snapshot of pool activity.
func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{
		Submitted:  p.submitted.Load(),
		Completed:  p.completed.Load(),
		Errored:    p.errored.Load(),
		InFlight:   p.inFlight.Load(),
		QueueDepth: len(p.tasks),
		Workers:    p.workerCount,
	}
}

// Submit queues fn for execution by the next free worker. It blocks if
// the queue is full and returns ErrPoolClosed once Close has been called
// or every worker has exited.
func (p *WorkerPool) Submit(fn func(ctx context.Context) error) (err error) {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	defer func() {
		if r := recover(); r != nil {
			err = ErrPoolClosed
		}
	}()
	p.tasks <- fn
	p.submitted.Add(1)
	return nil
}

// TrySubmit attempts to submit without blocking, returning false if the
// queue is full or the pool is closed.
func (p *WorkerPool) TrySubmit(fn func(ctx context.Context) error) (submitted bool) {
	if p.closed.Load() {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			submitted = false
		}
	}()
	select {
	case p.tasks <- fn:
		p.submitted.Add(1)
		return true
	default:
		return false
	}
}

// SubmitBatch queues every fn in fns in order: if ctx is cancelled partway
// through, the caller gets that error back immediately instead of blocking
// on a full queue for the remaining tasks. Tasks queued before the
// cancellation stay queued and still run. Submitted count only advances
// once the whole batch has been queued.
func (p *WorkerPool) SubmitBatch(ctx context.Context, fns []func(ctx context.Context) error) (err error) {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	defer func() {
		if r := recover(); r != nil {
			err = ErrPoolClosed
		}
	}()
	if err := wire.SendBatch(ctx, p.tasks, fns); err != nil {
		return err
	}
	p.submitted.Add(int64(len(fns)))
	return nil
}

// Close stops accepting new tasks and waits for every worker Frame to
// finish its current task and return. It is the natural Release half of
// a Resource[*WorkerPool]. Safe to call more than once.
func (p *WorkerPool) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		close(p.tasks)
	}
	<-p.done

	p.errMu.Lock()
	defer p.errMu.Unlock()
	return errors.Join(p.errs...)
}
