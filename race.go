package nest

import (
	"context"
	"fmt"
)

// Race runs every computation as a child Frame of fr and keeps the
// outcome of the first to settle, whether that is a value or an error.
// Every other child is then halted in the same reverse-admission order
// any other scope teardown uses, each awaited before the next, so no
// loser leaks past the call.
//
// If the first computation to settle errors, Race returns the zero value
// and that error. If fr itself is halted before any computation settles,
// Race returns that halt cause. Race panics if any entry in comps is nil.
func Race[T any](fr *Frame, comps ...func(ctx context.Context, fr *Frame) (T, error)) (T, error) {
	var zero T
	if len(comps) == 0 {
		return zero, nil
	}
	for i, c := range comps {
		if c == nil {
			panic(fmt.Sprintf("nest: Race entry [%d] must not be nil", i))
		}
	}

	type result struct {
		idx int
		val T
		err error
	}
	resultCh := make(chan result, len(comps))

	children := make([]*Frame, 0, len(comps))
	for i, c := range comps {
		i, c := i, c
		child, err := Spawn(fr, "race", func(ctx context.Context, cfr *Frame) (any, error) {
			v, err := c(ctx, cfr)
			resultCh <- result{idx: i, val: v, err: err}
			return v, err
		})
		if err != nil {
			// Scope already closed (fr is tearing down); nothing left to race.
			return zero, err
		}
		children = append(children, child)
	}

	haltAllExcept := func(winner int) {
		for i := len(children) - 1; i >= 0; i-- {
			if i != winner {
				children[i].requestHalt()
			}
			<-children[i].doneCh
		}
	}

	select {
	case res := <-resultCh:
		haltAllExcept(res.idx)
		if res.err != nil {
			return zero, res.err
		}
		return res.val, nil
	case <-fr.ctx.Done():
		haltAllExcept(-1)
		return zero, context.Cause(fr.ctx)
	}
}
