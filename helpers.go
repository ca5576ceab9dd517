package nest

import (
	"context"
	"fmt"
)

// ForEach spawns one Frame per item, running fn concurrently across the
// whole slice, and blocks until all of them close. It is a convenience
// wrapper over Run and Spawn: pass WithLimit among opts to bound
// concurrency the same way any other Scope would.
//
//	err := nest.ForEach(ctx, urls, func(ctx context.Context, u string) error {
//	    return fetch(ctx, u)
//	}, nest.WithLimit(10))
func ForEach[T any](ctx context.Context, items []T, fn func(ctx context.Context, item T) error, opts ...Option) error {
	outcome := Run(ctx, func(ctx context.Context, fr *Frame) (any, error) {
		children := make([]*Frame, 0, len(items))
		for i, item := range items {
			i, item := i, item
			child, err := Spawn(fr, fmt.Sprintf("foreach[%d]", i), func(ctx context.Context, _ *Frame) (any, error) {
				return nil, fn(ctx, item)
			})
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		for _, child := range children {
			<-child.Done()
		}
		return nil, nil
	}, opts...).Join()

	if outcome.IsErrored() {
		return outcome.Err()
	}
	return nil
}

// Map runs fn over every item concurrently and collects the results in
// input order. On the first error, Map returns nil and that error once
// every other in-flight item has been halted and drained.
//
//	prices, err := nest.Map(ctx, products, func(ctx context.Context, p Product) (float64, error) {
//	    return fetchPrice(ctx, p)
//	}, nest.WithLimit(5))
func Map[T, R any](ctx context.Context, items []T, fn func(ctx context.Context, item T) (R, error), opts ...Option) ([]R, error) {
	results := make([]R, len(items))
	outcome := Run(ctx, func(ctx context.Context, fr *Frame) (any, error) {
		children := make([]*Frame, 0, len(items))
		for i, item := range items {
			i, item := i, item
			child, err := Spawn(fr, fmt.Sprintf("map[%d]", i), func(ctx context.Context, _ *Frame) (any, error) {
				r, err := fn(ctx, item)
				if err != nil {
					return nil, err
				}
				results[i] = r
				return nil, nil
			})
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		for _, child := range children {
			<-child.Done()
		}
		return nil, nil
	}, opts...).Join()

	if outcome.IsErrored() {
		return nil, outcome.Err()
	}
	return results, nil
}
