package nest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kairoslab/nest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvideReleasesOnOwningFrameTeardown(t *testing.T) {
	released := false

	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		_, err := nest.Spawn(fr, "resource-owner", func(ctx context.Context, ofr *nest.Frame) (any, error) {
			v, err := nest.Provide(ofr, nest.Resource[int]{
				Acquire: func(ctx context.Context) (int, error) { return 1, nil },
				Release: func(ctx context.Context, v int) error { released = true; return nil },
			})
			require.NoError(t, err)
			assert.Equal(t, 1, v)
			return nil, nil
		})
		require.NoError(t, err)
		return nil, nil
	}).Join()

	assert.True(t, released)
}

func TestProvideAcquireFailureRegistersNoRelease(t *testing.T) {
	boom := errors.New("acquire failed")
	released := false

	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		_, err := nest.Provide(fr, nest.Resource[int]{
			Acquire: func(ctx context.Context) (int, error) { return 0, boom },
			Release: func(ctx context.Context, v int) error { released = true; return nil },
		})
		assert.ErrorIs(t, err, boom)
		return nil, nil
	}).Join()

	assert.False(t, released)
}

func TestProvideReleasesInReverseOrder(t *testing.T) {
	var order []string

	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		_, _ = nest.Provide(fr, nest.Resource[string]{
			Acquire: func(ctx context.Context) (string, error) { return "first", nil },
			Release: func(ctx context.Context, v string) error { order = append(order, v); return nil },
		})
		_, _ = nest.Provide(fr, nest.Resource[string]{
			Acquire: func(ctx context.Context) (string, error) { return "second", nil },
			Release: func(ctx context.Context, v string) error { order = append(order, v); return nil },
		})
		return nil, nil
	}).Join()

	assert.Equal(t, []string{"second", "first"}, order)
}

func TestProvideInReleasesOnAncestorScopeTeardown(t *testing.T) {
	released := false

	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		setup, err := nest.Spawn(fr, "setup", func(ctx context.Context, sfr *nest.Frame) (any, error) {
			_, err := nest.ProvideIn(ctx, fr.Scope(), nest.Resource[int]{
				Acquire: func(ctx context.Context) (int, error) { return 1, nil },
				Release: func(ctx context.Context, v int) error { released = true; return nil },
			})
			return nil, err
		})
		require.NoError(t, err)
		_, setupErr := nest.Join(setup)
		require.NoError(t, setupErr)
		assert.False(t, released) // setup frame closed, but its provider is bound to fr's own scope
		return nil, nil
	}).Join()

	assert.True(t, released)
}
