package nest_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kairoslab/nest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEachVisitsEveryItem(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	var mu sync.Mutex
	var seen []int

	err := nest.ForEach(context.Background(), items, func(ctx context.Context, v int) error {
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
		return nil
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, items, seen)
}

func TestForEachPropagatesFirstError(t *testing.T) {
	boom := errors.New("item 3 failed")
	err := nest.ForEach(context.Background(), []int{1, 2, 3}, func(ctx context.Context, v int) error {
		if v == 3 {
			return boom
		}
		return nil
	})

	assert.ErrorIs(t, err, boom)
}

func TestMapCollectsResultsInOrder(t *testing.T) {
	squares, err := nest.Map(context.Background(), []int{1, 2, 3, 4}, func(ctx context.Context, v int) (int, error) {
		return v * v, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 9, 16}, squares)
}

func TestMapPropagatesError(t *testing.T) {
	boom := errors.New("conversion failed")
	_, err := nest.Map(context.Background(), []string{"1", "x", "3"}, func(ctx context.Context, v string) (int, error) {
		if v == "x" {
			return 0, boom
		}
		return len(v), nil
	})

	assert.ErrorIs(t, err, boom)
}

func TestSpawnTypedWaitReturnsTypedValue(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		res, err := nest.SpawnTyped(fr, "fetch", func(ctx context.Context) (string, error) {
			return "Alice", nil
		})
		require.NoError(t, err)

		v, err := res.Wait()
		require.NoError(t, err)
		assert.Equal(t, "Alice", v)
		return nil, nil
	}).Join()
}

func TestSpawnTypedWaitPropagatesError(t *testing.T) {
	boom := errors.New("fetch failed")
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		res, err := nest.SpawnTyped(fr, "fetch", func(ctx context.Context) (int, error) {
			return 0, boom
		})
		require.NoError(t, err)

		_, waitErr := res.Wait()
		assert.ErrorIs(t, waitErr, boom)
		return nil, nil
	}).Join()
}
