package nest_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/kairoslab/nest"
	"github.com/kairoslab/nest/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeStreamsInterleaves(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		a := nest.FromSlice(fr, []int{1, 2, 3})
		b := nest.FromSlice(fr, []int{10, 20, 30})

		merged := nest.MergeStreams(fr, a, b)
		items, _, err := nest.Collect(fr, merged.Open())
		require.NoError(t, err)
		assert.Len(t, items, 6)

		sort.Ints(items)
		assert.Equal(t, []int{1, 2, 3, 10, 20, 30}, items)
		return nil, nil
	}).Join()
}

func TestZipStreamsPairsElementwise(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		letters := nest.FromSlice(fr, []string{"x", "y", "z"})
		numbers := nest.FromSlice(fr, []int{1, 2, 3})

		zipped := nest.ZipStreams(fr, letters, numbers)
		pairs, _, err := nest.Collect(fr, zipped.Open())
		require.NoError(t, err)
		require.Len(t, pairs, 3)
		assert.Equal(t, "x", pairs[0].First)
		assert.Equal(t, 1, pairs[0].Second)
		return nil, nil
	}).Join()
}

func TestRaceFirstReturnsFastestStream(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		slow := nest.FromFunc(fr, func(ctx context.Context) (string, bool, error) {
			time.Sleep(50 * time.Millisecond)
			return "", true, nil
		})
		fast := nest.FromFunc(fr, func(ctx context.Context) (string, bool, error) {
			return "fast", false, nil
		})

		winner, err := nest.RaceFirst(fr, slow, fast)
		require.NoError(t, err)
		assert.Equal(t, "fast", winner)
		return nil, nil
	}).Join()
}

func TestBroadcastStreamFansOutToEachOutput(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		src := nest.FromSlice(fr, []int{1, 2, 3})
		outs := nest.BroadcastStream(fr, src, 2, 4)
		require.Len(t, outs, 2)

		itemsA, _, errA := nest.Collect(fr, outs[0].Open())
		itemsB, _, errB := nest.Collect(fr, outs[1].Open())
		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.Equal(t, []int{1, 2, 3}, itemsA)
		assert.Equal(t, []int{1, 2, 3}, itemsB)
		return nil, nil
	}).Join()
}

func TestMapStreamAppliesFn(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		src := nest.FromSlice(fr, []int{1, 2, 3})
		doubled := nest.MapStream(fr, src, func(v int) int { return v * 2 })
		items, _, err := nest.Collect(fr, doubled.Open())
		require.NoError(t, err)
		assert.Equal(t, []int{2, 4, 6}, items)
		return nil, nil
	}).Join()
}

func TestFilterStreamKeepsMatching(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		src := nest.FromSlice(fr, []int{1, 2, 3, 4, 5})
		evens := nest.FilterStream(fr, src, func(v int) bool { return v%2 == 0 })
		items, _, err := nest.Collect(fr, evens.Open())
		require.NoError(t, err)
		assert.Equal(t, []int{2, 4}, items)
		return nil, nil
	}).Join()
}

func TestThrottleStreamPacesOutput(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		src := nest.FromSlice(fr, []int{1, 2, 3, 4})
		throttled := nest.ThrottleStream(fr, src, 2, 20*time.Millisecond)

		start := time.Now()
		items, _, err := nest.Collect(fr, throttled.Open())
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4}, items)
		assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond)
		return nil, nil
	}).Join()
}

func TestDebounceStreamEmitsLastAfterQuietPeriod(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		src := nest.FromSlice(fr, []int{1, 2, 3})
		debounced := nest.DebounceStream(fr, src, 5*time.Millisecond)
		items, _, err := nest.Collect(fr, debounced.Open())
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 3, items[0])
		return nil, nil
	}).Join()
}

func TestBatchStreamGroupsBySize(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		src := nest.FromSlice(fr, []int{1, 2, 3, 4, 5})
		batched := nest.BatchStream(fr, src, 2, time.Second)
		batches, _, err := nest.Collect(fr, batched.Open())
		require.NoError(t, err)
		assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, batches)
		return nil, nil
	}).Join()
}

func TestBatchStreamWithReasonTagsFlushCause(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		src := nest.FromSlice(fr, []int{1, 2, 3})
		batched := nest.BatchStreamWithReason(fr, src, 2, time.Second)
		results, _, err := nest.Collect(fr, batched.Open())
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, []int{1, 2}, results[0].Items)
		assert.Equal(t, wire.FlushSize, results[0].Reason)
		assert.Equal(t, []int{3}, results[1].Items)
		assert.Equal(t, wire.FlushClose, results[1].Reason)
		return nil, nil
	}).Join()
}

func TestWindowStreamTumblingGroupsByTime(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		src := nest.FromSlice(fr, []int{1, 2, 3})
		windowed := nest.WindowStream(fr, src, 20*time.Millisecond, wire.Tumbling)
		batches, _, err := nest.Collect(fr, windowed.Open())
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, []int{1, 2, 3}, batches[0])
		return nil, nil
	}).Join()
}

func TestPartitionStreamSplitsByPredicate(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		src := nest.FromSlice(fr, []int{1, 2, 3, 4, 5, 6})
		evens, odds := nest.PartitionStream(fr, src, func(v int) bool { return v%2 == 0 })

		oddDrain, err := nest.Spawn(fr, "collect-odds", func(ctx context.Context, _ *nest.Frame) (any, error) {
			items, _, err := nest.Collect(fr, odds.Open())
			return items, err
		})
		require.NoError(t, err)

		evenItems, _, evenErr := nest.Collect(fr, evens.Open())
		oddResult, oddErr := nest.Join(oddDrain)

		require.NoError(t, evenErr)
		require.NoError(t, oddErr)
		oddItems := oddResult.([]int)

		sort.Ints(evenItems)
		sort.Ints(oddItems)
		assert.Equal(t, []int{2, 4, 6}, evenItems)
		assert.Equal(t, []int{1, 3, 5}, oddItems)
		return nil, nil
	}).Join()
}

func TestTeeStreamDuplicatesToEachOutput(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		src := nest.FromSlice(fr, []int{1, 2, 3})
		outs := nest.TeeStream(fr, src, 2)
		require.Len(t, outs, 2)

		second, err := nest.Spawn(fr, "collect-second", func(ctx context.Context, _ *nest.Frame) (any, error) {
			items, _, err := nest.Collect(fr, outs[1].Open())
			return items, err
		})
		require.NoError(t, err)

		a, _, errA := nest.Collect(fr, outs[0].Open())
		secondResult, secondErr := nest.Join(second)

		require.NoError(t, errA)
		require.NoError(t, secondErr)
		assert.Equal(t, []int{1, 2, 3}, a)
		assert.Equal(t, []int{1, 2, 3}, secondResult.([]int))
		return nil, nil
	}).Join()
}

func TestFanOutStreamDistributesRoundRobin(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		src := nest.FromSlice(fr, []int{1, 2, 3, 4})
		outs := nest.FanOutStream(fr, src, 2)
		require.Len(t, outs, 2)

		second, err := nest.Spawn(fr, "collect-second", func(ctx context.Context, _ *nest.Frame) (any, error) {
			items, _, err := nest.Collect(fr, outs[1].Open())
			return items, err
		})
		require.NoError(t, err)

		a, _, errA := nest.Collect(fr, outs[0].Open())
		secondResult, secondErr := nest.Join(second)

		require.NoError(t, errA)
		require.NoError(t, secondErr)
		all := append(append([]int{}, a...), secondResult.([]int)...)
		sort.Ints(all)
		assert.Equal(t, []int{1, 2, 3, 4}, all)
		return nil, nil
	}).Join()
}

func TestTakeNPullsExactCount(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		src := nest.FromSlice(fr, []int{1, 2, 3, 4, 5})
		items, err := nest.TakeN(fr, src, 3)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, items)
		return nil, nil
	}).Join()
}

func TestTakeNReturnsFewerWhenStreamEndsEarly(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		src := nest.FromSlice(fr, []int{1, 2})
		items, err := nest.TakeN(fr, src, 5)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, items)
		return nil, nil
	}).Join()
}
