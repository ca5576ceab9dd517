package nest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kairoslab/nest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaceReturnsFirstSuccess(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		slow := func(ctx context.Context, fr *nest.Frame) (string, error) {
			select {
			case <-time.After(50 * time.Millisecond):
				return "slow", nil
			case <-ctx.Done():
				return "", context.Cause(ctx)
			}
		}
		fast := func(ctx context.Context, fr *nest.Frame) (string, error) {
			return "fast", nil
		}

		v, err := nest.Race(fr, slow, fast)
		require.NoError(t, err)
		assert.Equal(t, "fast", v)
		return nil, nil
	}).Join()
}

func TestRaceAllErroredReturnsError(t *testing.T) {
	boom1 := errors.New("first failed")
	boom2 := errors.New("second failed")

	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		_, err := nest.Race(fr,
			func(ctx context.Context, fr *nest.Frame) (int, error) { return 0, boom1 },
			func(ctx context.Context, fr *nest.Frame) (int, error) { return 0, boom2 },
		)
		assert.Error(t, err)
		return nil, nil
	}).Join()
}

func TestRaceZeroEntriesReturnsZeroValue(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		v, err := nest.Race[int](fr)
		require.NoError(t, err)
		assert.Equal(t, 0, v)
		return nil, nil
	}).Join()
}

func TestRaceNilEntryPanics(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		assert.Panics(t, func() {
			_, _ = nest.Race[int](fr, nil)
		})
		return nil, nil
	}).Join()
}

func TestRaceHaltsLosers(t *testing.T) {
	loserStarted := make(chan struct{})
	loserHalted := false

	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		winner := func(ctx context.Context, fr *nest.Frame) (string, error) {
			return "winner", nil
		}
		loser := func(ctx context.Context, fr *nest.Frame) (string, error) {
			close(loserStarted)
			<-ctx.Done()
			loserHalted = true
			return "", context.Cause(ctx)
		}

		v, err := nest.Race(fr, winner, loser)
		require.NoError(t, err)
		assert.Equal(t, "winner", v)
		return nil, nil
	}).Join()

	assert.True(t, loserHalted)
}
