package nest_test

import (
	"context"
	"testing"
	"time"

	"github.com/kairoslab/nest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelLateSubscriberMissesEarlySends(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		ch := nest.NewChannel[string]()
		early := ch.Subscribe()

		ch.Send("hello")

		late := ch.Subscribe()
		ch.Send("world")
		ch.Close("done")

		items, terminal, err := nest.Collect(fr, early)
		require.NoError(t, err)
		assert.Equal(t, []string{"hello", "world"}, items)
		assert.Equal(t, "done", terminal)

		items, terminal, err = nest.Collect(fr, late)
		require.NoError(t, err)
		assert.Equal(t, []string{"world"}, items)
		assert.Equal(t, "done", terminal)

		return nil, nil
	}).Join()
}

func TestChannelSendWithNoSubscribersIsDropped(t *testing.T) {
	ch := nest.NewChannel[int]()
	assert.NotPanics(t, func() { ch.Send(1) })
}

func TestSubscriptionNextAfterCloseRepeatsTerminal(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		ch := nest.NewChannel[int]()
		sub := ch.Subscribe()
		ch.Close(99)

		for i := 0; i < 3; i++ {
			v, done, err := sub.Next(fr)
			require.NoError(t, err)
			assert.True(t, done)
			assert.Equal(t, 99, v)
		}
		return nil, nil
	}).Join()
}

func TestSubscriptionConcurrentNextIsProtocolError(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		ch := nest.NewChannel[int]()
		sub := ch.Subscribe()

		firstParked := make(chan struct{})
		_, err := nest.Spawn(fr, "first-reader", func(ctx context.Context, cfr *nest.Frame) (any, error) {
			close(firstParked)
			_, _, _ = sub.Next(cfr)
			return nil, nil
		})
		require.NoError(t, err)

		<-firstParked
		time.Sleep(5 * time.Millisecond) // let the spawned reader install itself as the waiter

		_, _, secondErr := sub.Next(fr)
		var pe *nest.ProtocolError
		assert.ErrorAs(t, secondErr, &pe)

		ch.Close(0)
		return nil, nil
	}).Join()
}

func TestSignalFireDeliversToSubscribers(t *testing.T) {
	nest.Run(context.Background(), func(ctx context.Context, fr *nest.Frame) (any, error) {
		sig := nest.NewSignal[string]()
		sub := sig.Subscribe()

		sig.Fire("clicked")
		sig.Close("end")

		items, terminal, err := nest.Collect(fr, sub)
		require.NoError(t, err)
		assert.Equal(t, []string{"clicked"}, items)
		assert.Equal(t, "end", terminal)
		return nil, nil
	}).Join()
}
