package nest_test

import (
	"errors"
	"testing"

	"github.com/kairoslab/nest"
	"github.com/stretchr/testify/assert"
)

func TestReturnedOutcome(t *testing.T) {
	o := nest.Returned(42)
	assert.True(t, o.IsReturned())
	assert.False(t, o.IsErrored())
	assert.False(t, o.IsHalted())
	assert.Equal(t, 42, o.Value())
	assert.NoError(t, o.Err())
}

func TestErroredOutcome(t *testing.T) {
	boom := errors.New("boom")
	o := nest.Errored(boom)
	assert.True(t, o.IsErrored())
	assert.Equal(t, boom, o.Err())
	assert.Nil(t, o.Value())
}

func TestErroredPanicsOnNilError(t *testing.T) {
	assert.Panics(t, func() { nest.Errored(nil) })
}

func TestHaltedOutcomeSingleton(t *testing.T) {
	o := nest.Halted
	assert.True(t, o.IsHalted())
	assert.False(t, o.IsReturned())
	assert.False(t, o.IsErrored())
	assert.Nil(t, o.Err())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "returned", nest.Returned("v").String())
	assert.Equal(t, "halted", nest.Halted.String())
	assert.Contains(t, nest.Errored(errors.New("x")).String(), "x")
}

func TestOutcomeAsEitherReturned(t *testing.T) {
	either := nest.Returned(7).AsEither()
	assert.True(t, either.IsRight())
	v, ok := either.GetRight()
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestOutcomeAsEitherErrored(t *testing.T) {
	boom := errors.New("boom")
	either := nest.Errored(boom).AsEither()
	assert.True(t, either.IsLeft())
	err, ok := either.GetLeft()
	assert.True(t, ok)
	assert.Equal(t, boom, err)
}
