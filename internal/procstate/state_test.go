package procstate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmprof/wasmprof/internal/vmapi/vmapitest"
	"github.com/wasmprof/wasmprof/internal/weight"
)

func TestAcquireRejectsWhileActive(t *testing.T) {
	state := &State{}
	engine := &vmapitest.Engine{}

	require.NoError(t, state.Acquire(engine))
	err := state.Acquire(engine)
	require.ErrorIs(t, err, ErrSessionActive)

	state.Release()
}

func TestReleaseClearsActiveAndAllowsReacquire(t *testing.T) {
	state := &State{}
	engine := &vmapitest.Engine{}

	require.NoError(t, state.Acquire(engine))
	state.Append(RawSample{Weight: weight.FromUint64(5)})
	samples := state.Release()
	require.Len(t, samples, 1)

	require.NoError(t, state.Acquire(engine))
	require.Empty(t, state.Release())
}

func TestAbsoluteWeightComputesDeltaBeforeStoringCurrent(t *testing.T) {
	state := &State{}
	require.NoError(t, state.Acquire(&vmapitest.Engine{}))
	defer state.Release()

	first := state.AbsoluteWeight(weight.FromUint64(100))
	require.Equal(t, uint64(100), first.Lo, "first reading is a delta from zero")

	second := state.AbsoluteWeight(weight.FromUint64(130))
	require.Equal(t, uint64(30), second.Lo, "delta is computed against the prior reading, not zero")

	third := state.AbsoluteWeight(weight.FromUint64(130))
	require.True(t, third.IsZero(), "no time/fuel elapsed between readings yields a zero delta")
}

func TestEngineReturnsPublishedHandle(t *testing.T) {
	state := &State{}
	require.Nil(t, state.Engine())

	engine := &vmapitest.Engine{}
	require.NoError(t, state.Acquire(engine))
	require.Same(t, engine, state.Engine())

	state.Release()
	require.Nil(t, state.Engine())
}
