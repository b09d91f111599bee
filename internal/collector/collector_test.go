package collector

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wasmprof/wasmprof/internal/procstate"
	"github.com/wasmprof/wasmprof/internal/vmapi"
	"github.com/wasmprof/wasmprof/internal/vmapi/vmapitest"
)

// fakeTicker is a minimal tick.Source whose Elapsed() is driven explicitly
// by the test instead of wall-clock time, so weight deltas are deterministic.
type fakeTicker struct {
	elapsed time.Duration
	ended   bool
}

func (f *fakeTicker) Elapsed() time.Duration { return f.elapsed }
func (f *fakeTicker) End() error {
	f.ended = true
	return nil
}

func TestCollectorNanosecondsAppendsWeightDeltas(t *testing.T) {
	state := &procstate.State{}
	engine := &vmapitest.Engine{}
	require.NoError(t, state.Acquire(engine))

	store := vmapitest.NewStore(engine, 1)
	store.ScriptBacktraces(
		vmapitest.NewBacktrace("a"),
		vmapitest.NewBacktrace("a", "b"),
	)

	ticker := &fakeTicker{}
	c, err := New(store, vmapi.Nanoseconds, ticker, state)
	require.NoError(t, err)
	c.Install()

	ticker.elapsed = 10 * time.Millisecond
	engine.IncrementEpoch()

	ticker.elapsed = 25 * time.Millisecond
	engine.IncrementEpoch()

	raw := state.Release()
	require.Len(t, raw, 2)
	require.Equal(t, uint64(10*time.Millisecond), raw[0].Weight.Lo)
	require.Equal(t, uint64(15*time.Millisecond), raw[1].Weight.Lo)
}

func TestCollectorFuelModeCapturesInitialBaseline(t *testing.T) {
	state := &procstate.State{}
	engine := &vmapitest.Engine{}
	store := vmapitest.NewStore(engine, 1).ConfigureFuel()
	store.ConsumeFuel(1000)
	require.NoError(t, state.Acquire(engine))

	store.ScriptBacktraces(vmapitest.NewBacktrace("fib"))

	ticker := &fakeTicker{}
	c, err := New(store, vmapi.Fuel, ticker, state)
	require.NoError(t, err)
	c.Install()

	store.ConsumeFuel(250)
	engine.IncrementEpoch()

	raw := state.Release()
	require.Len(t, raw, 1)
	require.Equal(t, uint64(250), raw[0].Weight.Lo)
}

func TestNewFuelModePropagatesInitialCaptureError(t *testing.T) {
	state := &procstate.State{}
	engine := &vmapitest.Engine{}
	store := vmapitest.NewStore(engine, 1).ConfigureFuel()
	store.FailFuelReads(errors.New("boom"))

	ticker := &fakeTicker{}
	_, err := New(store, vmapi.Fuel, ticker, state)
	require.Error(t, err)
}

func TestCollectorFuelReadFailureMidSessionTrapsDeadline(t *testing.T) {
	state := &procstate.State{}
	engine := &vmapitest.Engine{}
	store := vmapitest.NewStore(engine, 1).ConfigureFuel()
	require.NoError(t, state.Acquire(engine))

	ticker := &fakeTicker{}
	c, err := New(store, vmapi.Fuel, ticker, state)
	require.NoError(t, err)
	c.Install()

	store.FailFuelReads(errors.New("fuel accounting disappeared"))
	engine.IncrementEpoch()

	require.True(t, store.Trapped())

	state.Release()
}
