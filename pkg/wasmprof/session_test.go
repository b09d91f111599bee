package wasmprof

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wasmprof/wasmprof/internal/vmapi"
	"github.com/wasmprof/wasmprof/internal/vmapi/vmapitest"
)

func newTestStore() (*vmapitest.Engine, *vmapitest.Store) {
	engine := &vmapitest.Engine{}
	store := vmapitest.NewStore(engine, 1)
	store.ScriptBacktraces(
		vmapitest.NewBacktrace("fib", "main"),
		vmapitest.NewBacktrace("fib", "fib", "main"),
	)
	return engine, store
}

func TestProfileBasicFlow(t *testing.T) {
	_, store := newTestStore()

	sess := NewSession(store, WithFrequency(2000))
	result, data, err := sess.Profile(context.Background(), func(s vmapi.EpochStore) (any, error) {
		time.Sleep(30 * time.Millisecond)
		return "done", nil
	})

	require.NoError(t, err)
	require.Equal(t, "done", result)
	require.NotNil(t, data)
	require.Greater(t, data.SampleCount(), 0)
	require.Greater(t, data.FrameCount(), 0)
}

func TestProfileConfigurationErrorWhenFuelNotConfigured(t *testing.T) {
	_, store := newTestStore()

	called := false
	sess := NewSession(store, WithWeightUnit(Fuel))
	_, _, err := sess.Profile(context.Background(), func(s vmapi.EpochStore) (any, error) {
		called = true
		return nil, nil
	})

	require.ErrorIs(t, err, ErrConfiguration)
	require.False(t, called, "closure must not run when fuel mode is misconfigured")
}

func TestProfileFuelMode(t *testing.T) {
	engine := &vmapitest.Engine{}
	store := vmapitest.NewStore(engine, 1).ConfigureFuel()
	store.ScriptBacktraces(vmapitest.NewBacktrace("fib"))

	sess := NewSession(store, WithWeightUnit(Fuel), WithFrequency(5000))
	_, data, err := sess.Profile(context.Background(), func(s vmapi.EpochStore) (any, error) {
		for i := 0; i < 5; i++ {
			store.ConsumeFuel(100)
			time.Sleep(time.Millisecond)
		}
		return nil, nil
	})

	require.NoError(t, err)
	require.NotNil(t, data)
}

func TestProfileCallerErrorPassesThroughVerbatim(t *testing.T) {
	_, store := newTestStore()
	wantErr := errors.New("closure failed")

	sess := NewSession(store)
	_, data, err := sess.Profile(context.Background(), func(s vmapi.EpochStore) (any, error) {
		return nil, wantErr
	})

	require.ErrorIs(t, err, wantErr)
	require.NotNil(t, data, "profile data collected so far is still returned on caller error")
}

func TestProfileSessionExclusivity(t *testing.T) {
	_, store1 := newTestStore()
	_, store2 := newTestStore()

	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		sess := NewSession(store1)
		_, _, err := sess.Profile(context.Background(), func(s vmapi.EpochStore) (any, error) {
			close(started)
			<-release
			return nil, nil
		})
		done <- err
	}()

	<-started

	sess2 := NewSession(store2)
	_, _, err := sess2.Profile(context.Background(), func(s vmapi.EpochStore) (any, error) {
		return nil, nil
	})
	require.ErrorIs(t, err, ErrSessionActive)

	close(release)
	require.NoError(t, <-done)
}
