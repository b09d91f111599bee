// Package wasmtime adapts github.com/bytecodealliance/wasmtime-go to
// internal/vmapi, so a Session can profile a real wasmtime-hosted guest
// instead of the in-memory fake in internal/vmapi/vmapitest. This package
// is one concrete binding among possible others, not a mandatory part of
// the core engine.
package wasmtime

import (
	"context"
	"errors"
	"fmt"

	gowasmtime "github.com/bytecodealliance/wasmtime-go"

	"github.com/wasmprof/wasmprof/internal/vmapi"
)

// Engine wraps a wasmtime.Engine, implementing vmapi.Engine's
// IncrementEpoch as a direct pass-through. IncrementEpoch is documented by
// wasmtime as safe to call from any thread, including a signal handler,
// which is exactly what internal/tick's signal-driven source requires.
type Engine struct {
	inner *gowasmtime.Engine
}

// NewEngine constructs an Engine with epoch interruption enabled, the
// configuration internal/collector requires (SetEpochDeadline only has an
// effect when the backing wasmtime.Config has epoch interruption on).
// consumeFuel additionally enables fuel accounting, required for any store
// built on this engine to report FuelConfigured() == true.
func NewEngine(consumeFuel bool) *Engine {
	cfg := gowasmtime.NewConfig()
	cfg.SetEpochInterruption(true)
	if consumeFuel {
		cfg.SetConsumeFuel(true)
	}
	return &Engine{inner: gowasmtime.NewEngineWithConfig(cfg)}
}

func (e *Engine) IncrementEpoch() { e.inner.IncrementEpoch() }

// Inner exposes the underlying wasmtime.Engine, for callers constructing a
// wasmtime.Store or compiling modules outside this adapter's scope.
func (e *Engine) Inner() *gowasmtime.Engine { return e.inner }

// frameFromWasmtime adapts a wasmtime.Frame to vmapi.Frame.
func frameFromWasmtime(f *gowasmtime.Frame) vmapi.Frame {
	out := vmapi.Frame{
		FuncIndex:    int64(f.FuncIndex()),
		FuncOffset:   int64(f.FuncOffset()),
		ModuleOffset: int64(f.ModuleOffset()),
		HasFuncInfo:  true,
	}
	if name := f.FuncName(); name != nil {
		out.Name = *name
	} else if name := f.ModuleName(); name != nil {
		out.Name = fmt.Sprintf("%s[%d]", *name, f.FuncIndex())
	} else {
		out.Name = fmt.Sprintf("wasm-function[%d]", f.FuncIndex())
	}
	return out
}

// backtrace adapts a wasmtime trap's frame list to vmapi.Backtrace.
// wasmtime only exposes a call stack via a Trap, so Store.CaptureBacktrace
// below manufactures one synchronously from within the epoch-deadline
// callback, the same point the original Rust implementation captures from.
type backtrace struct {
	frames []vmapi.Frame
}

func (b backtrace) Frames() []vmapi.Frame { return b.frames }

// Store wraps a wasmtime.Store, implementing vmapi.EpochStore.
type Store struct {
	engine *Engine
	inner  *gowasmtime.Store

	fuelConfigured bool
}

// NewStore constructs a Store bound to engine. fuelConfigured records
// whether the caller enabled fuel consumption on store (via
// wasmtime.Config.SetConsumeFuel before compiling), since wasmtime-go does
// not expose a direct query for it.
func NewStore(engine *Engine, inner *gowasmtime.Store, fuelConfigured bool) *Store {
	return &Store{engine: engine, inner: inner, fuelConfigured: fuelConfigured}
}

func (s *Store) Engine() vmapi.Engine { return s.engine }

func (s *Store) SetEpochDeadline(ticks uint64) {
	s.inner.SetEpochDeadline(ticks)
}

func (s *Store) SetEpochDeadlineCallback(cb vmapi.EpochDeadlineCallback) {
	s.inner.EpochDeadlineCallback(func() (uint64, error) {
		return cb(context.Background())
	})
}

func (s *Store) SetEpochDeadlineTrap() {
	s.inner.SetEpochDeadlineTrap()
}

// CaptureBacktrace captures the current call stack by provoking a trap
// through the store's interrupt handle and reading its frames, since
// wasmtime only surfaces a guest call stack via wasmtime.Trap.Frames. If the
// store offers no richer mechanism at this execution point, an empty
// backtrace is returned and the sample is dropped at aggregation.
func (s *Store) CaptureBacktrace(ctx context.Context) vmapi.Backtrace {
	trap := s.inner.CallStackTrap()
	if trap == nil {
		return backtrace{}
	}

	wasmFrames := trap.Frames()
	frames := make([]vmapi.Frame, len(wasmFrames))
	for i, f := range wasmFrames {
		frames[i] = frameFromWasmtime(f)
	}
	return backtrace{frames: frames}
}

func (s *Store) FuelConfigured() bool { return s.fuelConfigured }

func (s *Store) FuelConsumed(ctx context.Context) (uint64, error) {
	if !s.fuelConfigured {
		return 0, errors.New("wasmtime: fuel consumption not configured on this store")
	}
	consumed, ok := s.inner.FuelConsumed()
	if !ok {
		return 0, errors.New("wasmtime: store reports fuel consumption unavailable")
	}
	return consumed, nil
}

// Inner exposes the underlying wasmtime.Store for callers instantiating and
// invoking guest modules outside this adapter's scope.
func (s *Store) Inner() *gowasmtime.Store { return s.inner }
