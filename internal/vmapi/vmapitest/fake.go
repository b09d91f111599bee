// Package vmapitest provides an in-memory fake implementing internal/vmapi's
// interfaces, so the sampling engine, collector, and session builder can be
// exercised without a real WebAssembly VM.
package vmapitest

import (
	"context"
	"errors"

	"github.com/wasmprof/wasmprof/internal/vmapi"
)

// Engine counts IncrementEpoch calls and, when a Store is attached, invokes
// the store's deadline callback every N increments to simulate the VM
// reaching a compiled safe-point.
type Engine struct {
	Increments int
	stores     []*Store
}

func (e *Engine) IncrementEpoch() {
	e.Increments++
	for _, s := range e.stores {
		s.onEpochIncrement()
	}
}

// Backtrace is a fixed, in-memory backtrace fake.
type Backtrace struct {
	frames []vmapi.Frame
}

// NewBacktrace builds a fake backtrace from a leaf-first list of function
// names.
func NewBacktrace(names ...string) Backtrace {
	frames := make([]vmapi.Frame, len(names))
	for i, n := range names {
		frames[i] = vmapi.Frame{Name: n}
	}
	return Backtrace{frames: frames}
}

func (b Backtrace) Frames() []vmapi.Frame { return b.frames }

// Store is a fake vmapi.EpochStore. Backtraces queued with ScriptBacktraces
// are handed out to
// successive deadline callback invocations, wrapping around if there are
// more invocations than scripted backtraces.
type Store struct {
	engine *Engine

	deadline uint64
	cb       vmapi.EpochDeadlineCallback
	trapped  bool

	fuelConfigured bool
	fuelConsumed   uint64
	fuelErr        error

	scripted    []vmapi.Backtrace
	callIndex   int
	safePointEvery int
	sinceArm    int
}

// NewStore constructs a fake store attached to engine. safePointEvery
// controls how many IncrementEpoch calls it takes before the deadline
// callback fires, simulating a real VM's bounded but non-zero safe-point
// latency.
func NewStore(engine *Engine, safePointEvery int) *Store {
	if safePointEvery <= 0 {
		safePointEvery = 1
	}
	s := &Store{engine: engine, safePointEvery: safePointEvery}
	engine.stores = append(engine.stores, s)
	return s
}

func (s *Store) Engine() vmapi.Engine { return s.engine }

func (s *Store) SetEpochDeadline(ticks uint64) {
	s.deadline = ticks
	s.sinceArm = 0
}

func (s *Store) SetEpochDeadlineCallback(cb vmapi.EpochDeadlineCallback) {
	s.cb = cb
}

func (s *Store) SetEpochDeadlineTrap() {
	s.trapped = true
	s.cb = nil
}

// ScriptBacktraces queues backtraces to be returned by CaptureBacktrace on
// successive deadline callback firings, in order.
func (s *Store) ScriptBacktraces(bts ...vmapi.Backtrace) {
	s.scripted = append(s.scripted, bts...)
}

func (s *Store) CaptureBacktrace(ctx context.Context) vmapi.Backtrace {
	if len(s.scripted) == 0 {
		return Backtrace{}
	}
	bt := s.scripted[s.callIndex%len(s.scripted)]
	s.callIndex++
	return bt
}

// ConfigureFuel enables fuel accounting on the fake store with an initial
// consumption counter.
func (s *Store) ConfigureFuel() *Store {
	s.fuelConfigured = true
	return s
}

// ConsumeFuel advances the fake store's fuel-consumed counter.
func (s *Store) ConsumeFuel(n uint64) {
	s.fuelConsumed += n
}

// FailFuelReads makes subsequent FuelConsumed calls return err.
func (s *Store) FailFuelReads(err error) {
	s.fuelErr = err
}

func (s *Store) FuelConfigured() bool { return s.fuelConfigured }

func (s *Store) FuelConsumed(ctx context.Context) (uint64, error) {
	if s.fuelErr != nil {
		return 0, s.fuelErr
	}
	if !s.fuelConfigured {
		return 0, errors.New("vmapitest: fuel not configured")
	}
	return s.fuelConsumed, nil
}

func (s *Store) onEpochIncrement() {
	if s.cb == nil || s.trapped {
		return
	}
	s.sinceArm++
	if uint64(s.sinceArm) < s.deadline*uint64(s.safePointEvery) {
		return
	}
	next, err := s.cb(context.Background())
	if err != nil {
		s.trapped = true
		return
	}
	s.SetEpochDeadline(next)
}

// Trapped reports whether SetEpochDeadlineTrap has been called or the
// deadline callback has returned an error.
func (s *Store) Trapped() bool { return s.trapped }
