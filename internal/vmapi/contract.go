// Package vmapi defines the abstract contract a WebAssembly VM must satisfy
// for wasmprof to sample it. The VM itself is an external collaborator —
// wasmprof assumes a host exposing epoch interruption, optional fuel
// accounting, and backtrace capture, but does not implement one. Expressing
// that contract as interfaces lets the sampling engine be built and tested
// against a fake store, and lets a real binding (internal/vmadapter/wasmtime)
// be swapped in without touching the engine.
package vmapi

import "context"

// WeightUnit selects how the collector computes a sample's weight.
type WeightUnit int

const (
	// Nanoseconds weighs samples by wall-clock time elapsed since the tick
	// source started.
	Nanoseconds WeightUnit = iota
	// Fuel weighs samples by VM fuel consumed since the session started.
	Fuel
)

func (u WeightUnit) String() string {
	switch u {
	case Fuel:
		return "fuel"
	default:
		return "nanoseconds"
	}
}

// Frame is one activation record captured from a guest backtrace.
//
// Only Name is guaranteed to be populated; the remaining fields are
// best-effort source-location metadata a VM may supply (e.g. from DWARF
// debug info attached to the compiled module) and are optional in every
// exporter that consumes them.
type Frame struct {
	Name         string
	File         string
	Line         int64
	Column       int64
	Module       string
	FuncIndex    int64
	FuncOffset   int64
	ModuleOffset int64

	// HasLine reports whether Line/Column/File are meaningful. A VM without
	// symbol information leaves this false and Name is used as-is.
	HasLine bool

	// HasFuncInfo reports whether FuncIndex, FuncOffset, and ModuleOffset
	// were supplied by the VM. A zero value in any of those fields is
	// ambiguous on its own — it can mean "the VM didn't tell us" or "the
	// VM told us and the real value is zero" (the module's very first
	// function, or a sample at a function's entry offset) — so exporters
	// must check this flag rather than compare the fields to zero.
	HasFuncInfo bool
}

// Backtrace is an immutable, flat snapshot of a guest call stack. Callers
// iterate Frames() in the order the VM captured them, which wasmprof treats
// as leaf-first. An empty backtrace (no frames) represents a tick that fired
// while no guest code was executing.
type Backtrace interface {
	Frames() []Frame
}

// Engine is the process-global, async-signal-safe collaborator a tick
// source nudges on every tick. A real binding increments a VM-wide epoch
// counter; a fake used in tests can simply count calls.
type Engine interface {
	IncrementEpoch()
}

// EpochDeadlineCallback is invoked by the VM when a store's epoch deadline
// is reached. ctx carries whatever the VM considers its current execution
// context. The return value is the number of further epoch ticks until the
// callback fires again; wasmprof always rearms for 1 more tick.
type EpochDeadlineCallback func(ctx context.Context) (uint64, error)

// EpochStore is a VM execution context (wasmtime calls this a Store) that
// supports epoch-based interruption, optional fuel accounting, and
// backtrace capture from the current point of execution.
type EpochStore interface {
	// Engine returns the process-wide engine handle backing this store.
	Engine() Engine

	// SetEpochDeadline arms the deadline, in epoch ticks from now.
	SetEpochDeadline(ticks uint64)

	// SetEpochDeadlineCallback installs the callback invoked when the
	// deadline is reached.
	SetEpochDeadlineCallback(cb EpochDeadlineCallback)

	// SetEpochDeadlineTrap disarms the callback and makes any further
	// epoch tick fail loudly instead of silently being ignored. Used at
	// session teardown.
	SetEpochDeadlineTrap()

	// CaptureBacktrace captures a backtrace from the current execution
	// context. Returns an empty backtrace (no error) if capture is not
	// possible at this point; such ticks are dropped rather than recorded.
	CaptureBacktrace(ctx context.Context) Backtrace

	// FuelConfigured reports whether fuel accounting is enabled on this
	// store. Sessions configured for WeightUnit Fuel refuse to start when
	// this is false (ConfigurationError).
	FuelConfigured() bool

	// FuelConsumed returns the cumulative fuel consumed so far. Only valid
	// when FuelConfigured reports true.
	FuelConsumed(ctx context.Context) (uint64, error)
}
