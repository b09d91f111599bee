// Package procstate holds the process-wide singletons the sampling engine
// requires: the active VM engine handle, the active tick source, the shared
// sample buffer, and the last absolute weight reading. These live at
// process scope because the signal-driven tick source has no user-data
// parameter to carry a receiver through — this is the same constraint the
// original Rust implementation solves with `static mut` globals guarded by
// a process-wide mutex.
//
// At most one Session is active at a time; Acquire enforces that
// exclusivity.
package procstate

import (
	"errors"
	"sync"

	"github.com/wasmprof/wasmprof/internal/vmapi"
	"github.com/wasmprof/wasmprof/internal/weight"
)

// ErrSessionActive is returned by Acquire when another session is already
// running. Re-entering profile() while active is a fatal misuse.
var ErrSessionActive = errors.New("procstate: a profiling session is already active in this process")

// RawSample is one (backtrace, weight delta) pair appended by the collector.
type RawSample struct {
	Backtrace vmapi.Backtrace
	Weight    weight.Value
	// Runtime holds frame names captured through the optional guest-runtime
	// extension, parallel to Backtrace. The collector never sets it, so it
	// is nil in every sample a Session records.
	Runtime []string
}

// State is the process-wide singleton slot. A single package-level instance
// (Global) is used by the session builder and the collector; the tick
// source receives its engine directly rather than reading it from here.
type State struct {
	mu sync.Mutex

	active     bool
	engine     vmapi.Engine
	lastWeight weight.Value
	samples    []RawSample
}

// Global is the process-wide state instance.
var Global = &State{}

// Acquire marks a session active and publishes the engine handle used by
// the tick source. Returns ErrSessionActive if a session is already active.
func (s *State) Acquire(engine vmapi.Engine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return ErrSessionActive
	}
	s.active = true
	s.engine = engine
	s.lastWeight = weight.Value{}
	s.samples = nil
	return nil
}

// Engine returns the currently published engine handle, or nil if no
// session is active. Safe to call from the tick source's dispatch path.
func (s *State) Engine() vmapi.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// Append records a raw sample. Guarded by the same mutex as the rest of the
// state so a hypothetical concurrent reader (e.g. a future live-streaming
// extension) always observes a consistent buffer, even though during normal
// operation the only writer is the collector running synchronously inside
// VM execution.
func (s *State) Append(sample RawSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, sample)
}

// AbsoluteWeight computes the delta between current and the last absolute
// reading, then stores current as the new last-absolute value. The delta
// must be computed before the update — reversing the order would always
// yield a zero delta.
func (s *State) AbsoluteWeight(current weight.Value) weight.Value {
	s.mu.Lock()
	defer s.mu.Unlock()

	delta := current.Sub(s.lastWeight)
	s.lastWeight = current
	return delta
}

// Release drains the sample buffer and clears the active session, returning
// whatever samples were collected. Safe to call exactly once per session,
// at teardown.
func (s *State) Release() []RawSample {
	s.mu.Lock()
	defer s.mu.Unlock()

	samples := s.samples
	s.samples = nil
	s.engine = nil
	s.active = false
	return samples
}
