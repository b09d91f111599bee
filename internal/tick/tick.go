// Package tick implements the process-wide periodic tick source that drives
// epoch-based sampling. Two variants share one capability set — a POSIX
// interval-timer/signal variant and a portable helper-thread variant — and
// are selected at build time.
package tick

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/wasmprof/wasmprof/internal/vmapi"
)

// RegisterError is returned by New when the tick source could not be
// installed (timer unavailable, signal already trapped, thread spawn
// failed).
var RegisterError = errors.New("tick: could not register tick source")

// UnregisterError is returned by End when teardown could not cleanly remove
// the tick source. This is non-fatal: the caller still returns whatever
// samples were already collected, and only logs this error.
var UnregisterError = errors.New("tick: could not unregister tick source")

// Source produces ticks at a configured frequency, nudging a vmapi.Engine's
// epoch counter on every tick, and reports wall-clock elapsed time since it
// started.
type Source interface {
	// Elapsed returns the monotonic duration since the source started. Safe
	// to call from any thread, lock-free.
	Elapsed() time.Duration

	// End idempotently tears down the tick source. Calling End more than
	// once returns nil the second time.
	End() error
}

// Period converts a sampling frequency in Hz to a tick period.
func Period(frequencyHz uint32) time.Duration {
	if frequencyHz == 0 {
		frequencyHz = 1
	}
	return time.Duration(float64(time.Second) / float64(frequencyHz))
}

// New constructs the build-appropriate tick source variant (signal-driven on
// unix, helper-thread elsewhere) and starts it immediately.
func New(frequencyHz uint32, engine vmapi.Engine, logger zerolog.Logger) (Source, error) {
	return newPlatformSource(frequencyHz, engine, logger)
}
