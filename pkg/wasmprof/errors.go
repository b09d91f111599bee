package wasmprof

import (
	"errors"

	"github.com/wasmprof/wasmprof/internal/collector"
	"github.com/wasmprof/wasmprof/internal/procstate"
	"github.com/wasmprof/wasmprof/internal/tick"
)

// RegisterError and ConfigurationError are terminal: the caller's closure
// is never invoked. UnregisterError is non-fatal and only ever logged by
// Session.Profile, never returned to the caller directly, but it is
// exported so tests and advanced callers can recognize it if they inspect
// logs programmatically.
var (
	// ErrRegister wraps tick.RegisterError: the tick source could not be
	// installed. Surfaced at Profile entry before the closure runs.
	ErrRegister = tick.RegisterError

	// ErrUnregister wraps tick.UnregisterError: teardown could not cleanly
	// remove the tick source. Logged, not returned as a fatal error.
	ErrUnregister = tick.UnregisterError

	// ErrConfiguration is returned when Fuel weighing is selected but the
	// store has no fuel configured.
	ErrConfiguration = errors.New("wasmprof: fuel weight unit selected but store has no fuel accounting configured")

	// ErrSessionActive is returned when Profile is called while another
	// session is active in this process: at most one Session exists
	// process-wide at any time.
	ErrSessionActive = procstate.ErrSessionActive

	// ErrFuelUnavailable is a fatal session error: fuel accounting
	// disappeared mid-session after having been present at setup.
	ErrFuelUnavailable = collector.ErrFuelUnavailable
)
