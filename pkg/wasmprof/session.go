// Package wasmprof is the public API of the sampling profiler: build a
// Session against a VM store, run a closure under it, and export the
// resulting ProfileData as collapsed-stack text or a Speedscope document.
//
// The VM itself is an external collaborator (see internal/vmapi) — this
// package never imports a concrete WebAssembly runtime; callers provide a
// vmapi.EpochStore, typically backed by internal/vmadapter/wasmtime.
package wasmprof

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wasmprof/wasmprof/internal/aggregate"
	"github.com/wasmprof/wasmprof/internal/collector"
	"github.com/wasmprof/wasmprof/internal/logging"
	"github.com/wasmprof/wasmprof/internal/procstate"
	"github.com/wasmprof/wasmprof/internal/tick"
	"github.com/wasmprof/wasmprof/internal/vmapi"
)

// Session is the profiler builder and lifecycle driver. Construct with
// NewSession, configure with With* options, then call Profile exactly
// once.
type Session struct {
	store  vmapi.EpochStore
	cfg    config
	logger zerolog.Logger
}

// NewSession constructs a Session bound to store, applying any options in
// order. Logging defaults to an info-level zerolog logger writing to
// stdout (component "wasmprof"); pass WithLogger to attach a different one
// (e.g. from internal/logging.New) for tick-source registration and
// non-fatal teardown errors.
func NewSession(store vmapi.EpochStore, opts ...Option) *Session {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session{
		store:  store,
		cfg:    cfg,
		logger: logging.NewWithComponent(logging.Config{Level: "info"}, "wasmprof"),
	}
}

// BinaryPath returns the optional guest-binary path configured via
// WithBinaryPath, for callers that resolve symbols out-of-band before
// capturing backtraces. Profile itself does not use it.
func (s *Session) BinaryPath() string {
	return s.cfg.binaryPath
}

// WithLogger attaches a pre-configured zerolog logger instead of the
// session default.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) { c.logger = &logger }
}

// Profile drives the full session lifecycle: construct the tick source,
// install the sample collector, run fn against the store, tear everything
// down, and hand the collected samples to the aggregator.
//
// fn's return value (result, err) is passed through verbatim: any error fn
// returns is returned here unchanged, and the profile data collected up to
// that point is still valid and returned alongside it.
func (s *Session) Profile(ctx context.Context, fn func(vmapi.EpochStore) (any, error)) (any, *ProfileData, error) {
	if s.cfg.weightUnit == vmapi.Fuel && !s.store.FuelConfigured() {
		return nil, nil, ErrConfiguration
	}

	logger := s.effectiveLogger()

	if err := procstate.Global.Acquire(s.store.Engine()); err != nil {
		return nil, nil, err
	}

	ticker, err := tick.New(s.cfg.frequency, s.store.Engine(), logger)
	if err != nil {
		procstate.Global.Release()
		return nil, nil, err
	}
	logger.Debug().Uint32("frequency_hz", s.cfg.frequency).Msg("tick source registered")

	coll, err := collector.New(s.store, s.cfg.weightUnit, ticker, procstate.Global)
	if err != nil {
		_ = ticker.End()
		procstate.Global.Release()
		return nil, nil, err
	}
	coll.Install()

	result, callerErr := fn(s.store)

	s.teardown(ticker, logger)

	raw := procstate.Global.Release()
	data := aggregate.Aggregate(raw, s.cfg.weightUnit)

	logger.Info().
		Int("samples", len(data.Samples)).
		Int("frames", len(data.Frames)).
		Msg("profiling session complete")

	return result, &ProfileData{inner: data}, callerErr
}

// teardown shuts down the tick source and traps the epoch deadline so a
// stray tick fails loudly instead of silently resuming the drained
// collector.
func (s *Session) teardown(ticker tick.Source, logger zerolog.Logger) {
	if err := ticker.End(); err != nil {
		// Non-fatal: logged, not returned, because the session otherwise
		// succeeded and the collected samples are still valid.
		logger.Warn().Err(err).Msg("tick source teardown failed")
	}
	s.store.SetEpochDeadlineTrap()
}

func (s *Session) effectiveLogger() zerolog.Logger {
	if l, ok := s.cfg.loggerOverride(); ok {
		return l
	}
	return s.logger
}

func (c *config) loggerOverride() (zerolog.Logger, bool) {
	if c.logger == nil {
		return zerolog.Logger{}, false
	}
	return *c.logger, true
}
