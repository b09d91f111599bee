package wasmprof

import "github.com/rs/zerolog"

// config holds the builder options recognized by NewSession. Defaults:
// 1000 Hz, nanosecond weighing, no binary path.
type config struct {
	frequency  uint32
	weightUnit WeightUnit
	binaryPath string
	logger     *zerolog.Logger
}

func defaultConfig() config {
	return config{
		frequency:  1000,
		weightUnit: Nanoseconds,
	}
}

// Option configures a Session at construction time, in the functional-
// options idiom this module's teacher uses pervasively for multi-field
// configuration (e.g. logging.Config, CPUProfilerOption in the pack's
// wzprof reference).
type Option func(*config)

// WithFrequency sets the sampling frequency in Hz. The tick period is
// 1/frequency seconds. Default: 1000 Hz.
func WithFrequency(hz uint32) Option {
	return func(c *config) { c.frequency = hz }
}

// WithWeightUnit selects how sample weights are computed. Default:
// Nanoseconds.
func WithWeightUnit(unit WeightUnit) Option {
	return func(c *config) { c.weightUnit = unit }
}

// WithBinaryPath records an optional path to the guest binary, readable
// back through Session.BinaryPath. The session does not open the file: no
// symbol or DWARF resolution is done from it, and exported frame metadata
// comes only from the store's backtraces. Default: none.
func WithBinaryPath(path string) Option {
	return func(c *config) { c.binaryPath = path }
}
