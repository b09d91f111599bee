//go:build unix

package tick

import (
	"github.com/rs/zerolog"

	"github.com/wasmprof/wasmprof/internal/vmapi"
)

// newPlatformSource selects the signal-driven variant on unix, falling back
// to the helper-thread variant at runtime if constructing the signal
// variant fails for any reason (the error is logged as a warning).
func newPlatformSource(frequencyHz uint32, engine vmapi.Engine, logger zerolog.Logger) (Source, error) {
	src, err := newSignalSource(frequencyHz, engine, logger)
	if err == nil {
		return src, nil
	}
	logger.Warn().Err(err).Msg("signal tick source unavailable, falling back to helper thread")
	return newThreadSource(frequencyHz, engine, logger)
}
