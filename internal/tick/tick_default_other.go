//go:build !unix

package tick

import (
	"github.com/rs/zerolog"

	"github.com/wasmprof/wasmprof/internal/vmapi"
)

// newPlatformSource uses the helper-thread variant on platforms without
// POSIX interval timers (Windows).
func newPlatformSource(frequencyHz uint32, engine vmapi.Engine, logger zerolog.Logger) (Source, error) {
	return newThreadSource(frequencyHz, engine, logger)
}
