// Package errutil provides small error-handling helpers shared across wasmprof.
package errutil

import (
	"io"

	"github.com/rs/zerolog"
)

// DeferClose closes an io.Closer and logs any error instead of silently
// discarding it. Intended for use in defer statements where the close error
// cannot be returned to the caller (e.g. closing an export destination after
// the primary write already succeeded).
func DeferClose(logger zerolog.Logger, closer io.Closer, msg string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn().Err(err).Msg(msg)
	}
}
