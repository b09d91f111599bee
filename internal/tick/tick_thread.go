package tick

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wasmprof/wasmprof/internal/vmapi"
)

// threadSource is the portable tick source variant: a helper goroutine
// waits on a time.Ticker with the configured period, nudging the engine's
// epoch counter on every tick, until told to stop. Used on platforms without
// POSIX interval timers (Windows) and as the fallback when the signal
// variant is unavailable.
type threadSource struct {
	shutdown chan struct{}
	done     chan struct{}
	start    time.Time

	mu      sync.Mutex
	stopped bool
}

func newThreadSource(frequencyHz uint32, engine vmapi.Engine, logger zerolog.Logger) (Source, error) {
	s := &threadSource{
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		start:    time.Now(),
	}

	period := Period(frequencyHz)
	go s.run(period, engine, logger)

	return s, nil
}

func (s *threadSource) run(period time.Duration, engine vmapi.Engine, logger zerolog.Logger) {
	defer close(s.done)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			engine.IncrementEpoch()
		}
	}
}

func (s *threadSource) Elapsed() time.Duration {
	return time.Since(s.start)
}

func (s *threadSource) End() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.shutdown)
	select {
	case <-s.done:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("%w: helper thread did not exit", UnregisterError)
	}
}
