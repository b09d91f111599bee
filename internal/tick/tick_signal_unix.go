//go:build unix

package tick

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/wasmprof/wasmprof/internal/vmapi"
)

// signalSource is the POSIX tick source variant: it arms ITIMER_PROF to
// deliver SIGPROF at the configured period and nudges the engine's epoch
// counter on every delivery.
//
// Go cannot install a hand-written, frame-pointer-unsafe C signal handler —
// the runtime always intercepts the raw signal and redelivers it through a
// channel (os/signal). That channel delivery already does the
// async-signal-unsafe work (scheduling a goroutine wakeup) before user code
// ever runs, so the dispatch goroutine below executes on an ordinary stack,
// not the signal frame itself. This is the closest equivalent to a true
// async-signal-safe handler body available without cgo; see DESIGN.md.
type signalSource struct {
	sigCh chan os.Signal
	done  chan struct{}
	start time.Time

	mu      sync.Mutex
	stopped bool
}

func newSignalSource(frequencyHz uint32, engine vmapi.Engine, logger zerolog.Logger) (Source, error) {
	period := Period(frequencyHz)

	it := unix.Itimerval{
		Interval: unix.NsecToTimeval(period.Nanoseconds()),
		Value:    unix.NsecToTimeval(period.Nanoseconds()),
	}
	if err := unix.Setitimer(unix.ITIMER_PROF, &it, nil); err != nil {
		return nil, fmt.Errorf("%w: setitimer: %v", RegisterError, err)
	}

	s := &signalSource{
		sigCh: make(chan os.Signal, 1),
		done:  make(chan struct{}),
		start: time.Now(),
	}
	signal.Notify(s.sigCh, syscall.SIGPROF)

	go s.dispatch(engine, logger)

	return s, nil
}

func (s *signalSource) dispatch(engine vmapi.Engine, logger zerolog.Logger) {
	defer close(s.done)
	for range s.sigCh {
		engine.IncrementEpoch()
	}
}

func (s *signalSource) Elapsed() time.Duration {
	return time.Since(s.start)
}

func (s *signalSource) End() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	zero := unix.Itimerval{}
	disarmErr := unix.Setitimer(unix.ITIMER_PROF, &zero, nil)

	signal.Stop(s.sigCh)
	close(s.sigCh)
	<-s.done

	if disarmErr != nil {
		return fmt.Errorf("%w: disarm itimer: %v", UnregisterError, disarmErr)
	}
	return nil
}
