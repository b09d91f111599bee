// Package collector implements the sample collector installed as a VM's
// epoch-deadline callback: on every invocation it computes the weight
// delta since the previous sample, captures a backtrace, appends the pair
// to the shared sample buffer, and re-arms the deadline.
package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/wasmprof/wasmprof/internal/procstate"
	"github.com/wasmprof/wasmprof/internal/tick"
	"github.com/wasmprof/wasmprof/internal/vmapi"
	"github.com/wasmprof/wasmprof/internal/weight"
)

// ErrFuelUnavailable is the fatal session error raised when fuel mode was
// configured but a fuel read failed after the initial capture, meaning the
// store's fuel accounting disappeared mid-session.
var ErrFuelUnavailable = errors.New("collector: fuel accounting unavailable after session start")

// Collector installs itself as a store's epoch-deadline callback and
// accumulates samples into the process-wide sample buffer.
type Collector struct {
	store  vmapi.EpochStore
	unit   vmapi.WeightUnit
	ticker tick.Source
	state  *procstate.State

	initialFuel uint64
}

// New constructs a Collector for the given store, weight unit, and tick
// source. If unit is vmapi.Fuel, initialFuel is captured immediately; the
// caller must have already verified store.FuelConfigured().
func New(store vmapi.EpochStore, unit vmapi.WeightUnit, ticker tick.Source, state *procstate.State) (*Collector, error) {
	c := &Collector{store: store, unit: unit, ticker: ticker, state: state}

	if unit == vmapi.Fuel {
		fuel, err := store.FuelConsumed(context.Background())
		if err != nil {
			return nil, fmt.Errorf("collector: capture initial fuel: %w", err)
		}
		c.initialFuel = fuel
	}

	return c, nil
}

// Install arms the store's epoch deadline and installs the callback. Call
// once, immediately before invoking the profiled closure.
func (c *Collector) Install() {
	c.store.SetEpochDeadline(1)
	c.store.SetEpochDeadlineCallback(c.onDeadline)
}

// onDeadline runs the per-invocation sampling algorithm: compute the
// weight delta, capture a backtrace, append the sample, and re-arm.
func (c *Collector) onDeadline(ctx context.Context) (uint64, error) {
	current, err := c.currentAbsoluteWeight(ctx)
	if err != nil {
		return 0, err
	}

	delta := c.state.AbsoluteWeight(current)

	bt := c.store.CaptureBacktrace(ctx)

	c.state.Append(procstate.RawSample{
		Backtrace: bt,
		Weight:    delta,
	})

	// Re-arm for 1 more epoch tick: the sampling cadence is driven entirely
	// by the tick source, not by the epoch interval itself.
	return 1, nil
}

func (c *Collector) currentAbsoluteWeight(ctx context.Context) (weight.Value, error) {
	switch c.unit {
	case vmapi.Fuel:
		fuel, err := c.store.FuelConsumed(ctx)
		if err != nil {
			return weight.Value{}, fmt.Errorf("%w: %v", ErrFuelUnavailable, err)
		}
		consumed := fuel - c.initialFuel
		return weight.FromUint64(consumed), nil
	default:
		return weight.FromUint64(uint64(c.ticker.Elapsed().Nanoseconds())), nil
	}
}
