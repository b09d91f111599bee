// Package pprofprofile renders a ProfileData as a pprof-compatible
// *profile.Profile, the third interchange format this module supports
// alongside collapsed-stack text and Speedscope JSON. google/pprof is the
// format the retrieval pack's wazero-based profilers (dispatchrun/wzprof,
// stealthrocket/wzprof) emit, so a wasmprof trace can feed the same
// downstream tooling (go tool pprof, pprof.me, Flamegraph viewers) those
// profilers target.
package pprofprofile

import (
	"io"

	"github.com/google/pprof/profile"

	"github.com/wasmprof/wasmprof/internal/aggregate"
	"github.com/wasmprof/wasmprof/internal/vmapi"
)

// Build converts data into a pprof Profile. Each interned frame name becomes
// one Location/Function pair (wasmprof has no line-level granularity beyond
// what vmapi.Frame optionally supplies); each retained sample becomes one
// pprof Sample whose Location list keeps the stored leaf-first order
// unchanged (pprof's own convention is also leaf-first), with a single
// value column carrying the sample's weight.
func Build(data *aggregate.ProfileData) *profile.Profile {
	var valueType *profile.ValueType
	if data.Unit == vmapi.Fuel {
		valueType = &profile.ValueType{Type: "fuel", Unit: "fuel"}
	} else {
		valueType = &profile.ValueType{Type: "wall-time", Unit: "nanoseconds"}
	}

	p := &profile.Profile{
		SampleType: []*profile.ValueType{valueType},
		PeriodType: valueType,
		Period:     1,
	}

	functions := make([]*profile.Function, len(data.Frames))
	locations := make([]*profile.Location, len(data.Frames))
	for i, name := range data.Frames {
		fn := &profile.Function{ID: uint64(i + 1), Name: name, SystemName: name}
		functions[i] = fn
		locations[i] = &profile.Location{
			ID:   uint64(i + 1),
			Line: []profile.Line{{Function: fn}},
		}
	}
	p.Function = functions
	p.Location = locations

	p.Sample = make([]*profile.Sample, 0, len(data.Samples))
	for i, stack := range data.Samples {
		locs := make([]*profile.Location, len(stack))
		for j, frameIdx := range stack {
			locs[j] = locations[frameIdx]
		}
		weight := int64(data.Weights[i].Lo)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: locs,
			Value:    []int64{weight},
		})
	}

	return p
}

// Write serializes data as a gzip-compressed pprof protobuf, the format
// `go tool pprof` reads directly.
func Write(w io.Writer, data *aggregate.ProfileData) error {
	return Build(data).Write(w)
}
