// Package aggregate implements the frame-interning aggregation stage: it
// turns the raw (backtrace, weight) sample list the collector produced
// into a compact indexed ProfileData value ready for export.
package aggregate

import (
	"github.com/wasmprof/wasmprof/internal/procstate"
	"github.com/wasmprof/wasmprof/internal/vmapi"
	"github.com/wasmprof/wasmprof/internal/weight"
)

// ProfileData is the immutable, indexed intermediate form: an ordered
// frame-name table, a parallel sequence of samples (each a sequence of
// frame indices, leaf-first), and a parallel sequence of weights.
type ProfileData struct {
	Frames  []string
	Samples [][]int
	Weights []weight.Value
	Unit    vmapi.WeightUnit

	// FrameInfo carries the best-effort source-location metadata for each
	// entry in Frames, parallel to it. Populated from whatever the VM's
	// backtrace frames supplied; zero value (HasLine == false) otherwise.
	FrameInfo []vmapi.Frame

	// Runtime holds, parallel to Samples, the optional guest-runtime
	// backtrace captured through the extension in internal/guestext. Nil
	// entries mean no runtime backtrace was captured for that sample.
	Runtime [][]string
}

// Aggregate turns raw samples into indexed ProfileData: for every
// non-empty backtrace, iterate its frames leaf-first, demangle and intern
// each frame name, and build the parallel samples/weights/runtime
// sequences. Samples with zero frames are dropped.
func Aggregate(raw []procstate.RawSample, unit vmapi.WeightUnit) *ProfileData {
	data := &ProfileData{Unit: unit}

	nameToIndex := make(map[string]int)

	for _, s := range raw {
		frames := s.Backtrace.Frames()
		if len(frames) == 0 {
			continue
		}

		sample := make([]int, 0, len(frames))
		for _, f := range frames {
			idx := internFrame(data, nameToIndex, f)
			sample = append(sample, idx)
		}

		data.Samples = append(data.Samples, sample)
		data.Weights = append(data.Weights, s.Weight)
		data.Runtime = append(data.Runtime, s.Runtime)
	}

	return data
}

func internFrame(data *ProfileData, nameToIndex map[string]int, f vmapi.Frame) int {
	name := displayName(f)

	if idx, ok := nameToIndex[name]; ok {
		return idx
	}

	idx := len(data.Frames)
	nameToIndex[name] = idx
	data.Frames = append(data.Frames, name)

	info := f
	info.Name = name
	data.FrameInfo = append(data.FrameInfo, info)

	return idx
}

// displayName computes a frame's display name: the guest function name
// (or "<unknown>"), demangled. Frame-name collisions after demangling are
// the intended merge behavior for aggregating overloaded instantiations.
func displayName(f vmapi.Frame) string {
	name := f.Name
	if name == "" {
		return "<unknown>"
	}
	return Demangle(name)
}
