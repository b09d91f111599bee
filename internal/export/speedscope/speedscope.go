// Package speedscope implements the Speedscope evented-profile JSON
// exporter: https://www.speedscope.app/file-format-schema.json. It emits
// the "evented" profile type rather than "sampled" for finer-grained
// flame-graph fidelity; the tradeoff is recorded in DESIGN.md.
package speedscope

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/wasmprof/wasmprof/internal/aggregate"
	"github.com/wasmprof/wasmprof/internal/vmapi"
)

// ErrSerialization wraps JSON encoding failures in WriteJSON.
var ErrSerialization = errors.New("speedscope: serialization failed")

// Schema is the fixed $schema value Speedscope files must carry.
const Schema = "https://www.speedscope.app/file-format-schema.json"

// Exporter identifies wasmprof as the file's exporter field.
const Exporter = "wasmprof"

// EventType is the Speedscope event discriminator: "O" (open) or "C"
// (close).
type EventType string

const (
	EventOpen  EventType = "O"
	EventClose EventType = "C"
)

// ProfileType is always "evented".
const ProfileType = "evented"

// Frame is one entry in the shared frame table.
type Frame struct {
	Name         string  `json:"name"`
	File         string  `json:"file,omitempty"`
	Line         *int64  `json:"line,omitempty"`
	Col          *int64  `json:"col,omitempty"`
	Module       string  `json:"module,omitempty"`
	FuncIndex    *int64  `json:"func_index,omitempty"`
	FuncOffset   *int64  `json:"func_offset,omitempty"`
	ModuleOffset *int64  `json:"module_offset,omitempty"`
}

// Event is one open/close event in the evented profile.
type Event struct {
	Type  EventType `json:"type"`
	At    float64   `json:"at"`
	Frame int       `json:"frame"`
}

// Profile is the single evented profile Document carries.
type Profile struct {
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	Unit       string  `json:"unit"`
	StartValue float64 `json:"startValue"`
	EndValue   float64 `json:"endValue"`
	Events     []Event `json:"events"`
}

// Shared carries the frame table referenced by index from Profile.Events.
type Shared struct {
	Frames []Frame `json:"frames"`
}

// Document is the top-level Speedscope file.
type Document struct {
	Schema             string    `json:"$schema"`
	Exporter           string    `json:"exporter"`
	ActiveProfileIndex int       `json:"activeProfileIndex"`
	Name               string    `json:"name,omitempty"`
	Shared             Shared    `json:"shared"`
	Profiles           []Profile `json:"profiles"`
}

// Build converts aggregated profile data into a Speedscope evented
// document: for each sample, open every frame from root to leaf at the
// current cumulative timestamp, advance the timestamp by the sample's
// weight, then close every frame from leaf to root at the new timestamp.
func Build(data *aggregate.ProfileData, name string) *Document {
	frames := make([]Frame, len(data.Frames))
	for i, n := range data.Frames {
		frames[i] = Frame{Name: n}
		if i < len(data.FrameInfo) {
			applyFrameInfo(&frames[i], data.FrameInfo[i])
		}
	}

	var events []Event
	var cumulative float64
	var end float64

	for i, sample := range data.Samples {
		var w float64
		if i < len(data.Weights) {
			w = data.Weights[i].Float64()
		}

		// Backtraces are stored leaf-first; root-to-leaf open order is the
		// reverse of that.
		for pos := len(sample) - 1; pos >= 0; pos-- {
			events = append(events, Event{Type: EventOpen, At: cumulative, Frame: sample[pos]})
		}

		cumulative += w

		for pos := 0; pos < len(sample); pos++ {
			events = append(events, Event{Type: EventClose, At: cumulative, Frame: sample[pos]})
		}

		end = cumulative
	}

	unit := "nanoseconds"
	if data.Unit == vmapi.Fuel {
		unit = "fuel"
	}

	doc := &Document{
		Schema:             Schema,
		Exporter:           Exporter,
		ActiveProfileIndex: 0,
		Name:               name,
		Shared:             Shared{Frames: frames},
		Profiles: []Profile{{
			Type:       ProfileType,
			Name:       name,
			Unit:       unit,
			StartValue: 0,
			EndValue:   end,
			Events:     events,
		}},
	}

	return doc
}

func applyFrameInfo(f *Frame, info vmapi.Frame) {
	f.Module = info.Module
	if info.HasLine {
		f.File = info.File
		line := info.Line
		col := info.Column
		f.Line = &line
		f.Col = &col
	}
	if info.HasFuncInfo {
		idx := info.FuncIndex
		f.FuncIndex = &idx
		off := info.FuncOffset
		f.FuncOffset = &off
		modOff := info.ModuleOffset
		f.ModuleOffset = &modOff
	}
}

// WriteJSON serializes the document. Encoding failures are wrapped in
// ErrSerialization.
func (d *Document) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return nil
}
