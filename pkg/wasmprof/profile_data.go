package wasmprof

import (
	"bytes"
	"io"

	"github.com/wasmprof/wasmprof/internal/aggregate"
	"github.com/wasmprof/wasmprof/internal/export/collapsed"
	"github.com/wasmprof/wasmprof/internal/export/pprofprofile"
	"github.com/wasmprof/wasmprof/internal/export/speedscope"
	"github.com/wasmprof/wasmprof/internal/vmapi"
)

// WeightUnit selects how samples are weighed: Nanoseconds (wall-clock) or
// Fuel (VM fuel consumed).
type WeightUnit = vmapi.WeightUnit

// Nanoseconds weighs samples by wall-clock time.
const Nanoseconds = vmapi.Nanoseconds

// Fuel weighs samples by VM fuel consumed.
const Fuel = vmapi.Fuel

// ProfileData is the immutable, frame-interned profile produced by a
// Session's Profile call. It is the handoff point between the sampling
// engine and its exporters.
type ProfileData struct {
	inner *aggregate.ProfileData
}

// FrameCount returns the number of distinct frame names interned.
func (d *ProfileData) FrameCount() int {
	return len(d.inner.Frames)
}

// SampleCount returns the number of non-empty-stack samples retained.
func (d *ProfileData) SampleCount() int {
	return len(d.inner.Samples)
}

// IntoCollapsedStacks renders the profile as Brendan Gregg's collapsed-stack
// text format.
func (d *ProfileData) IntoCollapsedStacks() *CollapsedOutput {
	return &CollapsedOutput{data: d.inner}
}

// ToSpeedscope renders the profile as a Speedscope evented document. name
// is optional; pass "" to omit it.
func (d *ProfileData) ToSpeedscope(name string) *SpeedscopeDoc {
	return &SpeedscopeDoc{doc: speedscope.Build(d.inner, name)}
}

// CollapsedOutput is the byte-serializable collapsed-stack rendering of a
// ProfileData.
type CollapsedOutput struct {
	data *aggregate.ProfileData
}

// WriteTo writes the collapsed-stack text to w.
func (c *CollapsedOutput) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if err := collapsed.Write(&buf, c.data); err != nil {
		return 0, err
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// String returns the collapsed-stack text.
func (c *CollapsedOutput) String() string {
	var buf bytes.Buffer
	_, _ = c.WriteTo(&buf)
	return buf.String()
}

// ToPprof renders the profile as a pprof-compatible document, for
// consumption by `go tool pprof` and the same ecosystem viewers the
// wazero-based profilers in this module's lineage target.
func (d *ProfileData) ToPprof() *PprofOutput {
	return &PprofOutput{data: d.inner}
}

// SpeedscopeDoc is the JSON-serializable Speedscope document.
type SpeedscopeDoc struct {
	doc *speedscope.Document
}

// ToJSON serializes the document to bytes. Wraps speedscope.ErrSerialization
// on encoding failure.
func (s *SpeedscopeDoc) ToJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.doc.WriteJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes the serialized document directly to w.
func (s *SpeedscopeDoc) WriteJSON(w io.Writer) error {
	return s.doc.WriteJSON(w)
}

// PprofOutput is the gzip-compressed pprof protobuf rendering of a
// ProfileData.
type PprofOutput struct {
	data *aggregate.ProfileData
}

// WriteTo writes the serialized pprof profile to w.
func (p *PprofOutput) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if err := pprofprofile.Write(&buf, p.data); err != nil {
		return 0, err
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}
