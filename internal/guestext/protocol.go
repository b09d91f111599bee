// Package guestext implements an optional guest-runtime extension: a
// protocol for profiling code running inside a language runtime hosted on
// WebAssembly, spoken over four guest-exported functions per runtime
// name R:
//
//	__R_wasmprof_stacks_create()      -> handle
//	__R_wasmprof_stacks_get(handle)   -> ptr
//	__R_wasmprof_stacks_len(handle)   -> len
//	__R_wasmprof_stacks_destroy(handle)
//
// On each sample the host calls create, reads len bytes from the guest's
// linear memory at ptr, decodes them as a MessagePack-encoded list of
// frame-name strings, calls destroy, and records the result as a parallel
// "runtime" backtrace alongside the native one (procstate.RawSample.Runtime).
// Not wired into the mandatory collection loop; RawSample reserves the slot
// so the core never needs to change shape to support it.
package guestext

import (
	"context"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// GuestMemory is the minimal linear-memory access a RuntimeExtension needs.
// A real binding implements this over its VM's memory export (e.g.
// wasmtime's Memory.UnsafeData).
type GuestMemory interface {
	// Read returns a view of length bytes starting at offset. Implementations
	// may return a slice aliasing the guest's memory; callers never retain it
	// past the current sample.
	Read(offset, length uint32) ([]byte, error)
}

// RuntimeExtension is the guest-side collaborator for one runtime name R,
// mirroring the four __R_wasmprof_stacks_* exports.
type RuntimeExtension interface {
	// Create invokes __R_wasmprof_stacks_create, returning the opaque handle.
	Create(ctx context.Context) (uint32, error)
	// Get invokes __R_wasmprof_stacks_get(handle), returning the guest
	// linear-memory offset of the encoded frame list.
	Get(ctx context.Context, handle uint32) (uint32, error)
	// Len invokes __R_wasmprof_stacks_len(handle), returning the byte length
	// of the encoded frame list at the offset Get returned.
	Len(ctx context.Context, handle uint32) (uint32, error)
	// Destroy invokes __R_wasmprof_stacks_destroy(handle), releasing the
	// guest-side buffer.
	Destroy(ctx context.Context, handle uint32) error
}

// CaptureFrames runs the create/get/len/destroy sequence against ext and mem,
// decoding the result as a leaf-first list of frame names. Destroy is called
// even when decoding fails, so the guest-side buffer is never leaked.
func CaptureFrames(ctx context.Context, ext RuntimeExtension, mem GuestMemory) ([]string, error) {
	handle, err := ext.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("guestext: create: %w", err)
	}
	defer func() { _ = ext.Destroy(ctx, handle) }()

	ptr, err := ext.Get(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("guestext: get: %w", err)
	}
	length, err := ext.Len(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("guestext: len: %w", err)
	}

	raw, err := mem.Read(ptr, length)
	if err != nil {
		return nil, fmt.Errorf("guestext: read guest memory: %w", err)
	}

	return DecodeFrameList(raw)
}

// DecodeFrameList decodes a MessagePack-encoded list of frame-name
// strings, a compact self-describing binary encoding.
func DecodeFrameList(raw []byte) ([]string, error) {
	var frames []string
	if err := msgpack.Unmarshal(raw, &frames); err != nil {
		return nil, fmt.Errorf("guestext: decode frame list: %w", err)
	}
	return frames, nil
}
