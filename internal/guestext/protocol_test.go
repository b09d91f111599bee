package guestext

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type fakeMemory struct {
	data []byte
}

func (m *fakeMemory) Read(offset, length uint32) ([]byte, error) {
	if int(offset+length) > len(m.data) {
		return nil, errors.New("out of bounds")
	}
	return m.data[offset : offset+length], nil
}

type fakeExtension struct {
	frames    []string
	destroyed bool
	createErr error
}

func (f *fakeExtension) Create(ctx context.Context) (uint32, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	return 42, nil
}

func (f *fakeExtension) Get(ctx context.Context, handle uint32) (uint32, error) {
	return 0, nil
}

func (f *fakeExtension) Len(ctx context.Context, handle uint32) (uint32, error) {
	encoded, _ := msgpack.Marshal(f.frames)
	return uint32(len(encoded)), nil
}

func (f *fakeExtension) Destroy(ctx context.Context, handle uint32) error {
	f.destroyed = true
	return nil
}

func TestCaptureFramesRoundTrips(t *testing.T) {
	frames := []string{"hello", "world"}
	encoded, err := msgpack.Marshal(frames)
	require.NoError(t, err)

	ext := &fakeExtension{frames: frames}
	mem := &fakeMemory{data: encoded}

	got, err := CaptureFrames(context.Background(), ext, mem)
	require.NoError(t, err)
	require.Equal(t, frames, got)
	require.True(t, ext.destroyed, "destroy must be called even on success")
}

func TestCaptureFramesDestroysOnReadFailure(t *testing.T) {
	ext := &fakeExtension{frames: []string{"a"}}
	mem := &fakeMemory{data: []byte{}}

	_, err := CaptureFrames(context.Background(), ext, mem)
	require.Error(t, err)
	require.True(t, ext.destroyed)
}

func TestCaptureFramesPropagatesCreateError(t *testing.T) {
	ext := &fakeExtension{createErr: errors.New("guest trapped")}
	mem := &fakeMemory{}

	_, err := CaptureFrames(context.Background(), ext, mem)
	require.Error(t, err)
	require.False(t, ext.destroyed, "destroy is never called if create failed")
}

func TestDecodeFrameListRejectsMalformedInput(t *testing.T) {
	_, err := DecodeFrameList([]byte{0xc1})
	require.Error(t, err)
}
