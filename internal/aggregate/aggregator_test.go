package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmprof/wasmprof/internal/procstate"
	"github.com/wasmprof/wasmprof/internal/vmapi"
	"github.com/wasmprof/wasmprof/internal/vmapi/vmapitest"
	"github.com/wasmprof/wasmprof/internal/weight"
)

func TestAggregateInternsFramesAndDropsEmptyStacks(t *testing.T) {
	raw := []procstate.RawSample{
		{Backtrace: vmapitest.NewBacktrace("fib", "main"), Weight: weight.FromUint64(5)},
		{Backtrace: vmapitest.NewBacktrace("fib", "fib", "main"), Weight: weight.FromUint64(3)},
		{Backtrace: vmapitest.NewBacktrace(), Weight: weight.FromUint64(100)}, // empty: dropped
	}

	data := Aggregate(raw, vmapi.Nanoseconds)

	require.Len(t, data.Samples, 2)
	require.Len(t, data.Weights, 2)
	require.ElementsMatch(t, []string{"fib", "main"}, data.Frames)

	// Same leaf-first orientation preserved internally.
	fibIdx := indexOf(t, data.Frames, "fib")
	mainIdx := indexOf(t, data.Frames, "main")
	require.Equal(t, []int{fibIdx, mainIdx}, data.Samples[0])
	require.Equal(t, []int{fibIdx, fibIdx, mainIdx}, data.Samples[1])

	for _, sample := range data.Samples {
		for _, idx := range sample {
			require.GreaterOrEqual(t, idx, 0)
			require.Less(t, idx, len(data.Frames))
		}
	}
}

func TestAggregateMergesCollidingNamesAfterDemangling(t *testing.T) {
	raw := []procstate.RawSample{
		{Backtrace: vmapitest.NewBacktrace("plainname"), Weight: weight.FromUint64(1)},
		{Backtrace: vmapitest.NewBacktrace("plainname"), Weight: weight.FromUint64(1)},
	}

	data := Aggregate(raw, vmapi.Nanoseconds)

	require.Len(t, data.Frames, 1, "identical names must intern to one frame")
}

func TestAggregateUnknownFrameName(t *testing.T) {
	raw := []procstate.RawSample{
		{Backtrace: vmapitest.NewBacktrace(""), Weight: weight.FromUint64(1)},
	}

	data := Aggregate(raw, vmapi.Nanoseconds)

	require.Equal(t, []string{"<unknown>"}, data.Frames)
}

func indexOf(t *testing.T, xs []string, v string) int {
	t.Helper()
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	t.Fatalf("%q not found in %v", v, xs)
	return -1
}
