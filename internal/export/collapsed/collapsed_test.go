package collapsed

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmprof/wasmprof/internal/aggregate"
	"github.com/wasmprof/wasmprof/internal/weight"
)

// TestWriteSingleSample checks a synthetic sample [leaf_idx, mid_idx,
// root_idx] with weight 7 over names L, M, R produces exactly "R;M;L 7\n".
func TestWriteSingleSample(t *testing.T) {
	data := &aggregate.ProfileData{
		Frames:  []string{"L", "M", "R"},
		Samples: [][]int{{0, 1, 2}}, // leaf-first: L (leaf), M, R (root)
		Weights: []weight.Value{weight.FromUint64(7)},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, data))
	require.Equal(t, "R;M;L 7\n", buf.String())
}

func TestWriteDoesNotMergeEqualStacks(t *testing.T) {
	data := &aggregate.ProfileData{
		Frames:  []string{"leaf", "root"},
		Samples: [][]int{{0, 1}, {0, 1}},
		Weights: []weight.Value{weight.FromUint64(1), weight.FromUint64(1)},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, data))
	require.Equal(t, "root;leaf 1\nroot;leaf 1\n", buf.String())
}

func TestRoundTrip(t *testing.T) {
	data := &aggregate.ProfileData{
		Frames:  []string{"fib", "fib2", "main"},
		Samples: [][]int{{0, 2}, {1, 0, 2}},
		Weights: []weight.Value{weight.FromUint64(42), weight.FromUint64(1000)},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, data))

	parsed, err := Parse(&buf)
	require.NoError(t, err)

	var reEncoded bytes.Buffer
	require.NoError(t, Write(&reEncoded, parsed))

	var original bytes.Buffer
	require.NoError(t, Write(&original, data))

	require.Equal(t, original.String(), reEncoded.String())
}

func TestParseMalformedLine(t *testing.T) {
	_, err := Parse(bytes.NewBufferString("not-a-valid-line-without-weight\n"))
	require.Error(t, err)
}
