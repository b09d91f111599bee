package collapsed

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/wasmprof/wasmprof/internal/weight"
)

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return scanner
}

// cutLast splits s on the last occurrence of sep, mirroring strings.Cut but
// anchored from the end — collapsed-stack frame names may themselves
// contain arbitrary characters (demangled C++ signatures routinely contain
// spaces), so the weight is recovered from the tail, not the head.
func cutLast(s string, sep byte) (before, after string, ok bool) {
	i := strings.LastIndexByte(s, sep)
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

func parseWeight(s string) (weight.Value, error) {
	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return weight.Value{}, fmt.Errorf("not a decimal integer: %q", s)
	}
	if i.Sign() < 0 {
		return weight.Value{}, fmt.Errorf("negative weight: %q", s)
	}

	bytes := i.Bytes()
	if len(bytes) > 16 {
		return weight.Value{}, fmt.Errorf("weight exceeds 128 bits: %q", s)
	}

	var padded [16]byte
	copy(padded[16-len(bytes):], bytes)

	hi := uint64(0)
	lo := uint64(0)
	for _, b := range padded[:8] {
		hi = hi<<8 | uint64(b)
	}
	for _, b := range padded[8:] {
		lo = lo<<8 | uint64(b)
	}

	return weight.Value{Lo: lo, Hi: hi}, nil
}
