// Package weight implements a 128-bit unsigned weight value for sample
// deltas (wall-time nanoseconds or fuel can both plausibly exceed 64 bits
// over a long-running profile). Represented as two uint64 halves with
// carry/borrow-aware arithmetic rather than a bare uint64.
package weight

import (
	"math/big"
	"math/bits"
)

// Value is a 128-bit unsigned integer.
type Value struct {
	Lo, Hi uint64
}

// FromUint64 constructs a Value from a plain 64-bit magnitude.
func FromUint64(v uint64) Value {
	return Value{Lo: v}
}

// Sub returns v - other, assuming v >= other (true for the monotonically
// non-decreasing absolute weight readings this package is used with).
func (v Value) Sub(other Value) Value {
	lo, borrow := bits.Sub64(v.Lo, other.Lo, 0)
	hi, _ := bits.Sub64(v.Hi, other.Hi, borrow)
	return Value{Lo: lo, Hi: hi}
}

// Add returns v + other.
func (v Value) Add(other Value) Value {
	lo, carry := bits.Add64(v.Lo, other.Lo, 0)
	hi, _ := bits.Add64(v.Hi, other.Hi, carry)
	return Value{Lo: lo, Hi: hi}
}

// IsZero reports whether the value is zero.
func (v Value) IsZero() bool {
	return v.Lo == 0 && v.Hi == 0
}

// BigInt converts the value to a *big.Int, for decimal formatting and
// arbitrary-precision arithmetic in exporters.
func (v Value) BigInt() *big.Int {
	i := new(big.Int).SetUint64(v.Hi)
	i.Lsh(i, 64)
	i.Or(i, new(big.Int).SetUint64(v.Lo))
	return i
}

// String returns the decimal representation, matching the collapsed-stack
// exporter's plain decimal, no unit suffix, format.
func (v Value) String() string {
	return v.BigInt().String()
}

// Float64 converts the value to the nearest float64 in its own unit (no
// unit conversion), for Speedscope's floating-point event timestamps.
func (v Value) Float64() float64 {
	f := new(big.Float).SetInt(v.BigInt())
	out, _ := f.Float64()
	return out
}
