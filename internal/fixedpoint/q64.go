// Package fixedpoint implements a Q64.64 binary fixed-point scalar used for
// reserve ratios and square roots of reserve products. The raw magnitude is
// bounded to 128 bits; multiplication, division and square roots widen to 256
// bits internally and truncate back down. No floating point anywhere.
package fixedpoint

import (
	"github.com/holiman/uint256"
)

const (
	// FractionalBits is the position of the binary point.
	FractionalBits = 64
	// RawBits is the width of the backing magnitude.
	RawBits = 128
)

var (
	q64One     = new(uint256.Int).Lsh(uint256.NewInt(1), FractionalBits)
	q64Half    = new(uint256.Int).Lsh(uint256.NewInt(1), FractionalBits-1)
	q64FracMax = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), FractionalBits), 1)
	q64RawMax  = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), RawBits), 1)
)

// Q64 is an unsigned Q64.64 fixed-point value. The zero value is 0.
// Values are immutable; every operation returns a new Q64.
type Q64 struct {
	raw uint256.Int
}

// Zero returns the zero value.
func Zero() Q64 {
	return Q64{}
}

// One returns 1.0.
func One() Q64 {
	var q Q64
	q.raw.Set(q64One)
	return q
}

// FromUint64 converts an integer token amount to fixed point.
func FromUint64(v uint64) Q64 {
	var q Q64
	q.raw.SetUint64(v)
	q.raw.Lsh(&q.raw, FractionalBits)
	return q
}

// FromRawBits reconstructs a value from its persisted 128-bit raw magnitude.
func FromRawBits(hi, lo uint64) Q64 {
	var q Q64
	q.raw[0] = lo
	q.raw[1] = hi
	return q
}

// RawBits returns the 128-bit raw magnitude as (hi, lo) words.
func (q Q64) RawBits() (hi, lo uint64) {
	return q.raw[1], q.raw[0]
}

// IsZero reports whether the value is exactly zero.
func (q Q64) IsZero() bool {
	return q.raw.IsZero()
}

// IsOne reports whether the value is exactly 1.0.
func (q Q64) IsOne() bool {
	return q.raw.Eq(q64One)
}

// Cmp returns -1, 0 or 1 comparing q against other.
func (q Q64) Cmp(other Q64) int {
	return q.raw.Cmp(&other.raw)
}

// Less reports q < other.
func (q Q64) Less(other Q64) bool {
	return q.raw.Lt(&other.raw)
}

// Equal reports q == other.
func (q Q64) Equal(other Q64) bool {
	return q.raw.Eq(&other.raw)
}

// Uint64 truncates to an integer amount, rounding down.
// The integer part always fits: raw < 2^128 implies raw>>64 < 2^64.
func (q Q64) Uint64() uint64 {
	var t uint256.Int
	t.Rsh(&q.raw, FractionalBits)
	return t.Uint64()
}

// Uint64Round converts to an integer amount rounding half up. ok is false
// when rounding up overflows uint64.
func (q Q64) Uint64Round() (uint64, bool) {
	var t uint256.Int
	t.Add(&q.raw, q64Half)
	if t.BitLen() > RawBits {
		return 0, false
	}
	t.Rsh(&t, FractionalBits)
	return t.Uint64(), true
}

// Fraction returns the fractional bits of the value.
func (q Q64) Fraction() uint64 {
	var t uint256.Int
	t.And(&q.raw, q64FracMax)
	return t.Uint64()
}

// AbsDiff returns |q - other|.
func (q Q64) AbsDiff(other Q64) Q64 {
	var out Q64
	if q.raw.Lt(&other.raw) {
		out.raw.Sub(&other.raw, &q.raw)
	} else {
		out.raw.Sub(&q.raw, &other.raw)
	}
	return out
}

// CheckedAdd returns q + other, or ok=false on 128-bit overflow.
func (q Q64) CheckedAdd(other Q64) (Q64, bool) {
	var out Q64
	out.raw.Add(&q.raw, &other.raw)
	if out.raw.BitLen() > RawBits {
		return Zero(), false
	}
	return out, true
}

// CheckedSub returns q - other, or ok=false on underflow.
func (q Q64) CheckedSub(other Q64) (Q64, bool) {
	if q.raw.Lt(&other.raw) {
		return Zero(), false
	}
	var out Q64
	out.raw.Sub(&q.raw, &other.raw)
	return out, true
}

// CheckedMul returns q * other, or ok=false on overflow. The 256-bit
// intermediate product is exact before truncating back to Q64.64.
func (q Q64) CheckedMul(other Q64) (Q64, bool) {
	var out Q64
	out.raw.Mul(&q.raw, &other.raw)
	out.raw.Rsh(&out.raw, FractionalBits)
	if out.raw.BitLen() > RawBits {
		return Zero(), false
	}
	return out, true
}

// SaturatingMul returns q * other, clamped to the maximum representable
// value on overflow.
func (q Q64) SaturatingMul(other Q64) Q64 {
	var out Q64
	out.raw.Mul(&q.raw, &other.raw)
	out.raw.Rsh(&out.raw, FractionalBits)
	if out.raw.BitLen() > RawBits {
		out.raw.Set(q64RawMax)
	}
	return out
}

// CheckedDiv returns q / other, or ok=false on division by zero or overflow.
func (q Q64) CheckedDiv(other Q64) (Q64, bool) {
	if other.raw.IsZero() {
		return Zero(), false
	}
	var num uint256.Int
	num.Lsh(&q.raw, FractionalBits)
	var out Q64
	out.raw.Div(&num, &other.raw)
	if out.raw.BitLen() > RawBits {
		return Zero(), false
	}
	return out, true
}

// MulUint64 returns floor(q * v) as an integer amount, or ok=false when the
// result does not fit in uint64.
func (q Q64) MulUint64(v uint64) (uint64, bool) {
	var prod uint256.Int
	prod.SetUint64(v)
	prod.Mul(&prod, &q.raw)
	prod.Rsh(&prod, FractionalBits)
	if !prod.IsUint64() {
		return 0, false
	}
	return prod.Uint64(), true
}

// MulUint64Round is MulUint64 rounding half up instead of truncating.
func (q Q64) MulUint64Round(v uint64) (uint64, bool) {
	var prod uint256.Int
	prod.SetUint64(v)
	prod.Mul(&prod, &q.raw)
	prod.Add(&prod, q64Half)
	prod.Rsh(&prod, FractionalBits)
	if !prod.IsUint64() {
		return 0, false
	}
	return prod.Uint64(), true
}

// SquareUint128 returns floor(q^2) as a 128-bit integer. The square of a
// 128-bit raw magnitude fits 256 bits exactly, so no precision is lost
// before the final truncation.
func (q Q64) SquareUint128() *uint256.Int {
	out := new(uint256.Int).Mul(&q.raw, &q.raw)
	out.Rsh(out, 2*FractionalBits)
	return out
}

// CheckedSquareUint64 returns floor(q^2) when it fits in uint64.
func (q Q64) CheckedSquareUint64() (uint64, bool) {
	sq := q.SquareUint128()
	if !sq.IsUint64() {
		return 0, false
	}
	return sq.Uint64(), true
}

// Sqrt returns the square root of q, truncated to Q64.64.
func (q Q64) Sqrt() Q64 {
	var scaled uint256.Int
	scaled.Lsh(&q.raw, FractionalBits)
	var out Q64
	out.raw.Set(isqrt(&scaled))
	return out
}

// SqrtUint64 returns the square root of a plain integer amount.
func SqrtUint64(v uint64) Q64 {
	var x uint256.Int
	x.SetUint64(v)
	return sqrtFromU256(&x)
}

// SqrtUint128 returns the square root of a 128-bit integer, typically a
// product of two uint64 reserves. ok is false when x exceeds 128 bits.
func SqrtUint128(x *uint256.Int) (Q64, bool) {
	if x.BitLen() > RawBits {
		return Zero(), false
	}
	return sqrtFromU256(x), true
}

func sqrtFromU256(x *uint256.Int) Q64 {
	var scaled uint256.Int
	scaled.Lsh(x, 2*FractionalBits)
	var out Q64
	out.raw.Set(isqrt(&scaled))
	return out
}

// isqrt computes the integer square root of target by bisection: keep a
// low/high bracket and narrow until high - low <= 1. mid^2 exceeding 256
// bits counts as "too big", which mirrors saturating behaviour.
func isqrt(target *uint256.Int) *uint256.Int {
	if target.LtUint64(2) {
		return new(uint256.Int).Set(target)
	}

	low := uint256.NewInt(1)
	high := new(uint256.Int).Set(target)
	mid := new(uint256.Int)
	sq := new(uint256.Int)
	diff := new(uint256.Int)

	for {
		diff.Sub(high, low)
		if diff.LtUint64(2) {
			break
		}
		mid.Add(low, high)
		mid.Rsh(mid, 1)
		_, overflow := sq.MulOverflow(mid, mid)
		if !overflow && !sq.Gt(target) {
			low.Set(mid)
		} else {
			high.Set(mid)
		}
	}

	_, overflow := sq.MulOverflow(high, high)
	if !overflow && !sq.Gt(target) {
		return high
	}
	return low
}
