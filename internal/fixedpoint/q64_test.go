package fixedpoint

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestConversionRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value uint64
	}{
		{name: "zero", value: 0},
		{name: "one", value: 1},
		{name: "typical reserve", value: 6_000_000},
		{name: "max uint64", value: 18_446_744_073_709_551_615},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := FromUint64(tt.value)
			if got := q.Uint64(); got != tt.value {
				t.Errorf("FromUint64(%d).Uint64() = %d", tt.value, got)
			}
			if got := q.Fraction(); got != 0 {
				t.Errorf("FromUint64(%d).Fraction() = %d, want 0", tt.value, got)
			}

			hi, lo := q.RawBits()
			if !FromRawBits(hi, lo).Equal(q) {
				t.Errorf("FromRawBits(RawBits()) does not round-trip for %d", tt.value)
			}
		})
	}
}

func TestCheckedAddSub(t *testing.T) {
	maxRaw := FromRawBits(^uint64(0), ^uint64(0))

	if _, ok := maxRaw.CheckedAdd(FromRawBits(0, 1)); ok {
		t.Error("CheckedAdd at the 128-bit ceiling must fail")
	}
	if _, ok := Zero().CheckedSub(FromRawBits(0, 1)); ok {
		t.Error("CheckedSub below zero must fail")
	}

	sum, ok := FromUint64(3).CheckedAdd(FromUint64(4))
	if !ok || sum.Uint64() != 7 {
		t.Errorf("3 + 4 = %d, ok=%v", sum.Uint64(), ok)
	}
	diff, ok := FromUint64(10).CheckedSub(FromUint64(4))
	if !ok || diff.Uint64() != 6 {
		t.Errorf("10 - 4 = %d, ok=%v", diff.Uint64(), ok)
	}
}

func TestCheckedMulDiv(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want uint64
	}{
		{name: "small", a: 3, b: 4, want: 12},
		{name: "by one", a: 123456, b: 1, want: 123456},
		{name: "reserve scale", a: 6_000_000, b: 1_500_000, want: 9_000_000_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prod, ok := FromUint64(tt.a).CheckedMul(FromUint64(tt.b))
			if !ok || prod.Uint64() != tt.want {
				t.Errorf("%d * %d = %d, ok=%v, want %d", tt.a, tt.b, prod.Uint64(), ok, tt.want)
			}
			back, ok := prod.CheckedDiv(FromUint64(tt.b))
			if !ok || !back.Equal(FromUint64(tt.a)) {
				t.Errorf("(%d*%d)/%d = %d, ok=%v", tt.a, tt.b, tt.b, back.Uint64(), ok)
			}
		})
	}

	// 2^64 * 2^64 overflows the 128-bit integer part.
	big := FromRawBits(^uint64(0), 0)
	if _, ok := big.CheckedMul(big); ok {
		t.Error("CheckedMul must fail on 128-bit overflow")
	}
	if _, ok := One().CheckedDiv(Zero()); ok {
		t.Error("CheckedDiv by zero must fail")
	}
}

func TestSaturatingMulClamps(t *testing.T) {
	big := FromRawBits(^uint64(0), 0)
	got := big.SaturatingMul(big)
	hi, lo := got.RawBits()
	if hi != ^uint64(0) || lo != ^uint64(0) {
		t.Errorf("SaturatingMul overflow = (%x, %x), want all ones", hi, lo)
	}

	exact := FromUint64(7).SaturatingMul(FromUint64(6))
	if exact.Uint64() != 42 {
		t.Errorf("7 * 6 = %d", exact.Uint64())
	}
}

func TestUint64Round(t *testing.T) {
	tests := []struct {
		name   string
		hi, lo uint64
		want   uint64
	}{
		{name: "exact integer", hi: 2, lo: 0, want: 2},
		{name: "just below half", hi: 2, lo: 1<<63 - 1, want: 2},
		{name: "exactly half rounds up", hi: 2, lo: 1 << 63, want: 3},
		{name: "just above half", hi: 2, lo: 1<<63 + 1, want: 3},
		{name: "fraction shy of one", hi: 1_999_999, lo: ^uint64(0), want: 2_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := FromRawBits(tt.hi, tt.lo)
			got, ok := q.Uint64Round()
			if !ok || got != tt.want {
				t.Errorf("Uint64Round() = %d, ok=%v, want %d", got, ok, tt.want)
			}
		})
	}

	// Rounding the 128-bit maximum up overflows the raw width.
	if _, ok := FromRawBits(^uint64(0), ^uint64(0)).Uint64Round(); ok {
		t.Error("Uint64Round at the raw maximum must fail")
	}
}

func TestMulUint64FloorAndRound(t *testing.T) {
	// 1/3 in Q64.64.
	third, ok := One().CheckedDiv(FromUint64(3))
	if !ok {
		t.Fatal("1/3 failed")
	}

	floor, ok := third.MulUint64(3_000_000)
	if !ok || floor != 999_999 {
		t.Errorf("floor(3e6 * 1/3) = %d, ok=%v, want 999999", floor, ok)
	}
	round, ok := third.MulUint64Round(3_000_000)
	if !ok || round != 1_000_000 {
		t.Errorf("round(3e6 * 1/3) = %d, ok=%v, want 1000000", round, ok)
	}

	// Overflow: 2^63 scaled by 4.
	if _, ok := FromUint64(4).MulUint64(1 << 63); ok {
		t.Error("MulUint64 must fail when the product exceeds uint64")
	}
}

func TestSqrtPerfectSquares(t *testing.T) {
	tests := []struct {
		name  string
		value uint64
		want  uint64
	}{
		{name: "zero", value: 0, want: 0},
		{name: "one", value: 1, want: 1},
		{name: "sixteen", value: 16, want: 4},
		{name: "launch supply", value: 160_000_000_000, want: 400_000},
		{name: "constant product", value: 9_000_000_000_000, want: 3_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SqrtUint64(tt.value)
			if got.Uint64() != tt.want || got.Fraction() != 0 {
				t.Errorf("sqrt(%d) = %d + frac %d, want exact %d",
					tt.value, got.Uint64(), got.Fraction(), tt.want)
			}
		})
	}
}

// TestSqrtFloorProperty checks root^2 <= scaled < (root + 1)^2 on the raw
// magnitudes, which pins the bisection to the floor of the true root.
func TestSqrtFloorProperty(t *testing.T) {
	values := []uint64{2, 3, 5, 5_500_000, 999_999_999_999, 1<<64 - 1}

	for _, v := range values {
		root := SqrtUint64(v)
		scaled := new(uint256.Int).Lsh(uint256.NewInt(v), 2*FractionalBits)

		sq := new(uint256.Int).Mul(&root.raw, &root.raw)
		if sq.Gt(scaled) {
			t.Errorf("sqrt(%d): root^2 exceeds the scaled input", v)
		}

		next := new(uint256.Int).AddUint64(&root.raw, 1)
		nextSq := new(uint256.Int).Mul(next, next)
		if !nextSq.Gt(scaled) {
			t.Errorf("sqrt(%d) is not the floor: (root+1)^2 still fits", v)
		}
	}
}

func TestSqrtUint128(t *testing.T) {
	// 6e6 * 1.5e6 reserves, the product needs more than 64 bits at larger
	// scales; here it verifies the exact root path.
	prod := new(uint256.Int).Mul(uint256.NewInt(6_000_000), uint256.NewInt(1_500_000))
	root, ok := SqrtUint128(prod)
	if !ok || root.Uint64() != 3_000_000 || root.Fraction() != 0 {
		t.Errorf("sqrt(9e12) = %d + frac %d, ok=%v", root.Uint64(), root.Fraction(), ok)
	}

	// A 129-bit input is rejected.
	tooBig := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	if _, ok := SqrtUint128(tooBig); ok {
		t.Error("SqrtUint128 must reject inputs above 128 bits")
	}
}

func TestSqrtOfRatio(t *testing.T) {
	// sqrt(4) on the Q64 path: ratio of 6e6 / 1.5e6 reserves.
	ratio, ok := FromUint64(6_000_000).CheckedDiv(FromUint64(1_500_000))
	if !ok {
		t.Fatal("ratio division failed")
	}
	root := ratio.Sqrt()
	if root.Uint64() != 2 || root.Fraction() != 0 {
		t.Errorf("sqrt(4.0) = %d + frac %d, want exact 2", root.Uint64(), root.Fraction())
	}

	// sqrt(1/4) = 0.5 exactly.
	quarter, _ := One().CheckedDiv(FromUint64(4))
	half := quarter.Sqrt()
	if half.Uint64() != 0 || half.Fraction() != 1<<63 {
		t.Errorf("sqrt(0.25) raw fraction = %x, want %x", half.Fraction(), uint64(1<<63))
	}
}

// TestSqrtSquareRoundTrip squares the computed root and checks the result
// lands within one part in 1e9 of the input, for both the integer and the
// Q64 entry points.
func TestSqrtSquareRoundTrip(t *testing.T) {
	t.Run("integer inputs", func(t *testing.T) {
		values := []uint64{999_999_999_999, 9_000_000_000_000, 123_456_789_012_345, 1<<64 - 1}

		for _, v := range values {
			sq := SqrtUint64(v).SquareUint128()
			target := uint256.NewInt(v)

			var diff uint256.Int
			if sq.Lt(target) {
				diff.Sub(target, sq)
			} else {
				diff.Sub(sq, target)
			}
			diff.Mul(&diff, uint256.NewInt(1_000_000_000))
			if diff.Gt(target) {
				t.Errorf("square(sqrt(%d)) = %s drifts more than 1e-9 relative", v, sq)
			}
		}
	})

	t.Run("q64 inputs", func(t *testing.T) {
		third, ok := One().CheckedDiv(FromUint64(3))
		if !ok {
			t.Fatal("1/3 division failed")
		}
		quarter, _ := One().CheckedDiv(FromUint64(4))
		values := []Q64{One(), FromUint64(2), third, quarter, FromUint64(9_030_612), FromRawBits(1<<32, 0)}

		for _, v := range values {
			root := v.Sqrt()
			back, ok := root.CheckedMul(root)
			if !ok {
				t.Fatalf("re-squaring the root of raw %s overflowed", v.raw.String())
			}

			diff := v.AbsDiff(back)
			var scaled uint256.Int
			scaled.Mul(&diff.raw, uint256.NewInt(1_000_000_000))
			if scaled.Gt(&v.raw) {
				t.Errorf("square(sqrt) drifts more than 1e-9 relative for raw %s", v.raw.String())
			}
		}
	})
}

func TestAbsDiff(t *testing.T) {
	a, b := FromUint64(10), FromUint64(4)
	if got := a.AbsDiff(b); got.Uint64() != 6 {
		t.Errorf("|10 - 4| = %d", got.Uint64())
	}
	if got := b.AbsDiff(a); got.Uint64() != 6 {
		t.Errorf("|4 - 10| = %d", got.Uint64())
	}
	if !a.AbsDiff(a).IsZero() {
		t.Error("|a - a| must be zero")
	}
}

func TestComparisons(t *testing.T) {
	if !Zero().IsZero() || One().IsZero() {
		t.Error("IsZero misreports")
	}
	if !One().IsOne() || Zero().IsOne() {
		t.Error("IsOne misreports")
	}
	if !Zero().Less(One()) || One().Less(Zero()) {
		t.Error("Less misreports")
	}
	if One().Cmp(One()) != 0 || Zero().Cmp(One()) != -1 || One().Cmp(Zero()) != 1 {
		t.Error("Cmp misreports")
	}
}
