package engine

import (
	"github.com/holiman/uint256"

	"github.com/meridianlabs-xyz/cpamm-engine/internal/fixedpoint"
)

// invariantTolerance is the allowed relative drift (1e-5) of the cached
// sqrt invariants across an operation. Integer rounding makes exact
// preservation unrepresentable, so a tight band is accepted instead.
var invariantTolerance = deriveTolerance()

func deriveTolerance() fixedpoint.Q64 {
	tol, ok := fixedpoint.One().CheckedDiv(fixedpoint.FromUint64(100_000))
	if !ok {
		panic("engine: tolerance derivation failed")
	}
	return tol
}

// ValidateConstantProduct recomputes sqrt(newBase * newQuote) and fails when
// it deviates from the cached value by more than the relative tolerance.
func ValidateConstantProduct(oldSqrtCP fixedpoint.Q64, newBaseReserve, newQuoteReserve uint64) error {
	newSqrtCP, ok := fixedpoint.SqrtUint128(mulU64(newBaseReserve, newQuoteReserve))
	if !ok {
		return ErrConstantProductCalculationFailed
	}
	return withinTolerance(oldSqrtCP, newSqrtCP, ErrConstantProductToleranceExceeded)
}

// ValidateRatio recomputes sqrt(newBase / newQuote) and fails when it
// deviates from the cached value by more than the relative tolerance.
func ValidateRatio(oldSqrtRatio fixedpoint.Q64, newBaseReserve, newQuoteReserve uint64) error {
	ratio, ok := fixedpoint.FromUint64(newBaseReserve).CheckedDiv(fixedpoint.FromUint64(newQuoteReserve))
	if !ok {
		return ErrBaseQuoteRatioCalculationFailed
	}
	return withinTolerance(oldSqrtRatio, ratio.Sqrt(), ErrLiquidityRatioToleranceExceeded)
}

func withinTolerance(oldValue, newValue fixedpoint.Q64, exceeded error) error {
	limit := oldValue.SaturatingMul(invariantTolerance)
	if oldValue.AbsDiff(newValue).Cmp(limit) > 0 {
		return exceeded
	}
	return nil
}

// mulU64 returns a * b as a 128-bit integer.
func mulU64(a, b uint64) *uint256.Int {
	z := new(uint256.Int).SetUint64(a)
	return z.Mul(z, new(uint256.Int).SetUint64(b))
}
