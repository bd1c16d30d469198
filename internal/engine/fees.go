package engine

import "github.com/holiman/uint256"

const (
	// MaxFeeBasisPoints is 100% expressed in basis points.
	MaxFeeBasisPoints = 10000

	// LpDecimals is the decimal count of the LP mint.
	LpDecimals = 5

	// InitialLockedLiquidity is the LP amount minted to the locked vault at
	// launch, equal to 10^LpDecimals. It can never be withdrawn, so a
	// launched pool can never be drained to zero supply.
	InitialLockedLiquidity = 100_000
)

var bpsDenom = uint256.NewInt(MaxFeeBasisPoints)

// FeeSplit is the decomposition of a gross swap-in amount.
type FeeSplit struct {
	ProviderFee uint64
	ProtocolFee uint64
	NetAmount   uint64
}

// ValidateFeeRates fails when the combined rate exceeds 100%.
func ValidateFeeRates(providerRateBp, protocolRateBp uint16) error {
	if uint32(providerRateBp)+uint32(protocolRateBp) > MaxFeeBasisPoints {
		return ErrFeeRateExceeded
	}
	return nil
}

// SplitSwapAmount splits a gross swap-in amount into provider fee, protocol
// fee and the net amount credited against the constant product. Both fees
// round down, so amount == ProviderFee + ProtocolFee + NetAmount exactly.
func SplitSwapAmount(amount uint64, providerRateBp, protocolRateBp uint16) (FeeSplit, error) {
	if err := ValidateFeeRates(providerRateBp, protocolRateBp); err != nil {
		return FeeSplit{}, err
	}
	split := FeeSplit{
		ProviderFee: feeAmount(amount, providerRateBp),
		ProtocolFee: feeAmount(amount, protocolRateBp),
	}
	split.NetAmount = amount - split.ProviderFee - split.ProtocolFee
	return split, nil
}

// feeAmount computes floor(amount * rateBp / 10000) with a 128-bit
// intermediate product.
func feeAmount(amount uint64, rateBp uint16) uint64 {
	var t uint256.Int
	t.SetUint64(amount)
	t.Mul(&t, uint256.NewInt(uint64(rateBp)))
	t.Div(&t, bpsDenom)
	return t.Uint64()
}
