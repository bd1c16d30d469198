package engine

import (
	"github.com/gagliardetto/solana-go"

	"github.com/meridianlabs-xyz/cpamm-engine/internal/domain"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/fixedpoint"
)

// Payloads are the only bridge between computing an operation and applying
// it. Each one carries the complete set of field values the apply step
// writes, plus the amounts an external collaborator must transfer, mint or
// burn in between. Payloads are immutable, never persisted, and must only
// be applied to the exact record snapshot they were computed against.

// InitializePayload sets identities and the fee-rate snapshot.
type InitializePayload struct {
	ConfigID      solana.PublicKey
	BaseMint      solana.PublicKey
	QuoteMint     solana.PublicKey
	LpMint        solana.PublicKey
	BaseVault     solana.PublicKey
	QuoteVault    solana.PublicKey
	LockedLpVault solana.PublicKey

	ProviderFeeRateBp uint16
	ProtocolFeeRateBp uint16
}

// LaunchPayload bootstraps the first reserves and LP supply.
type LaunchPayload struct {
	BaseReserve  uint64
	QuoteReserve uint64
	LpSupply     uint64

	SqrtConstantProduct fixedpoint.Q64
	SqrtBaseQuoteRatio  fixedpoint.Q64

	// LaunchLiquidity is minted to the launcher, InitialLockedLiquidity to
	// the permanently held vault.
	LaunchLiquidity        uint64
	InitialLockedLiquidity uint64
}

// ProvidePayload adds proportional liquidity and mints LP tokens.
type ProvidePayload struct {
	BaseReserve  uint64
	QuoteReserve uint64
	LpSupply     uint64

	SqrtConstantProduct fixedpoint.Q64
	SqrtBaseQuoteRatio  fixedpoint.Q64

	LpTokensToMint uint64
}

// WithdrawPayload redeems LP tokens for both reserves.
type WithdrawPayload struct {
	BaseReserve  uint64
	QuoteReserve uint64
	LpSupply     uint64

	SqrtConstantProduct fixedpoint.Q64
	SqrtBaseQuoteRatio  fixedpoint.Q64

	LpTokensToBurn      uint64
	BaseWithdrawAmount  uint64
	QuoteWithdrawAmount uint64
}

// SwapPayload exchanges one side of the pair for the other.
type SwapPayload struct {
	Direction domain.SwapDirection

	BaseReserve  uint64
	QuoteReserve uint64

	SqrtConstantProduct fixedpoint.Q64
	SqrtBaseQuoteRatio  fixedpoint.Q64

	ProtocolBaseFeesToRedeem  uint64
	ProtocolQuoteFeesToRedeem uint64

	ProviderFee uint64
	ProtocolFee uint64

	// AmountToWithdraw is owed to the trader from the out-side vault.
	AmountToWithdraw uint64
}

// CollectFeesPayload transfers out accrued protocol fees and resets the
// accumulators.
type CollectFeesPayload struct {
	BaseFees  uint64
	QuoteFees uint64
}
