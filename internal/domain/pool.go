package domain

import (
	"github.com/gagliardetto/solana-go"

	"github.com/meridianlabs-xyz/cpamm-engine/internal/fixedpoint"
)

// SwapDirection selects which side of the pair is paid in.
type SwapDirection uint8

const (
	BaseToQuote SwapDirection = iota
	QuoteToBase
)

func (d SwapDirection) String() string {
	switch d {
	case BaseToQuote:
		return "BaseToQuote"
	case QuoteToBase:
		return "QuoteToBase"
	default:
		return "UNKNOWN"
	}
}

// ParseSwapDirection maps the wire value to a SwapDirection.
func ParseSwapDirection(s string) (SwapDirection, bool) {
	switch s {
	case "BaseToQuote", "baseToQuote", "base_to_quote":
		return BaseToQuote, true
	case "QuoteToBase", "quoteToBase", "quote_to_base":
		return QuoteToBase, true
	default:
		return BaseToQuote, false
	}
}

// PoolConfig carries the fee policy a pool snapshots at initialization.
// Rate updates on a config never affect pools created before the update.
type PoolConfig struct {
	ID                solana.PublicKey `json:"id"`
	FeeAuthority      solana.PublicKey `json:"feeAuthority"`
	ProviderFeeRateBp uint16           `json:"providerFeeRateBp"`
	ProtocolFeeRateBp uint16           `json:"protocolFeeRateBp"`
}

// PoolRecord is the mutable state of one constant-product pool. All writes
// go through the engine's apply step; everything else treats the record as
// an immutable snapshot.
type PoolRecord struct {
	Address       solana.PublicKey `json:"address"`
	ConfigID      solana.PublicKey `json:"configId"`
	BaseMint      solana.PublicKey `json:"baseMint"`
	QuoteMint     solana.PublicKey `json:"quoteMint"`
	LpMint        solana.PublicKey `json:"lpMint"`
	BaseVault     solana.PublicKey `json:"baseVault"`
	QuoteVault    solana.PublicKey `json:"quoteVault"`
	LockedLpVault solana.PublicKey `json:"lockedLpVault"`

	Initialized bool `json:"initialized"`
	Launched    bool `json:"launched"`

	BaseReserve  uint64 `json:"baseReserve"`
	QuoteReserve uint64 `json:"quoteReserve"`
	LpSupply     uint64 `json:"lpSupply"`

	ProtocolBaseFeesToRedeem  uint64 `json:"protocolBaseFeesToRedeem"`
	ProtocolQuoteFeesToRedeem uint64 `json:"protocolQuoteFeesToRedeem"`

	// LP supply held by the locked vault forever, minted once at launch.
	InitialLockedLiquidity uint64 `json:"initialLockedLiquidity"`

	ProviderFeeRateBp uint16 `json:"providerFeeRateBp"`
	ProtocolFeeRateBp uint16 `json:"protocolFeeRateBp"`

	// Cached sqrt(baseReserve * quoteReserve) and sqrt(baseReserve / quoteReserve).
	SqrtConstantProduct fixedpoint.Q64 `json:"-"`
	SqrtBaseQuoteRatio  fixedpoint.Q64 `json:"-"`
}

// Tradable reports whether the pool accepts provide/withdraw/swap.
func (p *PoolRecord) Tradable() bool {
	return p.Launched && p.BaseReserve > 0 && p.QuoteReserve > 0 && p.LpSupply > 0
}
