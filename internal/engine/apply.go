package engine

import "github.com/meridianlabs-xyz/cpamm-engine/internal/domain"

// The Apply* functions are the pool state machine: they copy a previously
// computed payload onto the record, field by field, with no re-validation.
// A payload is trusted because it was produced against the exact snapshot
// being mutated; callers must never apply it to a different or stale record
// and must discard it if the external token movement failed.

// ApplyInitialize moves the record from uninitialized to initialized.
func ApplyInitialize(rec *domain.PoolRecord, payload *InitializePayload) {
	rec.ConfigID = payload.ConfigID
	rec.BaseMint = payload.BaseMint
	rec.QuoteMint = payload.QuoteMint
	rec.LpMint = payload.LpMint
	rec.BaseVault = payload.BaseVault
	rec.QuoteVault = payload.QuoteVault
	rec.LockedLpVault = payload.LockedLpVault
	rec.ProviderFeeRateBp = payload.ProviderFeeRateBp
	rec.ProtocolFeeRateBp = payload.ProtocolFeeRateBp
	rec.Initialized = true
}

// ApplyLaunch moves the record from initialized to launched. One-way,
// one-time.
func ApplyLaunch(rec *domain.PoolRecord, payload *LaunchPayload) {
	rec.BaseReserve = payload.BaseReserve
	rec.QuoteReserve = payload.QuoteReserve
	rec.LpSupply = payload.LpSupply
	rec.SqrtConstantProduct = payload.SqrtConstantProduct
	rec.SqrtBaseQuoteRatio = payload.SqrtBaseQuoteRatio
	rec.InitialLockedLiquidity = payload.InitialLockedLiquidity
	rec.Launched = true
}

// ApplyProvide overwrites reserves, supply and the invariant caches.
func ApplyProvide(rec *domain.PoolRecord, payload *ProvidePayload) {
	rec.BaseReserve = payload.BaseReserve
	rec.QuoteReserve = payload.QuoteReserve
	rec.LpSupply = payload.LpSupply
	rec.SqrtConstantProduct = payload.SqrtConstantProduct
	rec.SqrtBaseQuoteRatio = payload.SqrtBaseQuoteRatio
}

// ApplyWithdraw overwrites reserves, supply and the invariant caches.
func ApplyWithdraw(rec *domain.PoolRecord, payload *WithdrawPayload) {
	rec.BaseReserve = payload.BaseReserve
	rec.QuoteReserve = payload.QuoteReserve
	rec.LpSupply = payload.LpSupply
	rec.SqrtConstantProduct = payload.SqrtConstantProduct
	rec.SqrtBaseQuoteRatio = payload.SqrtBaseQuoteRatio
}

// ApplySwap overwrites reserves, fee accumulators and the invariant caches.
func ApplySwap(rec *domain.PoolRecord, payload *SwapPayload) {
	rec.BaseReserve = payload.BaseReserve
	rec.QuoteReserve = payload.QuoteReserve
	rec.ProtocolBaseFeesToRedeem = payload.ProtocolBaseFeesToRedeem
	rec.ProtocolQuoteFeesToRedeem = payload.ProtocolQuoteFeesToRedeem
	rec.SqrtConstantProduct = payload.SqrtConstantProduct
	rec.SqrtBaseQuoteRatio = payload.SqrtBaseQuoteRatio
}

// ApplyCollectFees resets both fee accumulators.
func ApplyCollectFees(rec *domain.PoolRecord, payload *CollectFeesPayload) {
	rec.ProtocolBaseFeesToRedeem = 0
	rec.ProtocolQuoteFeesToRedeem = 0
}
