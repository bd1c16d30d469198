// Package engine holds the deterministic calculation core of the
// constant-product pools. Every operation is split in two: a pure compute
// function here that validates inputs and invariants against an immutable
// record snapshot and returns a payload, and an apply function that copies
// the payload onto the record after the external token movement succeeded.
// Nothing in this package mutates a record except the Apply* functions, and
// nothing here blocks, retries or spawns.
package engine

import (
	"math/bits"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/meridianlabs-xyz/cpamm-engine/internal/domain"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/fixedpoint"
)

// Initialize snapshots identities and fee rates onto a fresh record.
func Initialize(
	rec *domain.PoolRecord,
	baseMint, quoteMint, lpMint solana.PublicKey,
	baseVault, quoteVault, lockedLpVault solana.PublicKey,
	cfg domain.PoolConfig,
) (*InitializePayload, error) {
	if rec.Initialized {
		return nil, ErrAlreadyInitialized
	}
	if err := ValidateFeeRates(cfg.ProviderFeeRateBp, cfg.ProtocolFeeRateBp); err != nil {
		return nil, err
	}

	return &InitializePayload{
		ConfigID:          cfg.ID,
		BaseMint:          baseMint,
		QuoteMint:         quoteMint,
		LpMint:            lpMint,
		BaseVault:         baseVault,
		QuoteVault:        quoteVault,
		LockedLpVault:     lockedLpVault,
		ProviderFeeRateBp: cfg.ProviderFeeRateBp,
		ProtocolFeeRateBp: cfg.ProtocolFeeRateBp,
	}, nil
}

// Launch computes the first reserves, LP supply and invariant caches from
// the initial deposit. The total supply is floor(sqrt(base * quote)); the
// locked seed is reserved out of it and the rest goes to the launcher. A
// launch whose liquidity is below 3x the locked seed (total supply below
// 4x) is rejected as a near-empty, easily manipulated pool.
func Launch(rec *domain.PoolRecord, baseLiquidity, quoteLiquidity uint64) (*LaunchPayload, error) {
	if !rec.Initialized {
		return nil, ErrNotInitialized
	}
	if rec.Launched {
		return nil, ErrAlreadyLaunched
	}
	if baseLiquidity == 0 {
		return nil, ErrBaseLiquidityIsZero
	}
	if quoteLiquidity == 0 {
		return nil, ErrQuoteLiquidityIsZero
	}

	sqrtCP, ok := fixedpoint.SqrtUint128(mulU64(baseLiquidity, quoteLiquidity))
	if !ok {
		return nil, ErrConstantProductCalculationFailed
	}
	sqrtRatio, err := sqrtReserveRatio(baseLiquidity, quoteLiquidity)
	if err != nil {
		return nil, err
	}

	lpSupply := sqrtCP.Uint64()
	if lpSupply == 0 {
		return nil, ErrLpTokensIsZero
	}

	launchLiquidity, borrow := bits.Sub64(lpSupply, InitialLockedLiquidity, 0)
	if borrow != 0 || launchLiquidity < InitialLockedLiquidity*3 {
		return nil, ErrLaunchLiquidityTooSmall
	}

	return &LaunchPayload{
		BaseReserve:            baseLiquidity,
		QuoteReserve:           quoteLiquidity,
		LpSupply:               lpSupply,
		SqrtConstantProduct:    sqrtCP,
		SqrtBaseQuoteRatio:     sqrtRatio,
		LaunchLiquidity:        launchLiquidity,
		InitialLockedLiquidity: InitialLockedLiquidity,
	}, nil
}

// Provide adds liquidity on both sides and mints LP tokens in proportion to
// the growth of sqrt(constant product). Lopsided deposits are rejected by
// the ratio guard.
func Provide(rec *domain.PoolRecord, baseLiquidity, quoteLiquidity uint64) (*ProvidePayload, error) {
	if err := requireTradable(rec); err != nil {
		return nil, err
	}
	if baseLiquidity == 0 {
		return nil, ErrBaseLiquidityIsZero
	}
	if quoteLiquidity == 0 {
		return nil, ErrQuoteLiquidityIsZero
	}

	newBase, carry := bits.Add64(rec.BaseReserve, baseLiquidity, 0)
	if carry != 0 {
		return nil, ErrProvideOverflow
	}
	newQuote, carry := bits.Add64(rec.QuoteReserve, quoteLiquidity, 0)
	if carry != 0 {
		return nil, ErrProvideOverflow
	}

	if err := ValidateRatio(rec.SqrtBaseQuoteRatio, newBase, newQuote); err != nil {
		return nil, err
	}

	newSqrtCP, ok := fixedpoint.SqrtUint128(mulU64(newBase, newQuote))
	if !ok {
		return nil, ErrConstantProductCalculationFailed
	}
	newSqrtRatio, err := sqrtReserveRatio(newBase, newQuote)
	if err != nil {
		return nil, err
	}

	// mint = floor(lpSupply * (newSqrtCP - oldSqrtCP) / oldSqrtCP)
	growth, ok := newSqrtCP.CheckedSub(rec.SqrtConstantProduct)
	if !ok {
		return nil, ErrLpTokensCalculationFailed
	}
	growthRatio, ok := growth.CheckedDiv(rec.SqrtConstantProduct)
	if !ok {
		return nil, ErrLpTokensCalculationFailed
	}
	mintAmount, ok := growthRatio.MulUint64(rec.LpSupply)
	if !ok {
		return nil, ErrLpTokensCalculationFailed
	}
	if mintAmount == 0 {
		return nil, ErrLpTokensIsZero
	}

	newSupply, carry := bits.Add64(rec.LpSupply, mintAmount, 0)
	if carry != 0 {
		return nil, ErrProvideOverflow
	}

	return &ProvidePayload{
		BaseReserve:         newBase,
		QuoteReserve:        newQuote,
		LpSupply:            newSupply,
		SqrtConstantProduct: newSqrtCP,
		SqrtBaseQuoteRatio:  newSqrtRatio,
		LpTokensToMint:      mintAmount,
	}, nil
}

// Withdraw redeems LP tokens for a proportional share of both reserves.
// Amounts are derived from the cached sqrt pair instead of the raw reserve
// product, so the multiply/divide chain stays inside 128 bits. The locked
// seed guarantees the supply can never reach zero, but the check is kept as
// a hard error rather than an assumption.
func Withdraw(rec *domain.PoolRecord, lpTokens uint64) (*WithdrawPayload, error) {
	if err := requireTradable(rec); err != nil {
		return nil, err
	}
	if lpTokens == 0 {
		return nil, ErrLpTokensIsZero
	}

	newSupply, borrow := bits.Sub64(rec.LpSupply, lpTokens, 0)
	if borrow != 0 {
		return nil, ErrWithdrawOverflow
	}
	if newSupply == 0 {
		return nil, ErrLpTokensLeftSupplyIsZero
	}

	share, ok := fixedpoint.FromUint64(lpTokens).CheckedDiv(fixedpoint.FromUint64(rec.LpSupply))
	if !ok {
		return nil, ErrWithdrawCalculationFailed
	}

	// baseOut = sqrtCP * share * sqrtRatio, quoteOut = sqrtCP * share / sqrtRatio,
	// both rounded to nearest.
	liquidityShare := rec.SqrtConstantProduct.SaturatingMul(share)

	baseOut, ok := liquidityShare.SaturatingMul(rec.SqrtBaseQuoteRatio).Uint64Round()
	if !ok || baseOut == 0 {
		return nil, ErrWithdrawCalculationFailed
	}
	quoteQ, ok := liquidityShare.CheckedDiv(rec.SqrtBaseQuoteRatio)
	if !ok {
		return nil, ErrWithdrawCalculationFailed
	}
	quoteOut, ok := quoteQ.Uint64Round()
	if !ok || quoteOut == 0 {
		return nil, ErrWithdrawCalculationFailed
	}

	newBase, borrow := bits.Sub64(rec.BaseReserve, baseOut, 0)
	if borrow != 0 {
		return nil, ErrWithdrawOverflow
	}
	newQuote, borrow := bits.Sub64(rec.QuoteReserve, quoteOut, 0)
	if borrow != 0 {
		return nil, ErrWithdrawOverflow
	}

	if err := ValidateRatio(rec.SqrtBaseQuoteRatio, newBase, newQuote); err != nil {
		return nil, err
	}

	newSqrtCP, ok := fixedpoint.SqrtUint128(mulU64(newBase, newQuote))
	if !ok {
		return nil, ErrConstantProductCalculationFailed
	}
	newSqrtRatio, err := sqrtReserveRatio(newBase, newQuote)
	if err != nil {
		return nil, err
	}

	return &WithdrawPayload{
		BaseReserve:         newBase,
		QuoteReserve:        newQuote,
		LpSupply:            newSupply,
		SqrtConstantProduct: newSqrtCP,
		SqrtBaseQuoteRatio:  newSqrtRatio,
		LpTokensToBurn:      lpTokens,
		BaseWithdrawAmount:  baseOut,
		QuoteWithdrawAmount: quoteOut,
	}, nil
}

// Swap exchanges amountIn of one side for the other, holding the constant
// product over the net amount. The provider fee is added back to the
// in-side reserve (it accrues to LPs); the protocol fee is accumulated
// separately and never trades. The realized output must stay within
// allowedSlippage of the caller's estimate.
func Swap(
	rec *domain.PoolRecord,
	amountIn, estimatedResult, allowedSlippage uint64,
	direction domain.SwapDirection,
) (*SwapPayload, error) {
	if err := requireTradable(rec); err != nil {
		return nil, err
	}
	if amountIn == 0 {
		return nil, ErrSwapAmountIsZero
	}
	if estimatedResult == 0 {
		return nil, ErrEstimatedResultIsZero
	}

	split, err := SplitSwapAmount(amountIn, rec.ProviderFeeRateBp, rec.ProtocolFeeRateBp)
	if err != nil {
		return nil, err
	}
	if split.NetAmount == 0 {
		return nil, ErrSwapAmountIsZero
	}

	inReserve, outReserve := rec.BaseReserve, rec.QuoteReserve
	if direction == domain.QuoteToBase {
		inReserve, outReserve = rec.QuoteReserve, rec.BaseReserve
	}

	newIn, carry := bits.Add64(inReserve, split.NetAmount, 0)
	if carry != 0 {
		return nil, ErrSwapOverflow
	}

	// newOut = floor(sqrtCP^2 / newIn)
	constantProduct := rec.SqrtConstantProduct.SquareUint128()
	constantProduct.Div(constantProduct, uint256.NewInt(newIn))
	if !constantProduct.IsUint64() {
		return nil, ErrAfterswapCalculationFailed
	}
	newOut := constantProduct.Uint64()
	if newOut == 0 || newOut > outReserve {
		return nil, ErrAfterswapCalculationFailed
	}

	newBase, newQuote := newIn, newOut
	if direction == domain.QuoteToBase {
		newBase, newQuote = newOut, newIn
	}
	if err := ValidateConstantProduct(rec.SqrtConstantProduct, newBase, newQuote); err != nil {
		return nil, err
	}

	amountOut := outReserve - newOut
	if amountOut == 0 {
		return nil, ErrSwapResultIsZero
	}
	if absDiffU64(amountOut, estimatedResult) > allowedSlippage {
		return nil, ErrSwapSlippageExceeded
	}

	// Fold the provider fee into the in-side reserve and accumulate the
	// protocol fee on the in-side mint.
	finalIn, carry := bits.Add64(newIn, split.ProviderFee, 0)
	if carry != 0 {
		return nil, ErrSwapOverflow
	}

	payload := &SwapPayload{
		Direction:                 direction,
		ProtocolBaseFeesToRedeem:  rec.ProtocolBaseFeesToRedeem,
		ProtocolQuoteFeesToRedeem: rec.ProtocolQuoteFeesToRedeem,
		ProviderFee:               split.ProviderFee,
		ProtocolFee:               split.ProtocolFee,
		AmountToWithdraw:          amountOut,
	}

	if direction == domain.BaseToQuote {
		payload.BaseReserve, payload.QuoteReserve = finalIn, newOut
		payload.ProtocolBaseFeesToRedeem, carry = bits.Add64(payload.ProtocolBaseFeesToRedeem, split.ProtocolFee, 0)
	} else {
		payload.BaseReserve, payload.QuoteReserve = newOut, finalIn
		payload.ProtocolQuoteFeesToRedeem, carry = bits.Add64(payload.ProtocolQuoteFeesToRedeem, split.ProtocolFee, 0)
	}
	if carry != 0 {
		return nil, ErrSwapOverflow
	}

	newSqrtCP, ok := fixedpoint.SqrtUint128(mulU64(payload.BaseReserve, payload.QuoteReserve))
	if !ok {
		return nil, ErrConstantProductCalculationFailed
	}
	newSqrtRatio, err := sqrtReserveRatio(payload.BaseReserve, payload.QuoteReserve)
	if err != nil {
		return nil, err
	}
	payload.SqrtConstantProduct = newSqrtCP
	payload.SqrtBaseQuoteRatio = newSqrtRatio

	return payload, nil
}

// CollectFees hands out the accrued protocol fee balances. The payload
// resets both accumulators; the amounts themselves must be transferred out
// of the vaults before apply.
func CollectFees(rec *domain.PoolRecord) (*CollectFeesPayload, error) {
	if !rec.Initialized {
		return nil, ErrNotInitialized
	}
	if !rec.Launched {
		return nil, ErrNotLaunched
	}
	if rec.ProtocolBaseFeesToRedeem == 0 && rec.ProtocolQuoteFeesToRedeem == 0 {
		return nil, ErrProvidersFeesIsZero
	}
	return &CollectFeesPayload{
		BaseFees:  rec.ProtocolBaseFeesToRedeem,
		QuoteFees: rec.ProtocolQuoteFeesToRedeem,
	}, nil
}

func requireTradable(rec *domain.PoolRecord) error {
	if !rec.Initialized {
		return ErrNotInitialized
	}
	if !rec.Tradable() {
		return ErrNotLaunched
	}
	return nil
}

// sqrtReserveRatio computes sqrt(base / quote) in Q64.64.
func sqrtReserveRatio(baseReserve, quoteReserve uint64) (fixedpoint.Q64, error) {
	ratio, ok := fixedpoint.FromUint64(baseReserve).CheckedDiv(fixedpoint.FromUint64(quoteReserve))
	if !ok {
		return fixedpoint.Zero(), ErrBaseQuoteRatioCalculationFailed
	}
	return ratio.Sqrt(), nil
}

func absDiffU64(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
