package engine

import "errors"

// Lifecycle errors.
var (
	ErrNotInitialized     = errors.New("pool is not initialized")
	ErrAlreadyInitialized = errors.New("pool is already initialized")
	ErrNotLaunched        = errors.New("pool is not launched")
	ErrAlreadyLaunched    = errors.New("pool is already launched")
)

// Input-validation errors.
var (
	ErrBaseLiquidityIsZero   = errors.New("provided base liquidity is zero")
	ErrQuoteLiquidityIsZero  = errors.New("provided quote liquidity is zero")
	ErrLpTokensIsZero        = errors.New("provided lp tokens amount is zero")
	ErrSwapAmountIsZero      = errors.New("swap amount is zero")
	ErrEstimatedResultIsZero = errors.New("estimated swap result is zero")
	ErrFeeRateExceeded       = errors.New("provider and protocol fee rates exceed 10000 basis points")
)

// Arithmetic errors.
var (
	ErrProvideOverflow                  = errors.New("provide liquidity overflow")
	ErrWithdrawOverflow                 = errors.New("withdraw liquidity overflow")
	ErrSwapOverflow                     = errors.New("swap overflow")
	ErrLpTokensCalculationFailed        = errors.New("lp tokens calculation failed")
	ErrWithdrawCalculationFailed        = errors.New("withdraw liquidity calculation failed")
	ErrAfterswapCalculationFailed       = errors.New("after-swap reserve calculation failed")
	ErrBaseQuoteRatioCalculationFailed  = errors.New("base quote ratio calculation failed")
	ErrConstantProductCalculationFailed = errors.New("constant product calculation failed")
)

// Invariant and result errors.
var (
	ErrConstantProductToleranceExceeded = errors.New("constant product tolerance exceeded")
	ErrLiquidityRatioToleranceExceeded  = errors.New("liquidity ratio tolerance exceeded")
	ErrLaunchLiquidityTooSmall          = errors.New("launch liquidity is too small")
	ErrLpTokensLeftSupplyIsZero         = errors.New("withdraw would drain lp supply to zero")
	ErrSwapResultIsZero                 = errors.New("swap result is zero")
	ErrSwapSlippageExceeded             = errors.New("swap slippage exceeded")
	ErrProvidersFeesIsZero              = errors.New("no protocol fees to redeem")
)
