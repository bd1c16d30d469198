package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/meridianlabs-xyz/cpamm-engine/internal/common"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/engine"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/http/httputil"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/service"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/token"
)

// handleOperationError maps engine, ledger and service errors onto HTTP
// status codes. Validation failures are the caller's fault, lifecycle
// conflicts are 409, economic rejections (slippage, tolerance, launch
// minimum) are 422, and anything unexpected is a 500.
func handleOperationError(c *gin.Context, err error) {
	he := classify(err)
	httputil.Error(c, he.StatusCode, he.Message)
}

func classify(err error) *common.HttpError {
	switch {
	case errors.Is(err, service.ErrPoolNotFound),
		errors.Is(err, token.ErrUnknownMint):
		return common.HTTPErrorNotFound(err.Error())

	case errors.Is(err, engine.ErrAlreadyInitialized),
		errors.Is(err, engine.ErrAlreadyLaunched),
		errors.Is(err, engine.ErrNotInitialized),
		errors.Is(err, engine.ErrNotLaunched):
		return common.HTTPErrorResourceConflict(err.Error())

	case errors.Is(err, engine.ErrBaseLiquidityIsZero),
		errors.Is(err, engine.ErrQuoteLiquidityIsZero),
		errors.Is(err, engine.ErrLpTokensIsZero),
		errors.Is(err, engine.ErrSwapAmountIsZero),
		errors.Is(err, engine.ErrEstimatedResultIsZero),
		errors.Is(err, engine.ErrFeeRateExceeded),
		errors.Is(err, token.ErrInsufficientFunds):
		return common.HTTPErrorBadRequest(err.Error())

	case errors.Is(err, engine.ErrSwapSlippageExceeded),
		errors.Is(err, engine.ErrSwapResultIsZero),
		errors.Is(err, engine.ErrLaunchLiquidityTooSmall),
		errors.Is(err, engine.ErrLpTokensLeftSupplyIsZero),
		errors.Is(err, engine.ErrProvidersFeesIsZero),
		errors.Is(err, engine.ErrConstantProductToleranceExceeded),
		errors.Is(err, engine.ErrLiquidityRatioToleranceExceeded):
		return common.HTTPErrorUnprocessable(err.Error())

	default:
		return common.HTTPErrorInternalError(err.Error())
	}
}
