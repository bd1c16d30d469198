package http

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/meridianlabs-xyz/cpamm-engine/internal/domain"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/http/httputil"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/service"
)

// SwapHandler exposes swap execution and protocol fee collection.
type SwapHandler struct {
	poolSvc *service.PoolService
}

func NewSwapHandler(poolSvc *service.PoolService) *SwapHandler {
	return &SwapHandler{poolSvc: poolSvc}
}

func (h *SwapHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("/:address/swap", h.swap)
	admin.POST("/:address/collect-fees", h.collectFees)
}

func (h *SwapHandler) Root() string {
	return "/pools"
}

// SwapRequest executes a swap against one pool.
// Amounts are smallest token units as decimal strings.
type SwapRequest struct {
	// Wallet paying the in-side and receiving the out-side
	Wallet string `json:"wallet" binding:"required"`

	// Gross amount paid in, fees included
	AmountIn string `json:"amountIn" binding:"required"`

	// Expected output; the swap fails when the realized output deviates
	// from this by more than allowedSlippage
	EstimatedResult string `json:"estimatedResult" binding:"required"`

	// Allowed absolute deviation from estimatedResult, in out-side units
	AllowedSlippage string `json:"allowedSlippage"`

	// "BaseToQuote" or "QuoteToBase"
	Direction string `json:"direction" binding:"required"`
}

// SwapResponse reports the realized swap
type SwapResponse struct {
	AmountOut    uint64 `json:"amountOut"`
	ProviderFee  uint64 `json:"providerFee"`
	ProtocolFee  uint64 `json:"protocolFee"`
	BaseReserve  uint64 `json:"baseReserve"`
	QuoteReserve uint64 `json:"quoteReserve"`
}

func (h *SwapHandler) swap(c *gin.Context) {
	var req SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	wallet, err := solana.PublicKeyFromBase58(req.Wallet)
	if err != nil {
		httputil.BadRequest(c, "invalid wallet")
		return
	}
	amountIn, err := strconv.ParseUint(req.AmountIn, 10, 64)
	if err != nil {
		httputil.BadRequest(c, "invalid amountIn")
		return
	}
	estimatedResult, err := strconv.ParseUint(req.EstimatedResult, 10, 64)
	if err != nil {
		httputil.BadRequest(c, "invalid estimatedResult")
		return
	}
	var allowedSlippage uint64
	if req.AllowedSlippage != "" {
		if allowedSlippage, err = strconv.ParseUint(req.AllowedSlippage, 10, 64); err != nil {
			httputil.BadRequest(c, "invalid allowedSlippage")
			return
		}
	}
	direction, ok := domain.ParseSwapDirection(req.Direction)
	if !ok {
		httputil.BadRequest(c, "invalid direction")
		return
	}

	payload, err := h.poolSvc.Swap(c.Param("address"), wallet, amountIn, estimatedResult, allowedSlippage, direction)
	if err != nil {
		handleOperationError(c, err)
		return
	}

	httputil.Success(c, SwapResponse{
		AmountOut:    payload.AmountToWithdraw,
		ProviderFee:  payload.ProviderFee,
		ProtocolFee:  payload.ProtocolFee,
		BaseReserve:  payload.BaseReserve,
		QuoteReserve: payload.QuoteReserve,
	})
}

// CollectFeesResponse reports redeemed protocol fee amounts
type CollectFeesResponse struct {
	BaseFees  uint64 `json:"baseFees"`
	QuoteFees uint64 `json:"quoteFees"`
}

func (h *SwapHandler) collectFees(c *gin.Context) {
	payload, err := h.poolSvc.CollectFees(c.Param("address"))
	if err != nil {
		handleOperationError(c, err)
		return
	}

	httputil.Success(c, CollectFeesResponse{
		BaseFees:  payload.BaseFees,
		QuoteFees: payload.QuoteFees,
	})
}
