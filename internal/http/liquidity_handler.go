package http

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/meridianlabs-xyz/cpamm-engine/internal/http/httputil"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/service"
)

// LiquidityHandler exposes launch, provide and withdraw.
type LiquidityHandler struct {
	poolSvc *service.PoolService
}

func NewLiquidityHandler(poolSvc *service.PoolService) *LiquidityHandler {
	return &LiquidityHandler{poolSvc: poolSvc}
}

func (h *LiquidityHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("/:address/launch", h.launch)
	pub.POST("/:address/provide", h.provide)
	pub.POST("/:address/withdraw", h.withdraw)
}

func (h *LiquidityHandler) Root() string {
	return "/pools"
}

// LiquidityRequest carries both deposit legs of a launch or provide.
// Amounts are smallest token units as decimal strings.
type LiquidityRequest struct {
	// Wallet funding the deposit (base58 public key)
	Wallet string `json:"wallet" binding:"required"`

	BaseLiquidity  string `json:"baseLiquidity" binding:"required"`
	QuoteLiquidity string `json:"quoteLiquidity" binding:"required"`
}

// LaunchResponse reports the LP amounts minted at launch
type LaunchResponse struct {
	LpSupply uint64 `json:"lpSupply"`

	// Minted to the launcher
	MintToLauncher uint64 `json:"mintToLauncher"`

	// Minted to the permanently locked vault
	MintToLockedVault uint64 `json:"mintToLockedVault"`
}

func (h *LiquidityHandler) launch(c *gin.Context) {
	wallet, base, quote, ok := h.bindLiquidity(c)
	if !ok {
		return
	}

	payload, err := h.poolSvc.Launch(c.Param("address"), wallet, base, quote)
	if err != nil {
		handleOperationError(c, err)
		return
	}

	httputil.Success(c, LaunchResponse{
		LpSupply:          payload.LpSupply,
		MintToLauncher:    payload.LaunchLiquidity,
		MintToLockedVault: payload.InitialLockedLiquidity,
	})
}

// ProvideResponse reports the LP tokens minted to the provider
type ProvideResponse struct {
	LpTokensMinted uint64 `json:"lpTokensMinted"`
	LpSupply       uint64 `json:"lpSupply"`
}

func (h *LiquidityHandler) provide(c *gin.Context) {
	wallet, base, quote, ok := h.bindLiquidity(c)
	if !ok {
		return
	}

	payload, err := h.poolSvc.Provide(c.Param("address"), wallet, base, quote)
	if err != nil {
		handleOperationError(c, err)
		return
	}

	httputil.Success(c, ProvideResponse{
		LpTokensMinted: payload.LpTokensToMint,
		LpSupply:       payload.LpSupply,
	})
}

// WithdrawRequest redeems LP tokens for both reserves
type WithdrawRequest struct {
	Wallet   string `json:"wallet" binding:"required"`
	LpTokens string `json:"lpTokens" binding:"required"`
}

// WithdrawResponse reports both payout legs
type WithdrawResponse struct {
	BaseOut  uint64 `json:"baseOut"`
	QuoteOut uint64 `json:"quoteOut"`
	LpSupply uint64 `json:"lpSupply"`
}

func (h *LiquidityHandler) withdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	wallet, err := solana.PublicKeyFromBase58(req.Wallet)
	if err != nil {
		httputil.BadRequest(c, "invalid wallet")
		return
	}
	lpTokens, err := strconv.ParseUint(req.LpTokens, 10, 64)
	if err != nil {
		httputil.BadRequest(c, "invalid lpTokens")
		return
	}

	payload, err := h.poolSvc.Withdraw(c.Param("address"), wallet, lpTokens)
	if err != nil {
		handleOperationError(c, err)
		return
	}

	httputil.Success(c, WithdrawResponse{
		BaseOut:  payload.BaseWithdrawAmount,
		QuoteOut: payload.QuoteWithdrawAmount,
		LpSupply: payload.LpSupply,
	})
}

func (h *LiquidityHandler) bindLiquidity(c *gin.Context) (solana.PublicKey, uint64, uint64, bool) {
	var req LiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return solana.PublicKey{}, 0, 0, false
	}

	wallet, err := solana.PublicKeyFromBase58(req.Wallet)
	if err != nil {
		httputil.BadRequest(c, "invalid wallet")
		return solana.PublicKey{}, 0, 0, false
	}
	base, err := strconv.ParseUint(req.BaseLiquidity, 10, 64)
	if err != nil {
		httputil.BadRequest(c, "invalid baseLiquidity")
		return solana.PublicKey{}, 0, 0, false
	}
	quote, err := strconv.ParseUint(req.QuoteLiquidity, 10, 64)
	if err != nil {
		httputil.BadRequest(c, "invalid quoteLiquidity")
		return solana.PublicKey{}, 0, 0, false
	}
	return wallet, base, quote, true
}
