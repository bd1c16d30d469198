package http

import (
	"encoding/base64"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/meridianlabs-xyz/cpamm-engine/internal/domain"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/http/httputil"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/service"
)

type PoolHandler struct {
	poolSvc *service.PoolService
}

func NewPoolHandler(poolSvc *service.PoolService) *PoolHandler {
	return &PoolHandler{poolSvc: poolSvc}
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("", h.createPool)
	pub.GET("/list", h.listPools)
	pub.GET("/:address", h.getPool)
	pub.GET("/:address/account", h.getPoolAccount)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

// CreatePoolRequest initializes a pool for a base/quote pair
type CreatePoolRequest struct {
	// Base token mint address (base58 public key)
	BaseMint string `json:"baseMint" binding:"required"`

	// Quote token mint address (base58 public key)
	QuoteMint string `json:"quoteMint" binding:"required"`
}

func (h *PoolHandler) createPool(c *gin.Context) {
	var req CreatePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	baseMint, err := solana.PublicKeyFromBase58(req.BaseMint)
	if err != nil {
		httputil.BadRequest(c, "invalid baseMint")
		return
	}
	quoteMint, err := solana.PublicKeyFromBase58(req.QuoteMint)
	if err != nil {
		httputil.BadRequest(c, "invalid quoteMint")
		return
	}

	rec, err := h.poolSvc.CreatePool(baseMint, quoteMint)
	if err != nil {
		handleOperationError(c, err)
		return
	}

	httputil.Success(c, poolDetail(rec))
}

// PoolListResponse contains the full list of tracked pools
type PoolListResponse struct {
	Pools []PoolDetailResponse `json:"pools"`
	Total int                  `json:"total"`
}

func (h *PoolHandler) listPools(c *gin.Context) {
	records := h.poolSvc.ListPools()
	pools := make([]PoolDetailResponse, 0, len(records))
	for _, rec := range records {
		pools = append(pools, poolDetail(rec))
	}
	httputil.Success(c, PoolListResponse{Pools: pools, Total: len(pools)})
}

// PoolDetailResponse describes one pool record
type PoolDetailResponse struct {
	Address       string `json:"address"`
	ConfigID      string `json:"configId"`
	BaseMint      string `json:"baseMint"`
	QuoteMint     string `json:"quoteMint"`
	LpMint        string `json:"lpMint"`
	BaseVault     string `json:"baseVault"`
	QuoteVault    string `json:"quoteVault"`
	LockedLpVault string `json:"lockedLpVault"`

	Initialized bool `json:"initialized"`
	Launched    bool `json:"launched"`

	BaseReserve  uint64 `json:"baseReserve"`
	QuoteReserve uint64 `json:"quoteReserve"`
	LpSupply     uint64 `json:"lpSupply"`

	ProtocolBaseFeesToRedeem  uint64 `json:"protocolBaseFeesToRedeem"`
	ProtocolQuoteFeesToRedeem uint64 `json:"protocolQuoteFeesToRedeem"`
	InitialLockedLiquidity    uint64 `json:"initialLockedLiquidity"`

	// Fee rates in basis points (1 bps = 0.01%)
	ProviderFeeRateBp uint16 `json:"providerFeeRateBp"`
	ProtocolFeeRateBp uint16 `json:"protocolFeeRateBp"`
}

func poolDetail(rec *domain.PoolRecord) PoolDetailResponse {
	return PoolDetailResponse{
		Address:       rec.Address.String(),
		ConfigID:      rec.ConfigID.String(),
		BaseMint:      rec.BaseMint.String(),
		QuoteMint:     rec.QuoteMint.String(),
		LpMint:        rec.LpMint.String(),
		BaseVault:     rec.BaseVault.String(),
		QuoteVault:    rec.QuoteVault.String(),
		LockedLpVault: rec.LockedLpVault.String(),

		Initialized: rec.Initialized,
		Launched:    rec.Launched,

		BaseReserve:  rec.BaseReserve,
		QuoteReserve: rec.QuoteReserve,
		LpSupply:     rec.LpSupply,

		ProtocolBaseFeesToRedeem:  rec.ProtocolBaseFeesToRedeem,
		ProtocolQuoteFeesToRedeem: rec.ProtocolQuoteFeesToRedeem,
		InitialLockedLiquidity:    rec.InitialLockedLiquidity,

		ProviderFeeRateBp: rec.ProviderFeeRateBp,
		ProtocolFeeRateBp: rec.ProtocolFeeRateBp,
	}
}

func (h *PoolHandler) getPool(c *gin.Context) {
	rec, err := h.poolSvc.GetPool(c.Param("address"))
	if err != nil {
		handleOperationError(c, err)
		return
	}
	httputil.Success(c, poolDetail(rec))
}

// PoolAccountResponse carries the fixed-width binary layout of a pool
// record, base64 encoded.
type PoolAccountResponse struct {
	Address string `json:"address"`
	Data    string `json:"data"`
	Size    int    `json:"size"`
}

func (h *PoolHandler) getPoolAccount(c *gin.Context) {
	rec, err := h.poolSvc.GetPool(c.Param("address"))
	if err != nil {
		handleOperationError(c, err)
		return
	}

	data, err := rec.MarshalAccount()
	if err != nil {
		httputil.InternalError(c, err.Error())
		return
	}

	httputil.Success(c, PoolAccountResponse{
		Address: rec.Address.String(),
		Data:    base64.StdEncoding.EncodeToString(data),
		Size:    len(data),
	})
}
