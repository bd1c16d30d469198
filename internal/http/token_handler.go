package http

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/meridianlabs-xyz/cpamm-engine/internal/http/httputil"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/token"
)

// TokenHandler exposes the ledger for balance reads plus admin-only mint
// registration and funding.
type TokenHandler struct {
	ledger token.Ledger
}

func NewTokenHandler(ledger token.Ledger) *TokenHandler {
	return &TokenHandler{ledger: ledger}
}

func (h *TokenHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/:mint/balance/:owner", h.getBalance)
	admin.POST("/register", h.registerMint)
	admin.POST("/mint", h.mintTokens)
}

func (h *TokenHandler) Root() string {
	return "/tokens"
}

// BalanceResponse reports one account balance
type BalanceResponse struct {
	Mint    string `json:"mint"`
	Owner   string `json:"owner"`
	Balance uint64 `json:"balance"`
}

func (h *TokenHandler) getBalance(c *gin.Context) {
	mint, err := solana.PublicKeyFromBase58(c.Param("mint"))
	if err != nil {
		httputil.BadRequest(c, "invalid mint")
		return
	}
	owner, err := solana.PublicKeyFromBase58(c.Param("owner"))
	if err != nil {
		httputil.BadRequest(c, "invalid owner")
		return
	}

	httputil.Success(c, BalanceResponse{
		Mint:    mint.String(),
		Owner:   owner.String(),
		Balance: h.ledger.Balance(mint, owner),
	})
}

// RegisterMintRequest creates a mint with an optional transfer fee
type RegisterMintRequest struct {
	Mint          string `json:"mint" binding:"required"`
	TransferFeeBp uint16 `json:"transferFeeBp"`
}

func (h *TokenHandler) registerMint(c *gin.Context) {
	var req RegisterMintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	mint, err := solana.PublicKeyFromBase58(req.Mint)
	if err != nil {
		httputil.BadRequest(c, "invalid mint")
		return
	}
	if err := h.ledger.RegisterMint(mint, req.TransferFeeBp); err != nil {
		handleOperationError(c, err)
		return
	}
	httputil.Success(c, gin.H{"mint": mint.String()})
}

// MintTokensRequest funds an account, admin only
type MintTokensRequest struct {
	Mint   string `json:"mint" binding:"required"`
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

func (h *TokenHandler) mintTokens(c *gin.Context) {
	var req MintTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	mint, err := solana.PublicKeyFromBase58(req.Mint)
	if err != nil {
		httputil.BadRequest(c, "invalid mint")
		return
	}
	to, err := solana.PublicKeyFromBase58(req.To)
	if err != nil {
		httputil.BadRequest(c, "invalid to")
		return
	}
	amount, err := strconv.ParseUint(req.Amount, 10, 64)
	if err != nil {
		httputil.BadRequest(c, "invalid amount")
		return
	}

	if err := h.ledger.Mint(mint, to, amount); err != nil {
		handleOperationError(c, err)
		return
	}
	httputil.Success(c, gin.H{"mint": mint.String(), "to": to.String(), "amount": amount})
}
