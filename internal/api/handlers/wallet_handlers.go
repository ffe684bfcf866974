package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/growvest/growvest_service/internal/domain/services/wallet"
	"github.com/growvest/growvest_service/internal/domain/services/withdrawal"
	"github.com/growvest/growvest_service/pkg/logger"
)

// WalletHandlers handles wallet and withdrawal endpoints
type WalletHandlers struct {
	wallets     *wallet.Service
	withdrawals *withdrawal.Service
	log         *logger.Logger
}

// NewWalletHandlers creates new wallet handlers
func NewWalletHandlers(wallets *wallet.Service, withdrawals *withdrawal.Service, log *logger.Logger) *WalletHandlers {
	return &WalletHandlers{
		wallets:     wallets,
		withdrawals: withdrawals,
		log:         log,
	}
}

// GetWallet returns the caller's wallet with derived balances and full
// transaction history.
// GET /api/v1/wallet
func (h *WalletHandlers) GetWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "Authentication required")
		return
	}

	view, err := h.wallets.GetWallet(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to load wallet", "user_id", userID, "error", err)
		respondDomainError(c, err)
		return
	}

	respondSuccess(c, view)
}

type withdrawRequest struct {
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod  string          `json:"paymentMethod" binding:"required"`
	PaymentDetails *string         `json:"paymentDetails"`
}

// RequestWithdrawal creates a pending withdrawal for the caller.
// POST /api/v1/wallet/withdraw
func (h *WalletHandlers) RequestWithdrawal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "Authentication required")
		return
	}

	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", map[string]interface{}{"error": err.Error()})
		return
	}

	w, err := h.withdrawals.Request(c.Request.Context(), userID, req.Amount, req.PaymentMethod, req.PaymentDetails)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondCreated(c, w)
}

// ListWithdrawals returns the caller's withdrawal history.
// GET /api/v1/wallet/withdrawals
func (h *WalletHandlers) ListWithdrawals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "Authentication required")
		return
	}

	withdrawals, err := h.withdrawals.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to list withdrawals", "user_id", userID, "error", err)
		respondDomainError(c, err)
		return
	}

	respondSuccess(c, gin.H{"withdrawals": withdrawals})
}
