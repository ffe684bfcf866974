package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/growvest/growvest_service/internal/domain/services/purchase"
	"github.com/growvest/growvest_service/pkg/logger"
)

// PlanHandlers handles plan catalog and purchase endpoints
type PlanHandlers struct {
	purchases *purchase.Service
	log       *logger.Logger
}

// NewPlanHandlers creates new plan handlers
func NewPlanHandlers(purchases *purchase.Service, log *logger.Logger) *PlanHandlers {
	return &PlanHandlers{purchases: purchases, log: log}
}

// ListCatalog returns the purchasable tiers.
// GET /api/v1/plans
func (h *PlanHandlers) ListCatalog(c *gin.Context) {
	respondSuccess(c, gin.H{"plans": h.purchases.Catalog()})
}

// ListUserPlans returns the caller's purchased plans.
// GET /api/v1/plans/user
func (h *PlanHandlers) ListUserPlans(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "Authentication required")
		return
	}

	plans, err := h.purchases.ListUserPlans(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to list plans", "user_id", userID, "error", err)
		respondDomainError(c, err)
		return
	}

	respondSuccess(c, gin.H{"plans": plans})
}

type purchaseRequest struct {
	PlanID        int    `json:"planId" binding:"required"`
	PaymentMethod string `json:"paymentMethod"`
	PaymentID     string `json:"paymentId"`
}

// Purchase buys a plan tier for the caller. Payment itself is settled by the
// external payment collaborator; the reference is only logged here.
// POST /api/v1/plans/purchase
func (h *PlanHandlers) Purchase(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "Authentication required")
		return
	}

	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", map[string]interface{}{"error": err.Error()})
		return
	}

	if req.PaymentID != "" {
		h.log.Info("purchase payment reference",
			"user_id", userID,
			"payment_method", req.PaymentMethod,
			"payment_id", req.PaymentID,
		)
	}

	plan, code, err := h.purchases.Purchase(c.Request.Context(), userID, req.PlanID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondCreated(c, gin.H{
		"plan":         plan,
		"referralCode": code,
	})
}
