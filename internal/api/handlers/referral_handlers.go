package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/growvest/growvest_service/internal/domain/services/referral"
	"github.com/growvest/growvest_service/pkg/logger"
)

// ReferralHandlers handles referral endpoints
type ReferralHandlers struct {
	referrals *referral.Service
	log       *logger.Logger
}

// NewReferralHandlers creates new referral handlers
func NewReferralHandlers(referrals *referral.Service, log *logger.Logger) *ReferralHandlers {
	return &ReferralHandlers{referrals: referrals, log: log}
}

// Overview returns the caller's referral code and referred users.
// GET /api/v1/referrals
func (h *ReferralHandlers) Overview(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "Authentication required")
		return
	}

	overview, err := h.referrals.Overview(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to load referral overview", "user_id", userID, "error", err)
		respondDomainError(c, err)
		return
	}

	respondSuccess(c, overview)
}

// Milestones returns the caller's milestone progress.
// GET /api/v1/referrals/milestones
func (h *ReferralHandlers) Milestones(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "Authentication required")
		return
	}

	report, err := h.referrals.Milestones(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to load milestones", "user_id", userID, "error", err)
		respondDomainError(c, err)
		return
	}

	respondSuccess(c, report)
}
