package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/growvest/growvest_service/internal/domain/entities"
	"github.com/growvest/growvest_service/internal/domain/services/accrual"
	"github.com/growvest/growvest_service/internal/domain/services/purchase"
	"github.com/growvest/growvest_service/internal/domain/services/withdrawal"
	"github.com/growvest/growvest_service/internal/infrastructure/repositories"
	"github.com/growvest/growvest_service/pkg/logger"
)

// AdminHandlers handles the administrative surface: withdrawal resolution,
// plan overrides, platform stats and audit logs.
type AdminHandlers struct {
	withdrawals *withdrawal.Service
	accruals    *accrual.Service
	purchases   *purchase.Service
	users       *repositories.UserRepository
	plans       *repositories.PlanRepository
	payouts     *repositories.WithdrawalRepository
	audits      *repositories.AuditRepository
	log         *logger.Logger
}

// NewAdminHandlers creates new admin handlers
func NewAdminHandlers(
	withdrawals *withdrawal.Service,
	accruals *accrual.Service,
	purchases *purchase.Service,
	users *repositories.UserRepository,
	plans *repositories.PlanRepository,
	payouts *repositories.WithdrawalRepository,
	audits *repositories.AuditRepository,
	log *logger.Logger,
) *AdminHandlers {
	return &AdminHandlers{
		withdrawals: withdrawals,
		accruals:    accruals,
		purchases:   purchases,
		users:       users,
		plans:       plans,
		payouts:     payouts,
		audits:      audits,
		log:         log,
	}
}

// recordAudit writes an audit entry for an admin mutation. Failure is
// logged, never surfaced.
func (h *AdminHandlers) recordAudit(c *gin.Context, action, details string) {
	adminID, err := getUserID(c)
	if err != nil {
		return
	}
	err = h.audits.Insert(c.Request.Context(), &entities.AuditLog{
		AdminID: adminID,
		Action:  action,
		Details: details,
	})
	if err != nil {
		h.log.Warn("audit log write failed", "action", action, "error", err)
	}
}

// Stats returns platform-wide aggregates.
// GET /api/v1/admin/stats
func (h *AdminHandlers) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	userCount, err := h.users.CountUsers(ctx)
	if err != nil {
		h.log.Error("failed to count users", "error", err)
		respondInternalError(c, "Failed to load stats")
		return
	}

	dailyReturn, err := h.plans.TotalActiveDailyReturn(ctx)
	if err != nil {
		h.log.Error("failed to sum daily returns", "error", err)
		respondInternalError(c, "Failed to load stats")
		return
	}

	activePlans, err := h.plans.CountActive(ctx)
	if err != nil {
		h.log.Error("failed to count active plans", "error", err)
		respondInternalError(c, "Failed to load stats")
		return
	}

	paidOut, err := h.payouts.TotalCompleted(ctx)
	if err != nil {
		h.log.Error("failed to sum withdrawals", "error", err)
		respondInternalError(c, "Failed to load stats")
		return
	}

	respondSuccess(c, gin.H{
		"totalUsers":             userCount,
		"activePlans":            activePlans,
		"totalActiveDailyReturn": dailyReturn,
		"totalWithdrawn":         paidOut,
	})
}

// ListPlans returns every plan on the platform.
// GET /api/v1/admin/plans
func (h *AdminHandlers) ListPlans(c *gin.Context) {
	plans, err := h.plans.ListAll(c.Request.Context())
	if err != nil {
		h.log.Error("failed to list plans", "error", err)
		respondInternalError(c, "Failed to list plans")
		return
	}

	respondSuccess(c, gin.H{"plans": plans})
}

type adminCreatePlanRequest struct {
	UserID uuid.UUID `json:"userId" binding:"required"`
	PlanID int       `json:"planId" binding:"required"`
}

// CreatePlan grants a plan to a user directly, bypassing the purchase
// cascade.
// POST /api/v1/admin/plans
func (h *AdminHandlers) CreatePlan(c *gin.Context) {
	var req adminCreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", map[string]interface{}{"error": err.Error()})
		return
	}

	plan, err := h.purchases.CreateForUser(c.Request.Context(), req.UserID, req.PlanID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.recordAudit(c, "plan.create", fmt.Sprintf("granted plan %s (%s) to user %s", plan.ID, plan.Name, req.UserID))
	respondCreated(c, plan)
}

// ListWithdrawals returns all withdrawals, optionally filtered by status.
// GET /api/v1/admin/withdrawals?status=Pending
func (h *AdminHandlers) ListWithdrawals(c *gin.Context) {
	var status *entities.WithdrawalStatus
	if raw := c.Query("status"); raw != "" {
		s := entities.WithdrawalStatus(raw)
		if err := s.Validate(); err != nil {
			respondBadRequest(c, "Invalid withdrawal status")
			return
		}
		status = &s
	}

	withdrawals, err := h.withdrawals.ListAll(c.Request.Context(), status)
	if err != nil {
		h.log.Error("failed to list withdrawals", "error", err)
		respondDomainError(c, err)
		return
	}

	respondSuccess(c, gin.H{"withdrawals": withdrawals})
}

// ApproveWithdrawal finalizes a pending withdrawal.
// POST /api/v1/admin/withdrawals/:id/approve
func (h *AdminHandlers) ApproveWithdrawal(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondBadRequest(c, "Invalid withdrawal ID")
		return
	}

	w, err := h.withdrawals.Approve(c.Request.Context(), adminID, id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondSuccess(c, w)
}

// RejectWithdrawal resolves a pending withdrawal and returns the funds.
// POST /api/v1/admin/withdrawals/:id/reject
func (h *AdminHandlers) RejectWithdrawal(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondBadRequest(c, "Invalid withdrawal ID")
		return
	}

	w, err := h.withdrawals.Reject(c.Request.Context(), adminID, id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondSuccess(c, w)
}

type planStatusRequest struct {
	Status entities.PlanStatus `json:"status" binding:"required"`
}

// UpdatePlanStatus overrides a plan's lifecycle state.
// PUT /api/v1/admin/plans/:id/status
func (h *AdminHandlers) UpdatePlanStatus(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondBadRequest(c, "Invalid plan ID")
		return
	}

	var req planStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := req.Status.Validate(); err != nil {
		respondBadRequest(c, "Invalid plan status")
		return
	}

	if err := h.plans.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		respondDomainError(c, err)
		return
	}

	h.recordAudit(c, "plan.update_status", fmt.Sprintf("set plan %s status to %s", id, req.Status))
	respondSuccess(c, gin.H{"id": id, "status": req.Status})
}

// DeletePlan removes a plan.
// DELETE /api/v1/admin/plans/:id
func (h *AdminHandlers) DeletePlan(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondBadRequest(c, "Invalid plan ID")
		return
	}

	if err := h.plans.Delete(c.Request.Context(), id); err != nil {
		respondDomainError(c, err)
		return
	}

	h.recordAudit(c, "plan.delete", fmt.Sprintf("deleted plan %s", id))
	respondSuccess(c, gin.H{"deleted": id})
}

// RunAccrual triggers an immediate accrual pass. The per-day claim makes a
// redundant run harmless.
// POST /api/v1/admin/accrual/run
func (h *AdminHandlers) RunAccrual(c *gin.Context) {
	result, err := h.accruals.RunDaily(c.Request.Context(), time.Now())
	if err != nil {
		h.log.Error("manual accrual run failed", "error", err)
		respondInternalError(c, "Accrual run failed")
		return
	}

	respondSuccess(c, gin.H{
		"credited": result.Credited,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	})
}

// AccruePlan replays the accrual step for one plan, e.g. after a day the
// scheduler missed while the plan's credit kept failing. The per-day claim
// makes the replay a no-op when the plan already earned today.
// POST /api/v1/admin/plans/:id/accrue
func (h *AdminHandlers) AccruePlan(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondBadRequest(c, "Invalid plan ID")
		return
	}

	plan, err := h.plans.GetByID(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	credited, err := h.accruals.AccrueForPlan(c.Request.Context(), plan, time.Now())
	if err != nil {
		h.log.Error("manual plan accrual failed", "plan_id", id, "error", err)
		respondInternalError(c, "Accrual failed")
		return
	}

	if credited {
		h.recordAudit(c, "plan.accrue", fmt.Sprintf("credited one earning day on plan %s", id))
	}
	respondSuccess(c, gin.H{"planId": id, "credited": credited})
}

// ListAuditLogs returns the latest administrative actions.
// GET /api/v1/admin/audit-logs
func (h *AdminHandlers) ListAuditLogs(c *gin.Context) {
	logs, err := h.audits.ListRecent(c.Request.Context(), 100)
	if err != nil {
		h.log.Error("failed to list audit logs", "error", err)
		respondInternalError(c, "Failed to load audit logs")
		return
	}

	respondSuccess(c, gin.H{"logs": logs})
}
