package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/growvest/growvest_service/internal/api/handlers"
	"github.com/growvest/growvest_service/internal/api/middleware"
	"github.com/growvest/growvest_service/internal/infrastructure/config"
	"github.com/growvest/growvest_service/pkg/logger"
	"github.com/growvest/growvest_service/pkg/tracing"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Wallet   *handlers.WalletHandlers
	Plans    *handlers.PlanHandlers
	Referral *handlers.ReferralHandlers
	Admin    *handlers.AdminHandlers
	Health   *handlers.HealthHandlers
}

// Setup wires middleware and routes onto a gin engine.
func Setup(cfg *config.Config, log *logger.Logger, h Handlers) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Metrics())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.RequestSizeLimit())
	router.Use(middleware.RateLimit(cfg.Server.RateLimitPerMin))
	if cfg.Tracing.Enabled {
		router.Use(tracing.HTTPMiddleware())
	}

	router.GET("/health", h.Health.Health)
	router.GET("/health/live", h.Health.Live)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	// Plan catalog is public.
	v1.GET("/plans", h.Plans.ListCatalog)

	authed := v1.Group("")
	authed.Use(middleware.Authentication(cfg))
	{
		authed.GET("/wallet", h.Wallet.GetWallet)
		authed.POST("/wallet/withdraw", h.Wallet.RequestWithdrawal)
		authed.GET("/wallet/withdrawals", h.Wallet.ListWithdrawals)

		authed.GET("/plans/user", h.Plans.ListUserPlans)
		authed.POST("/plans/purchase", h.Plans.Purchase)

		authed.GET("/referrals", h.Referral.Overview)
		authed.GET("/referrals/milestones", h.Referral.Milestones)
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.Authentication(cfg), middleware.AdminAuth())
	{
		admin.GET("/stats", h.Admin.Stats)
		admin.GET("/withdrawals", h.Admin.ListWithdrawals)
		admin.POST("/withdrawals/:id/approve", h.Admin.ApproveWithdrawal)
		admin.POST("/withdrawals/:id/reject", h.Admin.RejectWithdrawal)
		admin.GET("/plans", h.Admin.ListPlans)
		admin.POST("/plans", h.Admin.CreatePlan)
		admin.PUT("/plans/:id/status", h.Admin.UpdatePlanStatus)
		admin.DELETE("/plans/:id", h.Admin.DeletePlan)
		admin.POST("/plans/:id/accrue", h.Admin.AccruePlan)
		admin.POST("/accrual/run", h.Admin.RunAccrual)
		admin.GET("/audit-logs", h.Admin.ListAuditLogs)
	}

	return router
}
