package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/growvest/growvest_service/internal/infrastructure/cache"
	"github.com/growvest/growvest_service/internal/infrastructure/database"
)

// HealthHandlers reports service liveness and dependency health
type HealthHandlers struct {
	db    *sqlx.DB
	redis cache.RedisClient
}

// NewHealthHandlers creates new health handlers
func NewHealthHandlers(db *sqlx.DB, redis cache.RedisClient) *HealthHandlers {
	return &HealthHandlers{db: db, redis: redis}
}

// Health reports dependency status.
// GET /health
func (h *HealthHandlers) Health(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{}

	if err := database.HealthCheck(h.db); err != nil {
		checks["database"] = "unhealthy"
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = "healthy"
	}

	if h.redis != nil {
		if err := h.redis.Ping(c.Request.Context()); err != nil {
			checks["redis"] = "unhealthy"
		} else {
			checks["redis"] = "healthy"
		}
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":    overall,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}

// Live is a bare liveness probe.
// GET /health/live
func (h *HealthHandlers) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
