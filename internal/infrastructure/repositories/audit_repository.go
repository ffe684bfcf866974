package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/growvest/growvest_service/internal/domain/entities"
)

// AuditRepository persists administrative action records
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert records an administrative action.
func (r *AuditRepository) Insert(ctx context.Context, log *entities.AuditLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO audit_logs (id, admin_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, log.ID, log.AdminID, log.Action, log.Details, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// ListRecent returns the latest audit entries, capped at limit.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]*entities.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	query := `
		SELECT id, admin_id, action, details, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	logs := []*entities.AuditLog{}
	if err := r.db.SelectContext(ctx, &logs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	return logs, nil
}
