package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/growvest/growvest_service/internal/domain/entities"
	apperrors "github.com/growvest/growvest_service/internal/domain/errors"
)

// PlanRepository handles investment plan persistence
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create inserts a new plan
func (r *PlanRepository) Create(ctx context.Context, plan *entities.Plan) error {
	query := `
		INSERT INTO plans (
			id, user_id, tier_id, name, amount, daily_return, days, days_remaining,
			purchase_date, last_earning_date, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		plan.ID,
		plan.UserID,
		plan.TierID,
		plan.Name,
		plan.Amount,
		plan.DailyReturn,
		plan.Days,
		plan.DaysRemaining,
		plan.PurchaseDate,
		plan.LastEarningDate,
		plan.Status,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	return nil
}

// GetByID retrieves a plan by ID
func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Plan, error) {
	query := `
		SELECT id, user_id, tier_id, name, amount, daily_return, days, days_remaining,
			purchase_date, last_earning_date, status, created_at, updated_at
		FROM plans
		WHERE id = $1
	`

	var plan entities.Plan
	err := r.db.GetContext(ctx, &plan, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFoundError("plan")
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return &plan, nil
}

// ListByUser returns all plans of a user, newest first.
func (r *PlanRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Plan, error) {
	query := `
		SELECT id, user_id, tier_id, name, amount, daily_return, days, days_remaining,
			purchase_date, last_earning_date, status, created_at, updated_at
		FROM plans
		WHERE user_id = $1
		ORDER BY purchase_date DESC
	`

	plans := []*entities.Plan{}
	if err := r.db.SelectContext(ctx, &plans, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	return plans, nil
}

// ListActive returns all plans still accruing.
func (r *PlanRepository) ListActive(ctx context.Context) ([]*entities.Plan, error) {
	query := `
		SELECT id, user_id, tier_id, name, amount, daily_return, days, days_remaining,
			purchase_date, last_earning_date, status, created_at, updated_at
		FROM plans
		WHERE status = $1
		ORDER BY purchase_date ASC
	`

	plans := []*entities.Plan{}
	if err := r.db.SelectContext(ctx, &plans, query, entities.PlanStatusActive); err != nil {
		return nil, fmt.Errorf("failed to list active plans: %w", err)
	}

	return plans, nil
}

// ListAll returns every plan, newest first. Admin surface only.
func (r *PlanRepository) ListAll(ctx context.Context) ([]*entities.Plan, error) {
	query := `
		SELECT id, user_id, tier_id, name, amount, daily_return, days, days_remaining,
			purchase_date, last_earning_date, status, created_at, updated_at
		FROM plans
		ORDER BY purchase_date DESC
	`

	plans := []*entities.Plan{}
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	return plans, nil
}

// CountActive returns the number of active plans.
func (r *PlanRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM plans WHERE status = $1`, entities.PlanStatusActive)
	if err != nil {
		return 0, fmt.Errorf("failed to count active plans: %w", err)
	}
	return count, nil
}

// UpdateStatus overrides the lifecycle state of a plan. Used by the admin
// surface; the accrual path never goes through here.
func (r *PlanRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.PlanStatus) error {
	query := `
		UPDATE plans
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	res, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update plan status: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return apperrors.NotFoundError("plan")
	}

	return nil
}

// Delete removes a plan. Its ledger transactions keep their plan reference
// nulled by the foreign key so history survives.
func (r *PlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return apperrors.NotFoundError("plan")
	}

	return nil
}

// TotalActiveDailyReturn sums the daily return of every active plan. Used by
// the admin stats endpoint.
func (r *PlanRepository) TotalActiveDailyReturn(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(daily_return), 0) FROM plans WHERE status = $1`
	if err := r.db.GetContext(ctx, &total, query, entities.PlanStatusActive); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum daily returns: %w", err)
	}
	return total, nil
}

// AccrueDailyEarning credits one day of earnings for a plan. The claim and
// the wallet credit commit atomically: the guarded UPDATE wins at most once
// per calendar day, so a second run of the same day (or a concurrent one)
// gets zero rows and returns false. A rollback releases the claim, leaving
// the plan eligible for the next run.
func (r *PlanRepository) AccrueDailyEarning(ctx context.Context, plan *entities.Plan, day time.Time) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, apperrors.TransientStorageError(err)
	}
	defer tx.Rollback()

	claim := `
		UPDATE plans
		SET days_remaining = days_remaining - 1,
			last_earning_date = $1,
			status = CASE WHEN days_remaining - 1 <= 0 THEN $2 ELSE status END,
			updated_at = $3
		WHERE id = $4
			AND status = $5
			AND days_remaining > 0
			AND (last_earning_date IS NULL OR date(last_earning_date) IS DISTINCT FROM date($1))
	`

	res, err := tx.ExecContext(ctx, claim,
		day,
		entities.PlanStatusCompleted,
		time.Now(),
		plan.ID,
		entities.PlanStatusActive,
	)
	if err != nil {
		return false, apperrors.TransientStorageError(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.TransientStorageError(err)
	}
	if rows == 0 {
		// Already accrued for this day, or no longer active.
		return false, nil
	}

	txn := &entities.Transaction{
		Kind:      entities.TransactionKindEarning,
		Amount:    plan.DailyReturn,
		PlanID:    &plan.ID,
		CreatedAt: day,
	}
	if err := CreditInTx(ctx, tx, plan.UserID, txn); err != nil {
		return false, apperrors.TransientStorageError(err)
	}

	if err := tx.Commit(); err != nil {
		return false, apperrors.TransientStorageError(err)
	}

	return true, nil
}
