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

// ReferralRepository handles referral links and milestone awards
type ReferralRepository struct {
	db *sqlx.DB
}

// NewReferralRepository creates a new referral repository
func NewReferralRepository(db *sqlx.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// GetByReferredUser returns the referral row where the given user is the
// referred side, if any.
func (r *ReferralRepository) GetByReferredUser(ctx context.Context, referredID uuid.UUID) (*entities.Referral, error) {
	query := `
		SELECT id, referrer_id, referred_id, bonus_paid, bonus_amount, first_plan_id, created_at
		FROM referrals
		WHERE referred_id = $1
	`

	var referral entities.Referral
	err := r.db.GetContext(ctx, &referral, query, referredID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFoundError("referral")
		}
		return nil, fmt.Errorf("failed to get referral: %w", err)
	}

	return &referral, nil
}

// SettleBonus flips the settlement flag and credits the referrer's bonus in
// one database transaction. The guarded flip wins at most once, so concurrent
// first purchases settle a single time; a failed credit rolls the flag back,
// leaving the referral unsettled so the next purchase retries the whole
// settlement. Returns false when the bonus was already paid.
func (r *ReferralRepository) SettleBonus(ctx context.Context, referral *entities.Referral, firstPlanID uuid.UUID) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	flip := `
		UPDATE referrals
		SET bonus_paid = TRUE, first_plan_id = $1
		WHERE id = $2 AND bonus_paid = FALSE
	`
	res, err := tx.ExecContext(ctx, flip, firstPlanID, referral.ID)
	if err != nil {
		return false, fmt.Errorf("failed to mark bonus paid: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark bonus paid: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	txn := &entities.Transaction{
		Kind:   entities.TransactionKindReferral,
		Amount: referral.BonusAmount,
		PlanID: &firstPlanID,
	}
	if err := CreditInTx(ctx, tx, referral.ReferrerID, txn); err != nil {
		return false, fmt.Errorf("failed to credit referral bonus: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit settlement: %w", err)
	}

	return true, nil
}

// CountSettledByReferrer counts referrals of a referrer whose bonus has been
// paid. This is the milestone progress number.
func (r *ReferralRepository) CountSettledByReferrer(ctx context.Context, referrerID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM referrals WHERE referrer_id = $1 AND bonus_paid = TRUE`
	if err := r.db.GetContext(ctx, &count, query, referrerID); err != nil {
		return 0, fmt.Errorf("failed to count settled referrals: %w", err)
	}
	return count, nil
}

// referredUserRow carries the joined overview columns.
type referredUserRow struct {
	UserID      uuid.UUID       `db:"user_id"`
	Name        string          `db:"name"`
	JoinedDate  time.Time       `db:"joined_date"`
	PlansCount  int             `db:"plans_count"`
	BonusEarned decimal.Decimal `db:"bonus_earned"`
}

// ListByReferrer returns the overview rows for everyone a referrer brought
// in, joined with their name and plan count. Unsettled referrals report a
// zero bonus.
func (r *ReferralRepository) ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]entities.ReferredUser, error) {
	query := `
		SELECT ref.referred_id AS user_id,
			u.name AS name,
			ref.created_at AS joined_date,
			(SELECT COUNT(*) FROM plans p WHERE p.user_id = ref.referred_id) AS plans_count,
			CASE WHEN ref.bonus_paid THEN ref.bonus_amount ELSE 0 END AS bonus_earned
		FROM referrals ref
		JOIN users u ON u.id = ref.referred_id
		WHERE ref.referrer_id = $1
		ORDER BY ref.created_at DESC
	`

	rows := []referredUserRow{}
	if err := r.db.SelectContext(ctx, &rows, query, referrerID); err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}

	users := make([]entities.ReferredUser, 0, len(rows))
	for _, row := range rows {
		users = append(users, entities.ReferredUser{
			UserID:      row.UserID,
			Name:        row.Name,
			JoinedDate:  row.JoinedDate,
			PlansCount:  row.PlansCount,
			BonusEarned: row.BonusEarned,
		})
	}

	return users, nil
}

// AwardMilestone records a tier award and credits its bonus in one database
// transaction. The unique (user_id, tier) index makes awarding monotonic: a
// second attempt inserts nothing and returns false without crediting. A
// failed credit rolls the award row back so the next settlement retries it.
func (r *ReferralRepository) AwardMilestone(ctx context.Context, userID uuid.UUID, milestone entities.MilestoneDefinition) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	award := `
		INSERT INTO referral_milestones (id, user_id, tier, awarded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, tier) DO NOTHING
	`
	res, err := tx.ExecContext(ctx, award, uuid.New(), userID, milestone.Tier, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to award milestone: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to award milestone: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	txn := &entities.Transaction{
		Kind:   entities.TransactionKindReferralMilestone,
		Amount: milestone.Bonus,
	}
	if err := CreditInTx(ctx, tx, userID, txn); err != nil {
		return false, fmt.Errorf("failed to credit milestone bonus: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit milestone award: %w", err)
	}

	return true, nil
}

// ListMilestones returns all tiers awarded to a user.
func (r *ReferralRepository) ListMilestones(ctx context.Context, userID uuid.UUID) ([]entities.MilestoneAward, error) {
	query := `
		SELECT id, user_id, tier, awarded_at
		FROM referral_milestones
		WHERE user_id = $1
		ORDER BY awarded_at ASC
	`

	awards := []entities.MilestoneAward{}
	if err := r.db.SelectContext(ctx, &awards, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}

	return awards, nil
}
