package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/growvest/growvest_service/internal/domain/entities"
	apperrors "github.com/growvest/growvest_service/internal/domain/errors"
)

// UserRepository reads the user records owned by the auth collaborator and
// writes only the referral code column.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	query := `
		SELECT id, name, email, is_admin, referral_code, referred_by, created_at
		FROM users
		WHERE id = $1
	`

	var user entities.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFoundError("user")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// SetReferralCode assigns a referral code to a user that has none yet.
// Returns false when the user already holds a code or the code collided
// with another user's.
func (r *UserRepository) SetReferralCode(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	query := `
		UPDATE users
		SET referral_code = $1
		WHERE id = $2 AND referral_code IS NULL
			AND NOT EXISTS (SELECT 1 FROM users WHERE referral_code = $1)
	`

	res, err := r.db.ExecContext(ctx, query, code, userID)
	if err != nil {
		return false, fmt.Errorf("failed to set referral code: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to set referral code: %w", err)
	}

	return rows > 0, nil
}

// ReferralCodeExists reports whether any user already holds the code.
func (r *UserRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE referral_code = $1)`
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		return false, fmt.Errorf("failed to check referral code: %w", err)
	}
	return exists, nil
}

// CountUsers returns the total number of users. Used by the admin stats
// endpoint.
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
