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

// WithdrawalRepository handles the two-phase withdrawal lifecycle. Request
// reserves the amount out of the withdrawable balance; approval debits the
// spendable balance; rejection returns the reservation. Each phase is a
// single database transaction.
type WithdrawalRepository struct {
	db *sqlx.DB
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *sqlx.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Create inserts a pending withdrawal and reserves its amount. The wallet
// row lock serializes concurrent requests so two reservations cannot both
// pass the balance check.
func (r *WithdrawalRepository) Create(ctx context.Context, withdrawal *entities.Withdrawal) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	wallet, err := lockWallet(ctx, tx, withdrawal.UserID)
	if err != nil {
		return err
	}

	if wallet.Withdrawable.LessThan(withdrawal.Amount) {
		return apperrors.InsufficientBalanceError(
			wallet.Withdrawable.String(), withdrawal.Amount.String(),
		)
	}

	if withdrawal.ID == uuid.Nil {
		withdrawal.ID = uuid.New()
	}
	withdrawal.Status = entities.WithdrawalStatusPending
	if withdrawal.RequestDate.IsZero() {
		withdrawal.RequestDate = time.Now()
	}

	insert := `
		INSERT INTO withdrawals (id, user_id, amount, status, payment_method, payment_details, request_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.ExecContext(ctx, insert,
		withdrawal.ID,
		withdrawal.UserID,
		withdrawal.Amount,
		withdrawal.Status,
		withdrawal.PaymentMethod,
		withdrawal.PaymentDetails,
		withdrawal.RequestDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal: %w", err)
	}

	insertTxn := `
		INSERT INTO wallet_transactions (id, wallet_id, kind, amount, status, withdrawal_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.ExecContext(ctx, insertTxn,
		uuid.New(),
		wallet.ID,
		entities.TransactionKindWithdrawal,
		withdrawal.Amount,
		entities.TransactionStatusPending,
		withdrawal.ID,
		withdrawal.RequestDate,
	)
	if err != nil {
		return fmt.Errorf("failed to record pending transaction: %w", err)
	}

	reserve := `
		UPDATE wallets
		SET withdrawable = withdrawable - $1, updated_at = $2
		WHERE id = $3
	`
	if _, err := tx.ExecContext(ctx, reserve, withdrawal.Amount, time.Now(), wallet.ID); err != nil {
		return fmt.Errorf("failed to reserve withdrawable balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withdrawal request: %w", err)
	}

	return nil
}

// GetByID retrieves a withdrawal by ID
func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Withdrawal, error) {
	query := `
		SELECT id, user_id, amount, status, payment_method, payment_details, request_date, processed_date
		FROM withdrawals
		WHERE id = $1
	`

	var withdrawal entities.Withdrawal
	err := r.db.GetContext(ctx, &withdrawal, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFoundError("withdrawal")
		}
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}

	return &withdrawal, nil
}

// ListByUser returns a user's withdrawals, newest first.
func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Withdrawal, error) {
	query := `
		SELECT id, user_id, amount, status, payment_method, payment_details, request_date, processed_date
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY request_date DESC
	`

	withdrawals := []*entities.Withdrawal{}
	if err := r.db.SelectContext(ctx, &withdrawals, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}

	return withdrawals, nil
}

// ListAll returns withdrawals joined with their owners for the admin view,
// optionally filtered by status.
func (r *WithdrawalRepository) ListAll(ctx context.Context, status *entities.WithdrawalStatus) ([]*entities.AdminWithdrawal, error) {
	query := `
		SELECT w.id, w.user_id, w.amount, w.status, w.payment_method, w.payment_details,
			w.request_date, w.processed_date,
			u.name AS user_name, u.email AS user_email
		FROM withdrawals w
		JOIN users u ON u.id = w.user_id
		WHERE ($1::text IS NULL OR w.status = $1)
		ORDER BY w.request_date DESC
	`

	withdrawals := []*entities.AdminWithdrawal{}
	if err := r.db.SelectContext(ctx, &withdrawals, query, status); err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}

	return withdrawals, nil
}

// Approve finalizes a pending withdrawal. The guarded status flip wins at
// most once; a lost race or an already resolved request surfaces as
// ErrAlreadyProcessed. The reservation already removed the amount from
// withdrawable, so approval only debits the spendable balance.
func (r *WithdrawalRepository) Approve(ctx context.Context, id uuid.UUID) (*entities.Withdrawal, error) {
	return r.resolve(ctx, id, entities.WithdrawalStatusCompleted)
}

// Reject resolves a pending withdrawal by returning the reserved amount to
// the withdrawable balance.
func (r *WithdrawalRepository) Reject(ctx context.Context, id uuid.UUID) (*entities.Withdrawal, error) {
	return r.resolve(ctx, id, entities.WithdrawalStatusRejected)
}

func (r *WithdrawalRepository) resolve(ctx context.Context, id uuid.UUID, terminal entities.WithdrawalStatus) (*entities.Withdrawal, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	flip := `
		UPDATE withdrawals
		SET status = $1, processed_date = $2
		WHERE id = $3 AND status = $4
		RETURNING id, user_id, amount, status, payment_method, payment_details, request_date, processed_date
	`

	var withdrawal entities.Withdrawal
	err = tx.GetContext(ctx, &withdrawal, flip,
		terminal, time.Now(), id, entities.WithdrawalStatusPending,
	)
	if err == sql.ErrNoRows {
		current, lookupErr := r.GetByID(ctx, id)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return nil, apperrors.AlreadyProcessedError(string(current.Status))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve withdrawal: %w", err)
	}

	txnStatus := entities.TransactionStatusCompleted
	if terminal == entities.WithdrawalStatusRejected {
		txnStatus = entities.TransactionStatusRejected
	}
	updateTxn := `
		UPDATE wallet_transactions
		SET status = $1
		WHERE withdrawal_id = $2
	`
	if _, err := tx.ExecContext(ctx, updateTxn, txnStatus, withdrawal.ID); err != nil {
		return nil, fmt.Errorf("failed to update ledger transaction: %w", err)
	}

	var snapshot string
	if terminal == entities.WithdrawalStatusCompleted {
		snapshot = `
			UPDATE wallets
			SET balance = balance - $1, updated_at = $2
			WHERE user_id = $3
		`
	} else {
		snapshot = `
			UPDATE wallets
			SET withdrawable = withdrawable + $1, updated_at = $2
			WHERE user_id = $3
		`
	}
	if _, err := tx.ExecContext(ctx, snapshot, withdrawal.Amount, time.Now(), withdrawal.UserID); err != nil {
		return nil, fmt.Errorf("failed to update wallet snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit withdrawal resolution: %w", err)
	}

	return &withdrawal, nil
}

// TotalCompleted returns the total amount paid out across all completed
// withdrawals. Used by the admin stats endpoint.
func (r *WithdrawalRepository) TotalCompleted(ctx context.Context) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0) AS total
		FROM withdrawals
		WHERE status = $1
	`

	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, entities.WithdrawalStatusCompleted).Scan(&total)
	if err != nil {
		if err == sql.ErrNoRows {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("failed to get total completed withdrawals: %w", err)
	}

	return total, nil
}
