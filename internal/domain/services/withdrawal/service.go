// Package withdrawal implements the two-phase payout lifecycle: a user
// request reserves funds, an administrator later approves or rejects it.
package withdrawal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/growvest/growvest_service/internal/domain/entities"
	apperrors "github.com/growvest/growvest_service/internal/domain/errors"
	"github.com/growvest/growvest_service/pkg/logger"
	"github.com/growvest/growvest_service/pkg/metrics"
)

// Store is the withdrawal persistence surface. Create must reserve the
// amount atomically and fail with ErrInsufficientBalance when the wallet
// cannot cover it; Approve and Reject must be single-shot on a Pending row.
type Store interface {
	Create(ctx context.Context, withdrawal *entities.Withdrawal) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Withdrawal, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Withdrawal, error)
	ListAll(ctx context.Context, status *entities.WithdrawalStatus) ([]*entities.AdminWithdrawal, error)
	Approve(ctx context.Context, id uuid.UUID) (*entities.Withdrawal, error)
	Reject(ctx context.Context, id uuid.UUID) (*entities.Withdrawal, error)
}

// AuditStore records administrative actions.
type AuditStore interface {
	Insert(ctx context.Context, log *entities.AuditLog) error
}

// Service provides withdrawal operations
type Service struct {
	store         Store
	audit         AuditStore
	minWithdrawal decimal.Decimal
	log           *logger.Logger
}

// NewService creates a new withdrawal service
func NewService(store Store, audit AuditStore, minWithdrawal decimal.Decimal, log *logger.Logger) *Service {
	return &Service{
		store:         store,
		audit:         audit,
		minWithdrawal: minWithdrawal,
		log:           log,
	}
}

// Request creates a pending withdrawal and reserves its amount out of the
// user's withdrawable balance. The minimum threshold is checked here; the
// sufficiency check happens inside the reservation transaction so two
// concurrent requests cannot both pass it.
func (s *Service) Request(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, paymentMethod string, paymentDetails *string) (*entities.Withdrawal, error) {
	if !amount.IsPositive() {
		return nil, apperrors.InvalidAmountError("withdrawal amount must be positive")
	}
	if amount.LessThan(s.minWithdrawal) {
		return nil, apperrors.InvalidAmountError(
			fmt.Sprintf("minimum withdrawal amount is %s", s.minWithdrawal),
		)
	}
	if paymentMethod == "" {
		return nil, apperrors.InvalidAmountError("payment method is required")
	}

	withdrawal := &entities.Withdrawal{
		UserID:         userID,
		Amount:         amount,
		PaymentMethod:  paymentMethod,
		PaymentDetails: paymentDetails,
	}

	if err := s.store.Create(ctx, withdrawal); err != nil {
		return nil, err
	}

	metrics.WithdrawalsTotal.WithLabelValues("requested").Inc()
	s.log.Info("withdrawal requested",
		"withdrawal_id", withdrawal.ID,
		"user_id", userID,
		"amount", amount,
	)

	return withdrawal, nil
}

// Approve finalizes a pending withdrawal and debits the user's balance.
// A request that is no longer Pending surfaces ErrAlreadyProcessed.
func (s *Service) Approve(ctx context.Context, adminID, id uuid.UUID) (*entities.Withdrawal, error) {
	withdrawal, err := s.store.Approve(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.WithdrawalsTotal.WithLabelValues("approved").Inc()
	s.log.Info("withdrawal approved",
		"withdrawal_id", withdrawal.ID,
		"user_id", withdrawal.UserID,
		"amount", withdrawal.Amount,
		"admin_id", adminID,
	)

	s.recordAudit(ctx, adminID, "withdrawal.approve", fmt.Sprintf(
		"approved withdrawal %s for %s", withdrawal.ID, withdrawal.Amount,
	))

	return withdrawal, nil
}

// Reject resolves a pending withdrawal and returns the reserved amount to
// the user's withdrawable balance.
func (s *Service) Reject(ctx context.Context, adminID, id uuid.UUID) (*entities.Withdrawal, error) {
	withdrawal, err := s.store.Reject(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.WithdrawalsTotal.WithLabelValues("rejected").Inc()
	s.log.Info("withdrawal rejected",
		"withdrawal_id", withdrawal.ID,
		"user_id", withdrawal.UserID,
		"amount", withdrawal.Amount,
		"admin_id", adminID,
	)

	s.recordAudit(ctx, adminID, "withdrawal.reject", fmt.Sprintf(
		"rejected withdrawal %s for %s", withdrawal.ID, withdrawal.Amount,
	))

	return withdrawal, nil
}

// GetByID retrieves a withdrawal by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*entities.Withdrawal, error) {
	return s.store.GetByID(ctx, id)
}

// ListByUser returns a user's withdrawal history.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Withdrawal, error) {
	return s.store.ListByUser(ctx, userID)
}

// ListAll returns withdrawals for the admin view, optionally filtered by
// status.
func (s *Service) ListAll(ctx context.Context, status *entities.WithdrawalStatus) ([]*entities.AdminWithdrawal, error) {
	return s.store.ListAll(ctx, status)
}

// recordAudit writes an audit entry. Audit failure never fails the
// resolution itself.
func (s *Service) recordAudit(ctx context.Context, adminID uuid.UUID, action, details string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Insert(ctx, &entities.AuditLog{
		AdminID: adminID,
		Action:  action,
		Details: details,
	})
	if err != nil {
		s.log.Warn("audit log write failed", "action", action, "error", err)
	}
}
