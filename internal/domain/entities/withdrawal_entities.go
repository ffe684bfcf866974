package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WithdrawalStatus represents the state of a withdrawal request.
// Pending is the only non-terminal state.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "Pending"
	WithdrawalStatusCompleted WithdrawalStatus = "Completed"
	WithdrawalStatusRejected  WithdrawalStatus = "Rejected"
)

// Validate checks if the withdrawal status is valid.
func (s WithdrawalStatus) Validate() error {
	switch s {
	case WithdrawalStatusPending, WithdrawalStatusCompleted, WithdrawalStatusRejected:
		return nil
	default:
		return fmt.Errorf("invalid withdrawal status: %s", s)
	}
}

// Withdrawal is a payout request. Its amount is reserved out of the wallet's
// withdrawable balance at creation and finalized or returned on resolution.
type Withdrawal struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	UserID         uuid.UUID        `json:"user_id" db:"user_id"`
	Amount         decimal.Decimal  `json:"amount" db:"amount"`
	Status         WithdrawalStatus `json:"status" db:"status"`
	PaymentMethod  string           `json:"payment_method" db:"payment_method"`
	PaymentDetails *string          `json:"payment_details,omitempty" db:"payment_details"`
	RequestDate    time.Time        `json:"request_date" db:"request_date"`
	ProcessedDate  *time.Time       `json:"processed_date,omitempty" db:"processed_date"`
}

// IsPending reports whether the withdrawal can still be resolved.
func (w *Withdrawal) IsPending() bool {
	return w.Status == WithdrawalStatusPending
}

// AdminWithdrawal is a withdrawal joined with its owner for the admin list.
type AdminWithdrawal struct {
	Withdrawal
	UserName  string `json:"user_name" db:"user_name"`
	UserEmail string `json:"user_email" db:"user_email"`
}
