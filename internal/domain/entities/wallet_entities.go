package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind represents the type of a wallet transaction.
type TransactionKind string

const (
	TransactionKindEarning           TransactionKind = "Earning"
	TransactionKindWithdrawal        TransactionKind = "Withdrawal"
	TransactionKindRefund            TransactionKind = "Refund"
	TransactionKindReferral          TransactionKind = "Referral"
	TransactionKindReferralMilestone TransactionKind = "ReferralMilestone"
)

// Validate checks if the transaction kind is valid.
func (k TransactionKind) Validate() error {
	switch k {
	case TransactionKindEarning, TransactionKindWithdrawal, TransactionKindRefund,
		TransactionKindReferral, TransactionKindReferralMilestone:
		return nil
	default:
		return fmt.Errorf("invalid transaction kind: %s", k)
	}
}

// IsCredit returns true for kinds that add to the wallet when completed.
func (k TransactionKind) IsCredit() bool {
	return k == TransactionKindEarning ||
		k == TransactionKindReferral ||
		k == TransactionKindReferralMilestone ||
		k == TransactionKindRefund
}

// IsEarningKind returns true for kinds counted into lifetime earnings.
func (k TransactionKind) IsEarningKind() bool {
	return k == TransactionKindEarning ||
		k == TransactionKindReferral ||
		k == TransactionKindReferralMilestone
}

// TransactionStatus represents the status of a wallet transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "Pending"
	TransactionStatusCompleted TransactionStatus = "Completed"
	TransactionStatusRejected  TransactionStatus = "Rejected"
)

// Validate checks if the transaction status is valid.
func (s TransactionStatus) Validate() error {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusRejected:
		return nil
	default:
		return fmt.Errorf("invalid transaction status: %s", s)
	}
}

// Transaction is a single entry in a wallet's append-only log. Completed
// entries are immutable; only a Pending withdrawal entry may later move to
// Completed or Rejected.
type Transaction struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	WalletID     uuid.UUID         `json:"wallet_id" db:"wallet_id"`
	Kind         TransactionKind   `json:"kind" db:"kind"`
	Amount       decimal.Decimal   `json:"amount" db:"amount"`
	Status       TransactionStatus `json:"status" db:"status"`
	PlanID       *uuid.UUID        `json:"plan_id,omitempty" db:"plan_id"`
	WithdrawalID *uuid.UUID        `json:"withdrawal_id,omitempty" db:"withdrawal_id"`
	CreatedAt    time.Time         `json:"date" db:"created_at"`
}

// Validate validates the transaction.
func (t *Transaction) Validate() error {
	if t.ID == uuid.Nil {
		return fmt.Errorf("transaction ID is required")
	}
	if t.WalletID == uuid.Nil {
		return fmt.Errorf("wallet ID is required")
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := t.Status.Validate(); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("transaction amount must be positive")
	}
	return nil
}

// Wallet is the per-user ledger. The three balance columns are denormalized
// caches of DeriveBalances over the transaction log and are overwritten on
// every read.
type Wallet struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	TotalEarnings decimal.Decimal `json:"total_earnings" db:"total_earnings"`
	Balance       decimal.Decimal `json:"balance" db:"balance"`
	Withdrawable  decimal.Decimal `json:"withdrawable" db:"withdrawable"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`

	Transactions []Transaction `json:"transactions" db:"-"`
}

// Balances is the derived numeric state of a wallet.
type Balances struct {
	TotalEarnings decimal.Decimal `json:"total_earnings"`
	Balance       decimal.Decimal `json:"balance"`
	Withdrawable  decimal.Decimal `json:"withdrawable"`
}

// DeriveBalances replays a wallet's transaction log and returns the
// authoritative balances.
//
// Completed Earning/Referral/ReferralMilestone entries credit totalEarnings,
// balance and withdrawable. Completed Withdrawal entries debit balance and
// withdrawable. Completed Refund entries credit balance and withdrawable
// without touching totalEarnings. A still-Pending Withdrawal reserves its
// amount out of withdrawable only; balance is untouched until resolution.
// Withdrawable is clamped at zero.
func DeriveBalances(transactions []Transaction) Balances {
	var totalEarnings, balance, withdrawable decimal.Decimal

	for _, t := range transactions {
		switch t.Status {
		case TransactionStatusCompleted:
			switch t.Kind {
			case TransactionKindEarning, TransactionKindReferral, TransactionKindReferralMilestone:
				totalEarnings = totalEarnings.Add(t.Amount)
				balance = balance.Add(t.Amount)
				withdrawable = withdrawable.Add(t.Amount)
			case TransactionKindWithdrawal:
				balance = balance.Sub(t.Amount)
				withdrawable = withdrawable.Sub(t.Amount)
			case TransactionKindRefund:
				balance = balance.Add(t.Amount)
				withdrawable = withdrawable.Add(t.Amount)
			}
		case TransactionStatusPending:
			if t.Kind == TransactionKindWithdrawal {
				withdrawable = withdrawable.Sub(t.Amount)
			}
		}
	}

	if withdrawable.IsNegative() {
		withdrawable = decimal.Zero
	}

	return Balances{
		TotalEarnings: totalEarnings,
		Balance:       balance,
		Withdrawable:  withdrawable,
	}
}

// WalletView is the wallet payload returned to the API layer.
type WalletView struct {
	TotalEarnings decimal.Decimal `json:"totalEarnings"`
	Balance       decimal.Decimal `json:"balance"`
	Withdrawable  decimal.Decimal `json:"withdrawable"`
	Transactions  []Transaction   `json:"transactions"`
}
