package entities

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func txn(kind TransactionKind, status TransactionStatus, amount int64) Transaction {
	return Transaction{
		Kind:   kind,
		Status: status,
		Amount: decimal.NewFromInt(amount),
	}
}

func TestDeriveBalancesEmpty(t *testing.T) {
	b := DeriveBalances(nil)

	assert.True(t, b.TotalEarnings.IsZero())
	assert.True(t, b.Balance.IsZero())
	assert.True(t, b.Withdrawable.IsZero())
}

func TestDeriveBalancesEarningsCreditAllThree(t *testing.T) {
	b := DeriveBalances([]Transaction{
		txn(TransactionKindEarning, TransactionStatusCompleted, 20),
		txn(TransactionKindReferral, TransactionStatusCompleted, 200),
		txn(TransactionKindReferralMilestone, TransactionStatusCompleted, 750),
	})

	assert.Equal(t, "970", b.TotalEarnings.String())
	assert.Equal(t, "970", b.Balance.String())
	assert.Equal(t, "970", b.Withdrawable.String())
}

func TestDeriveBalancesCompletedWithdrawalDebits(t *testing.T) {
	b := DeriveBalances([]Transaction{
		txn(TransactionKindEarning, TransactionStatusCompleted, 500),
		txn(TransactionKindWithdrawal, TransactionStatusCompleted, 150),
	})

	assert.Equal(t, "500", b.TotalEarnings.String())
	assert.Equal(t, "350", b.Balance.String())
	assert.Equal(t, "350", b.Withdrawable.String())
}

func TestDeriveBalancesPendingWithdrawalReservesOnly(t *testing.T) {
	b := DeriveBalances([]Transaction{
		txn(TransactionKindEarning, TransactionStatusCompleted, 150),
		txn(TransactionKindWithdrawal, TransactionStatusPending, 150),
	})

	// The pending request removes the amount from withdrawable but leaves
	// the balance untouched until resolution.
	assert.Equal(t, "150", b.TotalEarnings.String())
	assert.Equal(t, "150", b.Balance.String())
	assert.Equal(t, "0", b.Withdrawable.String())
}

func TestDeriveBalancesRejectedWithdrawalRestores(t *testing.T) {
	b := DeriveBalances([]Transaction{
		txn(TransactionKindEarning, TransactionStatusCompleted, 150),
		txn(TransactionKindWithdrawal, TransactionStatusRejected, 150),
	})

	assert.Equal(t, "150", b.Balance.String())
	assert.Equal(t, "150", b.Withdrawable.String())
}

func TestDeriveBalancesRefundSkipsEarnings(t *testing.T) {
	b := DeriveBalances([]Transaction{
		txn(TransactionKindRefund, TransactionStatusCompleted, 100),
	})

	assert.True(t, b.TotalEarnings.IsZero())
	assert.Equal(t, "100", b.Balance.String())
	assert.Equal(t, "100", b.Withdrawable.String())
}

func TestDeriveBalancesWithdrawableClampedAtZero(t *testing.T) {
	b := DeriveBalances([]Transaction{
		txn(TransactionKindEarning, TransactionStatusCompleted, 50),
		txn(TransactionKindWithdrawal, TransactionStatusPending, 80),
	})

	assert.Equal(t, "0", b.Withdrawable.String())
	assert.Equal(t, "50", b.Balance.String())
}

func TestDeriveBalancesDeterministic(t *testing.T) {
	log := []Transaction{
		txn(TransactionKindEarning, TransactionStatusCompleted, 20),
		txn(TransactionKindWithdrawal, TransactionStatusCompleted, 5),
		txn(TransactionKindReferral, TransactionStatusCompleted, 200),
		txn(TransactionKindWithdrawal, TransactionStatusPending, 100),
	}

	first := DeriveBalances(log)
	second := DeriveBalances(log)

	assert.True(t, first.TotalEarnings.Equal(second.TotalEarnings))
	assert.True(t, first.Balance.Equal(second.Balance))
	assert.True(t, first.Withdrawable.Equal(second.Withdrawable))
}

func TestPlanAccruedToday(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	plan := &Plan{}
	assert.False(t, plan.AccruedToday(now))

	sameDay := time.Date(2026, 3, 14, 0, 5, 0, 0, time.UTC)
	plan.LastEarningDate = &sameDay
	assert.True(t, plan.AccruedToday(now))

	yesterday := now.AddDate(0, 0, -1)
	plan.LastEarningDate = &yesterday
	assert.False(t, plan.AccruedToday(now))
}

func TestPlanCatalogFind(t *testing.T) {
	tier, ok := DefaultPlanCatalog.Find(1)
	assert.True(t, ok)
	assert.Equal(t, "Starter", tier.Name)
	assert.Equal(t, "299", tier.Price.String())
	assert.Equal(t, "20", tier.DailyReturn.String())
	assert.Equal(t, 30, tier.Days)

	_, ok = DefaultPlanCatalog.Find(42)
	assert.False(t, ok)
}

func TestTransactionKindClassification(t *testing.T) {
	assert.True(t, TransactionKindEarning.IsCredit())
	assert.True(t, TransactionKindRefund.IsCredit())
	assert.False(t, TransactionKindWithdrawal.IsCredit())

	assert.True(t, TransactionKindReferral.IsEarningKind())
	assert.False(t, TransactionKindRefund.IsEarningKind())
}
