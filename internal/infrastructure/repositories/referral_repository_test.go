package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growvest/growvest_service/internal/domain/entities"
)

func TestSettleBonusFlipsFlagAndCreditsAtomically(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReferralRepository(db)
	referrer := uuid.New()

	referral := &entities.Referral{
		ID:          uuid.New(),
		ReferrerID:  referrer,
		ReferredID:  uuid.New(),
		BonusAmount: entities.DefaultReferralBonus,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE referrals").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO wallets").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(walletRows(uuid.New(), referrer))
	mock.ExpectExec("INSERT INTO wallet_transactions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE wallets").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	settled, err := repo.SettleBonus(context.Background(), referral, uuid.New())

	require.NoError(t, err)
	assert.True(t, settled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleBonusRollsBackFlagWhenCreditFails(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReferralRepository(db)
	referrer := uuid.New()

	referral := &entities.Referral{
		ID:          uuid.New(),
		ReferrerID:  referrer,
		ReferredID:  uuid.New(),
		BonusAmount: entities.DefaultReferralBonus,
	}

	// The flag flip and the credit share one transaction: when the credit
	// fails the flip rolls back, so the referral stays unsettled and the
	// next purchase retries the bonus instead of losing it.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE referrals").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO wallets").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(walletRows(uuid.New(), referrer))
	mock.ExpectExec("INSERT INTO wallet_transactions").WillReturnError(errors.New("credit failed"))
	mock.ExpectRollback()

	settled, err := repo.SettleBonus(context.Background(), referral, uuid.New())

	require.Error(t, err)
	assert.False(t, settled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleBonusLostRaceCreditsNothing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReferralRepository(db)

	referral := &entities.Referral{
		ID:          uuid.New(),
		ReferrerID:  uuid.New(),
		ReferredID:  uuid.New(),
		BonusAmount: entities.DefaultReferralBonus,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE referrals").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	settled, err := repo.SettleBonus(context.Background(), referral, uuid.New())

	require.NoError(t, err)
	assert.False(t, settled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardMilestoneCreditsBonusAtomically(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReferralRepository(db)
	referrer := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO referral_milestones").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO wallets").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(walletRows(uuid.New(), referrer))
	mock.ExpectExec("INSERT INTO wallet_transactions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE wallets").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	awarded, err := repo.AwardMilestone(context.Background(), referrer, entities.MilestoneDefinitions[0])

	require.NoError(t, err)
	assert.True(t, awarded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardMilestoneSecondAttemptInsertsNothing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReferralRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO referral_milestones").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	awarded, err := repo.AwardMilestone(context.Background(), uuid.New(), entities.MilestoneDefinitions[0])

	require.NoError(t, err)
	assert.False(t, awarded)
	assert.NoError(t, mock.ExpectationsWereMet())
}
