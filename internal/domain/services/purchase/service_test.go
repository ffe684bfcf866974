package purchase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/growvest/growvest_service/internal/domain/entities"
	apperrors "github.com/growvest/growvest_service/internal/domain/errors"
	"github.com/growvest/growvest_service/pkg/logger"
)

type mockPlanStore struct {
	mock.Mock
}

func (m *mockPlanStore) Create(ctx context.Context, plan *entities.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *mockPlanStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Plan, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Plan), args.Error(1)
}

type mockReferralStore struct {
	mock.Mock
}

func (m *mockReferralStore) GetByReferredUser(ctx context.Context, referredID uuid.UUID) (*entities.Referral, error) {
	args := m.Called(ctx, referredID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Referral), args.Error(1)
}

func (m *mockReferralStore) SettleBonus(ctx context.Context, referral *entities.Referral, firstPlanID uuid.UUID) (bool, error) {
	args := m.Called(ctx, referral, firstPlanID)
	return args.Bool(0), args.Error(1)
}

func (m *mockReferralStore) CountSettledByReferrer(ctx context.Context, referrerID uuid.UUID) (int, error) {
	args := m.Called(ctx, referrerID)
	return args.Int(0), args.Error(1)
}

func (m *mockReferralStore) AwardMilestone(ctx context.Context, userID uuid.UUID, milestone entities.MilestoneDefinition) (bool, error) {
	args := m.Called(ctx, userID, milestone)
	return args.Bool(0), args.Error(1)
}

type mockCodeIssuer struct {
	mock.Mock
}

func (m *mockCodeIssuer) EnsureCode(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

type fixture struct {
	plans     *mockPlanStore
	referrals *mockReferralStore
	codes     *mockCodeIssuer
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		plans:     new(mockPlanStore),
		referrals: new(mockReferralStore),
		codes:     new(mockCodeIssuer),
	}
	f.svc = NewService(
		entities.DefaultPlanCatalog,
		f.plans, f.referrals, f.codes,
		logger.NewNop(),
	)
	return f
}

func milestoneWithTier(tier entities.MilestoneTier) interface{} {
	return mock.MatchedBy(func(def entities.MilestoneDefinition) bool {
		return def.Tier == tier
	})
}

func TestPurchaseUnknownTier(t *testing.T) {
	f := newFixture()

	_, _, err := f.svc.Purchase(context.Background(), uuid.New(), 42)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidPlan)
	f.plans.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPurchaseCreatesPlanFromTier(t *testing.T) {
	f := newFixture()
	buyer := uuid.New()

	f.plans.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.codes.On("EnsureCode", mock.Anything, buyer).Return("AB12CD34", nil)
	f.referrals.On("GetByReferredUser", mock.Anything, buyer).Return(nil, apperrors.NotFoundError("referral"))

	plan, code, err := f.svc.Purchase(context.Background(), buyer, 3)

	require.NoError(t, err)
	assert.Equal(t, "Standard", plan.Name)
	assert.Equal(t, "999", plan.Amount.String())
	assert.Equal(t, "60", plan.DailyReturn.String())
	assert.Equal(t, 30, plan.Days)
	assert.Equal(t, 30, plan.DaysRemaining)
	assert.Equal(t, entities.PlanStatusActive, plan.Status)
	assert.Equal(t, "AB12CD34", code)
	f.referrals.AssertNotCalled(t, "SettleBonus", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchaseFirstPlanSettlesReferralBonus(t *testing.T) {
	f := newFixture()
	buyer := uuid.New()
	referrer := uuid.New()

	referral := &entities.Referral{
		ID:          uuid.New(),
		ReferrerID:  referrer,
		ReferredID:  buyer,
		BonusAmount: entities.DefaultReferralBonus,
	}

	f.plans.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.codes.On("EnsureCode", mock.Anything, buyer).Return("AB12CD34", nil)
	f.referrals.On("GetByReferredUser", mock.Anything, buyer).Return(referral, nil)
	f.referrals.On("SettleBonus", mock.Anything, referral, mock.Anything).Return(true, nil)
	f.referrals.On("CountSettledByReferrer", mock.Anything, referrer).Return(1, nil)

	_, _, err := f.svc.Purchase(context.Background(), buyer, 1)

	require.NoError(t, err)
	f.referrals.AssertExpectations(t)
}

func TestPurchaseSecondPlanSettlesNothing(t *testing.T) {
	f := newFixture()
	buyer := uuid.New()

	settled := &entities.Referral{
		ID:          uuid.New(),
		ReferrerID:  uuid.New(),
		ReferredID:  buyer,
		BonusPaid:   true,
		BonusAmount: entities.DefaultReferralBonus,
	}

	f.plans.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.codes.On("EnsureCode", mock.Anything, buyer).Return("AB12CD34", nil)
	f.referrals.On("GetByReferredUser", mock.Anything, buyer).Return(settled, nil)

	_, _, err := f.svc.Purchase(context.Background(), buyer, 1)

	require.NoError(t, err)
	f.referrals.AssertNotCalled(t, "SettleBonus", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchaseLostSettlementRaceSkipsMilestones(t *testing.T) {
	f := newFixture()
	buyer := uuid.New()

	referral := &entities.Referral{
		ID:          uuid.New(),
		ReferrerID:  uuid.New(),
		ReferredID:  buyer,
		BonusAmount: entities.DefaultReferralBonus,
	}

	f.plans.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.codes.On("EnsureCode", mock.Anything, buyer).Return("AB12CD34", nil)
	f.referrals.On("GetByReferredUser", mock.Anything, buyer).Return(referral, nil)
	f.referrals.On("SettleBonus", mock.Anything, referral, mock.Anything).Return(false, nil)

	_, _, err := f.svc.Purchase(context.Background(), buyer, 1)

	require.NoError(t, err)
	f.referrals.AssertNotCalled(t, "CountSettledByReferrer", mock.Anything, mock.Anything)
}

func TestPurchaseRetriesSettlementAfterEarlierFailure(t *testing.T) {
	f := newFixture()
	buyer := uuid.New()
	referrer := uuid.New()

	referral := &entities.Referral{
		ID:          uuid.New(),
		ReferrerID:  referrer,
		ReferredID:  buyer,
		BonusAmount: entities.DefaultReferralBonus,
	}

	f.plans.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.codes.On("EnsureCode", mock.Anything, buyer).Return("AB12CD34", nil)
	// A failed settlement rolls the bonus_paid flag back, so the referral is
	// re-read unsettled on the next purchase and the bonus is retried rather
	// than lost.
	f.referrals.On("GetByReferredUser", mock.Anything, buyer).Return(referral, nil)
	f.referrals.On("SettleBonus", mock.Anything, referral, mock.Anything).Return(false, errors.New("boom")).Once()
	f.referrals.On("SettleBonus", mock.Anything, referral, mock.Anything).Return(true, nil).Once()
	f.referrals.On("CountSettledByReferrer", mock.Anything, referrer).Return(1, nil)

	_, _, err := f.svc.Purchase(context.Background(), buyer, 1)
	require.NoError(t, err)

	_, _, err = f.svc.Purchase(context.Background(), buyer, 1)
	require.NoError(t, err)

	f.referrals.AssertNumberOfCalls(t, "SettleBonus", 2)
	f.referrals.AssertExpectations(t)
}

func TestPurchaseAwardsMilestoneAtThreshold(t *testing.T) {
	f := newFixture()
	buyer := uuid.New()
	referrer := uuid.New()

	referral := &entities.Referral{
		ID:          uuid.New(),
		ReferrerID:  referrer,
		ReferredID:  buyer,
		BonusAmount: entities.DefaultReferralBonus,
	}

	f.plans.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.codes.On("EnsureCode", mock.Anything, buyer).Return("AB12CD34", nil)
	f.referrals.On("GetByReferredUser", mock.Anything, buyer).Return(referral, nil)
	f.referrals.On("SettleBonus", mock.Anything, referral, mock.Anything).Return(true, nil)

	// Tenth settled referral crosses the Tier1 threshold; Tier2 stays out of
	// reach, so only one award attempt happens.
	f.referrals.On("CountSettledByReferrer", mock.Anything, referrer).Return(10, nil)
	f.referrals.On("AwardMilestone", mock.Anything, referrer, milestoneWithTier(entities.MilestoneTier1)).
		Return(true, nil).Once()

	_, _, err := f.svc.Purchase(context.Background(), buyer, 1)

	require.NoError(t, err)
	f.referrals.AssertExpectations(t)
	f.referrals.AssertNumberOfCalls(t, "AwardMilestone", 1)
}

func TestPurchaseMilestoneAwardedExactlyOnce(t *testing.T) {
	f := newFixture()
	buyer := uuid.New()
	referrer := uuid.New()

	referral := &entities.Referral{
		ID:          uuid.New(),
		ReferrerID:  referrer,
		ReferredID:  buyer,
		BonusAmount: entities.DefaultReferralBonus,
	}

	f.plans.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.codes.On("EnsureCode", mock.Anything, buyer).Return("AB12CD34", nil)
	f.referrals.On("GetByReferredUser", mock.Anything, buyer).Return(referral, nil)
	f.referrals.On("SettleBonus", mock.Anything, referral, mock.Anything).Return(true, nil)

	// Count is past the threshold but the tier was already awarded; the
	// store reports false and the purchase carries on quietly.
	f.referrals.On("CountSettledByReferrer", mock.Anything, referrer).Return(12, nil)
	f.referrals.On("AwardMilestone", mock.Anything, referrer, milestoneWithTier(entities.MilestoneTier1)).
		Return(false, nil)

	_, _, err := f.svc.Purchase(context.Background(), buyer, 1)

	require.NoError(t, err)
	f.referrals.AssertExpectations(t)
}

func TestPurchaseSucceedsWhenCascadeFails(t *testing.T) {
	f := newFixture()
	buyer := uuid.New()

	f.plans.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.codes.On("EnsureCode", mock.Anything, buyer).Return("", apperrors.ErrReferralCodeExhausted)
	f.referrals.On("GetByReferredUser", mock.Anything, buyer).Return(nil, errors.New("boom"))

	plan, code, err := f.svc.Purchase(context.Background(), buyer, 2)

	// The plan purchase is the primary commitment; cascade failures are
	// logged, never propagated.
	require.NoError(t, err)
	assert.Equal(t, "Basic", plan.Name)
	assert.Empty(t, code)
}

func TestCreateForUserSkipsCascade(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	f.plans.On("Create", mock.Anything, mock.Anything).Return(nil)

	plan, err := f.svc.CreateForUser(context.Background(), userID, 1)

	require.NoError(t, err)
	assert.Equal(t, userID, plan.UserID)
	f.codes.AssertNotCalled(t, "EnsureCode", mock.Anything, mock.Anything)
	f.referrals.AssertNotCalled(t, "GetByReferredUser", mock.Anything, mock.Anything)
}
