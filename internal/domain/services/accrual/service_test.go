package accrual

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/growvest/growvest_service/internal/domain/entities"
	"github.com/growvest/growvest_service/pkg/logger"
)

type mockPlanStore struct {
	mock.Mock
}

func (m *mockPlanStore) ListActive(ctx context.Context) ([]*entities.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Plan), args.Error(1)
}

func (m *mockPlanStore) AccrueDailyEarning(ctx context.Context, plan *entities.Plan, day time.Time) (bool, error) {
	args := m.Called(ctx, plan, day)
	return args.Bool(0), args.Error(1)
}

func activePlan(daysRemaining int, lastEarning *time.Time) *entities.Plan {
	return &entities.Plan{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		DailyReturn:     decimal.NewFromInt(20),
		DaysRemaining:   daysRemaining,
		LastEarningDate: lastEarning,
		Status:          entities.PlanStatusActive,
	}
}

func TestRunDailyCreditsEligiblePlans(t *testing.T) {
	store := new(mockPlanStore)
	svc := NewService(store, logger.NewNop())
	now := time.Now()

	p1 := activePlan(10, nil)
	p2 := activePlan(5, nil)

	store.On("ListActive", mock.Anything).Return([]*entities.Plan{p1, p2}, nil)
	store.On("AccrueDailyEarning", mock.Anything, p1, now).Return(true, nil)
	store.On("AccrueDailyEarning", mock.Anything, p2, now).Return(true, nil)

	result, err := svc.RunDaily(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Credited)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Failed)
	store.AssertExpectations(t)
}

func TestRunDailySkipsPlansAlreadyAccruedToday(t *testing.T) {
	store := new(mockPlanStore)
	svc := NewService(store, logger.NewNop())
	now := time.Now()

	earnedToday := activePlan(10, &now)

	store.On("ListActive", mock.Anything).Return([]*entities.Plan{earnedToday}, nil)

	result, err := svc.RunDaily(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Credited)
	assert.Equal(t, 1, result.Skipped)
	// The store must never be asked to credit an already-accrued plan.
	store.AssertNotCalled(t, "AccrueDailyEarning", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunDailySecondRunSameDayCreditsNothing(t *testing.T) {
	store := new(mockPlanStore)
	svc := NewService(store, logger.NewNop())
	now := time.Now()

	// First run credited; the listed snapshot is stale but the store's
	// claim loses, reporting false.
	stale := activePlan(10, nil)
	store.On("ListActive", mock.Anything).Return([]*entities.Plan{stale}, nil)
	store.On("AccrueDailyEarning", mock.Anything, stale, now).Return(false, nil)

	result, err := svc.RunDaily(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Credited)
	assert.Equal(t, 1, result.Skipped)
}

func TestRunDailyIsolatesPerPlanFailures(t *testing.T) {
	store := new(mockPlanStore)
	svc := NewService(store, logger.NewNop())
	now := time.Now()

	failing := activePlan(10, nil)
	healthy := activePlan(3, nil)

	store.On("ListActive", mock.Anything).Return([]*entities.Plan{failing, healthy}, nil)
	store.On("AccrueDailyEarning", mock.Anything, failing, now).Return(false, errors.New("connection reset"))
	store.On("AccrueDailyEarning", mock.Anything, healthy, now).Return(true, nil)

	result, err := svc.RunDaily(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Credited)
	assert.Equal(t, 1, result.Failed)
	store.AssertExpectations(t)
}

func TestRunDailyFailsWhenListingFails(t *testing.T) {
	store := new(mockPlanStore)
	svc := NewService(store, logger.NewNop())

	store.On("ListActive", mock.Anything).Return(nil, errors.New("db down"))

	_, err := svc.RunDaily(context.Background(), time.Now())

	require.Error(t, err)
}

func TestAccrueForPlanSkipsSameDay(t *testing.T) {
	store := new(mockPlanStore)
	svc := NewService(store, logger.NewNop())
	now := time.Now()

	plan := activePlan(10, &now)

	credited, err := svc.AccrueForPlan(context.Background(), plan, now)

	require.NoError(t, err)
	assert.False(t, credited)
	store.AssertNotCalled(t, "AccrueDailyEarning", mock.Anything, mock.Anything, mock.Anything)
}
