package wallet

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

type mockStore struct {
	mock.Mock
}

func (m *mockStore) RefreshSnapshot(ctx context.Context, userID uuid.UUID) (entities.Balances, []entities.Transaction, error) {
	args := m.Called(ctx, userID)
	var transactions []entities.Transaction
	if args.Get(1) != nil {
		transactions = args.Get(1).([]entities.Transaction)
	}
	return args.Get(0).(entities.Balances), transactions, args.Error(2)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func TestGetWalletReturnsRefreshedView(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil, 0, logger.NewNop())

	userID := uuid.New()
	balances := entities.Balances{
		TotalEarnings: decimal.NewFromInt(60),
		Balance:       decimal.NewFromInt(60),
		Withdrawable:  decimal.NewFromInt(20),
	}
	log := []entities.Transaction{
		{Kind: entities.TransactionKindEarning, Status: entities.TransactionStatusCompleted, Amount: decimal.NewFromInt(60)},
		{Kind: entities.TransactionKindWithdrawal, Status: entities.TransactionStatusPending, Amount: decimal.NewFromInt(40)},
	}

	store.On("RefreshSnapshot", mock.Anything, userID).Return(balances, log, nil)

	view, err := svc.GetWallet(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, "60", view.TotalEarnings.String())
	assert.Equal(t, "60", view.Balance.String())
	assert.Equal(t, "20", view.Withdrawable.String())
	assert.Len(t, view.Transactions, 2)
	store.AssertExpectations(t)
}

func TestGetWalletPropagatesRefreshFailure(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil, 0, logger.NewNop())

	userID := uuid.New()
	store.On("RefreshSnapshot", mock.Anything, userID).
		Return(entities.Balances{}, nil, errors.New("lock timeout"))

	_, err := svc.GetWallet(context.Background(), userID)

	require.Error(t, err)
}

func TestGetWalletCachesView(t *testing.T) {
	store := new(mockStore)
	cache := new(mockCache)
	svc := NewService(store, cache, time.Minute, logger.NewNop())

	userID := uuid.New()
	store.On("RefreshSnapshot", mock.Anything, userID).
		Return(entities.Balances{}, []entities.Transaction{}, nil)
	cache.On("Set", mock.Anything, cacheKey(userID), mock.Anything, time.Minute).Return(nil)

	_, err := svc.GetWallet(context.Background(), userID)

	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestGetWalletSurvivesCacheFailure(t *testing.T) {
	store := new(mockStore)
	cache := new(mockCache)
	svc := NewService(store, cache, time.Minute, logger.NewNop())

	userID := uuid.New()
	store.On("RefreshSnapshot", mock.Anything, userID).
		Return(entities.Balances{}, []entities.Transaction{}, nil)
	cache.On("Set", mock.Anything, cacheKey(userID), mock.Anything, time.Minute).
		Return(errors.New("redis down"))

	view, err := svc.GetWallet(context.Background(), userID)

	// The cache is best effort; the derived view is still returned.
	require.NoError(t, err)
	assert.True(t, view.Balance.IsZero())
}
