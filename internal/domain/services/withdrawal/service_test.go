package withdrawal

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/growvest/growvest_service/internal/domain/entities"
	apperrors "github.com/growvest/growvest_service/internal/domain/errors"
	"github.com/growvest/growvest_service/pkg/logger"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, w *entities.Withdrawal) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *mockStore) GetByID(ctx context.Context, id uuid.UUID) (*entities.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Withdrawal), args.Error(1)
}

func (m *mockStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Withdrawal, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Withdrawal), args.Error(1)
}

func (m *mockStore) ListAll(ctx context.Context, status *entities.WithdrawalStatus) ([]*entities.AdminWithdrawal, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AdminWithdrawal), args.Error(1)
}

func (m *mockStore) Approve(ctx context.Context, id uuid.UUID) (*entities.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Withdrawal), args.Error(1)
}

func (m *mockStore) Reject(ctx context.Context, id uuid.UUID) (*entities.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Withdrawal), args.Error(1)
}

type mockAuditStore struct {
	mock.Mock
}

func (m *mockAuditStore) Insert(ctx context.Context, log *entities.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func newService(store *mockStore, audit *mockAuditStore) *Service {
	return NewService(store, audit, decimal.NewFromInt(100), logger.NewNop())
}

func TestRequestRejectsNonPositiveAmount(t *testing.T) {
	store := new(mockStore)
	svc := newService(store, new(mockAuditStore))

	_, err := svc.Request(context.Background(), uuid.New(), decimal.Zero, "bank", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRequestRejectsBelowMinimum(t *testing.T) {
	store := new(mockStore)
	svc := newService(store, new(mockAuditStore))

	_, err := svc.Request(context.Background(), uuid.New(), decimal.NewFromInt(99), "bank", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
}

func TestRequestAcceptsMinimumExactly(t *testing.T) {
	store := new(mockStore)
	svc := newService(store, new(mockAuditStore))
	userID := uuid.New()

	store.On("Create", mock.Anything, mock.MatchedBy(func(w *entities.Withdrawal) bool {
		return w.UserID == userID && w.Amount.Equal(decimal.NewFromInt(100))
	})).Return(nil)

	w, err := svc.Request(context.Background(), userID, decimal.NewFromInt(100), "bank", nil)

	require.NoError(t, err)
	assert.Equal(t, "bank", w.PaymentMethod)
	store.AssertExpectations(t)
}

func TestRequestPropagatesInsufficientBalance(t *testing.T) {
	store := new(mockStore)
	svc := newService(store, new(mockAuditStore))

	store.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.InsufficientBalanceError("50", "150"))

	_, err := svc.Request(context.Background(), uuid.New(), decimal.NewFromInt(150), "bank", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
}

func TestApproveRecordsAudit(t *testing.T) {
	store := new(mockStore)
	audit := new(mockAuditStore)
	svc := newService(store, audit)

	adminID := uuid.New()
	resolved := &entities.Withdrawal{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Amount: decimal.NewFromInt(150),
		Status: entities.WithdrawalStatusCompleted,
	}

	store.On("Approve", mock.Anything, resolved.ID).Return(resolved, nil)
	audit.On("Insert", mock.Anything, mock.MatchedBy(func(l *entities.AuditLog) bool {
		return l.AdminID == adminID && l.Action == "withdrawal.approve"
	})).Return(nil)

	w, err := svc.Approve(context.Background(), adminID, resolved.ID)

	require.NoError(t, err)
	assert.Equal(t, entities.WithdrawalStatusCompleted, w.Status)
	audit.AssertExpectations(t)
}

func TestApproveAlreadyProcessed(t *testing.T) {
	store := new(mockStore)
	audit := new(mockAuditStore)
	svc := newService(store, audit)

	id := uuid.New()
	store.On("Approve", mock.Anything, id).Return(nil, apperrors.AlreadyProcessedError("Completed"))

	_, err := svc.Approve(context.Background(), uuid.New(), id)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyProcessed)
	audit.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestRejectRecordsAudit(t *testing.T) {
	store := new(mockStore)
	audit := new(mockAuditStore)
	svc := newService(store, audit)

	adminID := uuid.New()
	resolved := &entities.Withdrawal{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Amount: decimal.NewFromInt(150),
		Status: entities.WithdrawalStatusRejected,
	}

	store.On("Reject", mock.Anything, resolved.ID).Return(resolved, nil)
	audit.On("Insert", mock.Anything, mock.MatchedBy(func(l *entities.AuditLog) bool {
		return l.Action == "withdrawal.reject"
	})).Return(nil)

	w, err := svc.Reject(context.Background(), adminID, resolved.ID)

	require.NoError(t, err)
	assert.Equal(t, entities.WithdrawalStatusRejected, w.Status)
	audit.AssertExpectations(t)
}

func TestResolutionSurvivesAuditFailure(t *testing.T) {
	store := new(mockStore)
	audit := new(mockAuditStore)
	svc := newService(store, audit)

	resolved := &entities.Withdrawal{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Amount: decimal.NewFromInt(200),
		Status: entities.WithdrawalStatusCompleted,
	}

	store.On("Approve", mock.Anything, resolved.ID).Return(resolved, nil)
	audit.On("Insert", mock.Anything, mock.Anything).Return(errors.New("audit table locked"))

	_, err := svc.Approve(context.Background(), uuid.New(), resolved.ID)

	require.NoError(t, err)
}
