// Package wallet implements the ledger read operation. Balances are never
// trusted from storage: every read replays the transaction log under the
// wallet row lock, persists the derived snapshot and returns the derived
// numbers.
package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/growvest/growvest_service/internal/domain/entities"
	"github.com/growvest/growvest_service/pkg/logger"
)

// Store is the persistence surface the wallet service needs. RefreshSnapshot
// must derive and persist the balances atomically with respect to concurrent
// credits and withdrawal reservations.
type Store interface {
	RefreshSnapshot(ctx context.Context, userID uuid.UUID) (entities.Balances, []entities.Transaction, error)
}

// SnapshotCache stores the latest derived wallet view for out-of-band
// readers. May be nil when Redis is disabled.
type SnapshotCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Service provides wallet operations
type Service struct {
	store    Store
	cache    SnapshotCache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewService creates a new wallet service
func NewService(store Store, cache SnapshotCache, cacheTTL time.Duration, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

func cacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("wallet:view:%s", userID)
}

// GetWallet returns the user's wallet view with authoritative balances. A
// wallet is created on first touch. Derivation and the snapshot write-back
// happen in one storage transaction holding the wallet row, so a credit or
// reservation committing mid-read can never be clobbered by a stale
// snapshot.
func (s *Service) GetWallet(ctx context.Context, userID uuid.UUID) (*entities.WalletView, error) {
	balances, transactions, err := s.store.RefreshSnapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("refresh wallet snapshot: %w", err)
	}

	view := &entities.WalletView{
		TotalEarnings: balances.TotalEarnings,
		Balance:       balances.Balance,
		Withdrawable:  balances.Withdrawable,
		Transactions:  transactions,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey(userID), view, s.cacheTTL); err != nil {
			s.log.Debug("failed to cache wallet view", "user_id", userID, "error", err)
		}
	}

	return view, nil
}
