// Package referral implements referral code issuance, the referral overview
// and milestone progress reporting.
package referral

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"

	"github.com/growvest/growvest_service/internal/domain/entities"
	apperrors "github.com/growvest/growvest_service/internal/domain/errors"
	"github.com/growvest/growvest_service/pkg/logger"
)

const (
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength  = 8
	codeRetries = 10
)

// UserStore is the user persistence surface the referral service needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	SetReferralCode(ctx context.Context, userID uuid.UUID, code string) (bool, error)
}

// Store is the referral persistence surface.
type Store interface {
	ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]entities.ReferredUser, error)
	CountSettledByReferrer(ctx context.Context, referrerID uuid.UUID) (int, error)
	ListMilestones(ctx context.Context, userID uuid.UUID) ([]entities.MilestoneAward, error)
}

// MilestoneReport is the per-tier progress payload.
type MilestoneReport struct {
	Tier1 entities.MilestoneProgress `json:"tier1"`
	Tier2 entities.MilestoneProgress `json:"tier2"`
}

// Service provides referral operations
type Service struct {
	users UserStore
	store Store
	log   *logger.Logger
}

// NewService creates a new referral service
func NewService(users UserStore, store Store, log *logger.Logger) *Service {
	return &Service{users: users, store: store, log: log}
}

// EnsureCode returns the user's referral code, minting one on first use.
// Generation is bounded: after codeRetries collisions the attempt is
// abandoned with ErrReferralCodeExhausted rather than looping forever.
func (s *Service) EnsureCode(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	if user.ReferralCode != nil && *user.ReferralCode != "" {
		return *user.ReferralCode, nil
	}

	for attempt := 0; attempt < codeRetries; attempt++ {
		code, err := generateCode()
		if err != nil {
			return "", fmt.Errorf("generate referral code: %w", err)
		}

		ok, err := s.users.SetReferralCode(ctx, userID, code)
		if err != nil {
			return "", fmt.Errorf("set referral code: %w", err)
		}
		if ok {
			s.log.Info("referral code issued", "user_id", userID, "attempts", attempt+1)
			return code, nil
		}

		// The code collided, or another request assigned one first.
		user, err = s.users.GetByID(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("get user: %w", err)
		}
		if user.ReferralCode != nil && *user.ReferralCode != "" {
			return *user.ReferralCode, nil
		}
	}

	return "", apperrors.ErrReferralCodeExhausted
}

// Overview returns the user's referral code and everyone they brought in.
func (s *Service) Overview(ctx context.Context, userID uuid.UUID) (*entities.ReferralOverview, error) {
	code, err := s.EnsureCode(ctx, userID)
	if err != nil {
		return nil, err
	}

	referred, err := s.store.ListByReferrer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list referred users: %w", err)
	}

	return &entities.ReferralOverview{
		Code:          code,
		ReferredUsers: referred,
	}, nil
}

// Milestones reports progress toward both tiers. Progress counts settled
// referrals only; achievement reflects recorded awards, not the raw count,
// so the report stays consistent with what was actually paid.
func (s *Service) Milestones(ctx context.Context, userID uuid.UUID) (*MilestoneReport, error) {
	count, err := s.store.CountSettledByReferrer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count settled referrals: %w", err)
	}

	awards, err := s.store.ListMilestones(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}

	awarded := make(map[entities.MilestoneTier]bool, len(awards))
	for _, a := range awards {
		awarded[a.Tier] = true
	}

	report := &MilestoneReport{}
	for _, def := range entities.MilestoneDefinitions {
		progress := entities.MilestoneProgress{
			Users:       count,
			TargetUsers: def.Threshold,
			Bonus:       def.Bonus,
			Achieved:    awarded[def.Tier],
		}
		switch def.Tier {
		case entities.MilestoneTier1:
			report.Tier1 = progress
		case entities.MilestoneTier2:
			report.Tier2 = progress
		}
	}

	return report, nil
}

func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(buf), nil
}
