// Package purchase implements plan purchase and the settlement cascade it
// triggers: referral bonus on the buyer's first plan and milestone awards
// for the referrer.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/growvest/growvest_service/internal/domain/entities"
	apperrors "github.com/growvest/growvest_service/internal/domain/errors"
	"github.com/growvest/growvest_service/pkg/logger"
)

// PlanStore is the plan persistence surface.
type PlanStore interface {
	Create(ctx context.Context, plan *entities.Plan) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Plan, error)
}

// ReferralStore is the referral persistence surface the cascade needs. Both
// settlement calls commit their flag and the matching wallet credit
// atomically, so a reported success always means the money moved.
type ReferralStore interface {
	GetByReferredUser(ctx context.Context, referredID uuid.UUID) (*entities.Referral, error)
	SettleBonus(ctx context.Context, referral *entities.Referral, firstPlanID uuid.UUID) (bool, error)
	CountSettledByReferrer(ctx context.Context, referrerID uuid.UUID) (int, error)
	AwardMilestone(ctx context.Context, userID uuid.UUID, milestone entities.MilestoneDefinition) (bool, error)
}

// CodeIssuer mints the buyer's referral code on first purchase.
type CodeIssuer interface {
	EnsureCode(ctx context.Context, userID uuid.UUID) (string, error)
}

// Service provides plan purchase operations
type Service struct {
	catalog   entities.PlanCatalog
	plans     PlanStore
	referrals ReferralStore
	codes     CodeIssuer
	log       *logger.Logger
}

// NewService creates a new purchase service
func NewService(
	catalog entities.PlanCatalog,
	plans PlanStore,
	referrals ReferralStore,
	codes CodeIssuer,
	log *logger.Logger,
) *Service {
	return &Service{
		catalog:   catalog,
		plans:     plans,
		referrals: referrals,
		codes:     codes,
		log:       log,
	}
}

// Catalog returns the purchasable tiers.
func (s *Service) Catalog() entities.PlanCatalog {
	return s.catalog
}

// ListUserPlans returns all plans the user has purchased, newest first.
func (s *Service) ListUserPlans(ctx context.Context, userID uuid.UUID) ([]*entities.Plan, error) {
	return s.plans.ListByUser(ctx, userID)
}

// Purchase creates a plan for the given tier and returns it together with
// the buyer's referral code. Plan creation is the primary commitment: once
// the plan row exists the purchase has succeeded. The follow-on steps --
// referral code issuance, referral settlement, milestone awards -- are best
// effort and their failures are logged, never rolled back into the
// purchase. The returned code is empty when issuance failed.
func (s *Service) Purchase(ctx context.Context, userID uuid.UUID, tierID int) (*entities.Plan, string, error) {
	plan, err := s.createPlan(ctx, userID, tierID)
	if err != nil {
		return nil, "", err
	}

	code, err := s.codes.EnsureCode(ctx, userID)
	if err != nil {
		s.log.Warn("referral code issuance failed after purchase",
			"user_id", userID,
			"error", err,
		)
		code = ""
	}

	s.settleReferral(ctx, userID, plan)

	return plan, code, nil
}

// CreateForUser grants a plan directly, without the purchase cascade. Admin
// surface only.
func (s *Service) CreateForUser(ctx context.Context, userID uuid.UUID, tierID int) (*entities.Plan, error) {
	return s.createPlan(ctx, userID, tierID)
}

func (s *Service) createPlan(ctx context.Context, userID uuid.UUID, tierID int) (*entities.Plan, error) {
	tier, ok := s.catalog.Find(tierID)
	if !ok {
		return nil, apperrors.InvalidPlanError(tierID)
	}

	now := time.Now()
	plan := &entities.Plan{
		ID:            uuid.New(),
		UserID:        userID,
		TierID:        tier.ID,
		Name:          tier.Name,
		Amount:        tier.Price,
		DailyReturn:   tier.DailyReturn,
		Days:          tier.Days,
		DaysRemaining: tier.Days,
		PurchaseDate:  now,
		Status:        entities.PlanStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	s.log.Info("plan created",
		"user_id", userID,
		"plan_id", plan.ID,
		"tier", tier.Name,
		"amount", tier.Price,
	)

	return plan, nil
}

// settleReferral pays the referrer's one-time bonus when this purchase is
// the referred user's first, then re-evaluates milestones. The guarded
// bonus_paid flip makes settlement single-shot even under concurrent first
// purchases, and the flip commits together with the credit: a failed
// settlement leaves the flag down, so the referred user's next purchase
// retries it.
func (s *Service) settleReferral(ctx context.Context, buyerID uuid.UUID, plan *entities.Plan) {
	referral, err := s.referrals.GetByReferredUser(ctx, buyerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return
		}
		s.log.Warn("referral lookup failed", "user_id", buyerID, "error", err)
		return
	}
	if referral.BonusPaid {
		return
	}

	settled, err := s.referrals.SettleBonus(ctx, referral, plan.ID)
	if err != nil {
		s.log.Error("referral settlement failed",
			"referral_id", referral.ID,
			"referrer_id", referral.ReferrerID,
			"error", err,
		)
		return
	}
	if !settled {
		return
	}

	s.log.Info("referral bonus paid",
		"referrer_id", referral.ReferrerID,
		"referred_id", buyerID,
		"amount", referral.BonusAmount,
	)

	s.evaluateMilestones(ctx, referral.ReferrerID)
}

// evaluateMilestones awards every tier whose threshold the referrer's
// settled count has reached. Tiers are checked independently, so a count
// that jumps past several thresholds awards them all in one pass.
func (s *Service) evaluateMilestones(ctx context.Context, referrerID uuid.UUID) {
	count, err := s.referrals.CountSettledByReferrer(ctx, referrerID)
	if err != nil {
		s.log.Warn("milestone count failed", "referrer_id", referrerID, "error", err)
		return
	}

	for _, def := range entities.MilestoneDefinitions {
		if count < def.Threshold {
			continue
		}

		awarded, err := s.referrals.AwardMilestone(ctx, referrerID, def)
		if err != nil {
			s.log.Error("milestone award failed",
				"referrer_id", referrerID,
				"tier", def.Tier,
				"error", err,
			)
			continue
		}
		if !awarded {
			continue
		}

		s.log.Info("milestone bonus paid",
			"referrer_id", referrerID,
			"tier", def.Tier,
			"amount", def.Bonus,
		)
	}
}
