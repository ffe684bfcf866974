package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultReferralBonus is credited to the referrer when the referred user
// buys their first plan. Fixed on the referral row at creation time.
var DefaultReferralBonus = decimal.NewFromInt(200)

// Referral links a referrer to a referred user. Created at registration by
// the auth collaborator, settled here on the referred user's first purchase.
type Referral struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	ReferrerID  uuid.UUID       `json:"referrer_id" db:"referrer_id"`
	ReferredID  uuid.UUID       `json:"referred_id" db:"referred_id"`
	BonusPaid   bool            `json:"bonus_paid" db:"bonus_paid"`
	BonusAmount decimal.Decimal `json:"bonus_amount" db:"bonus_amount"`
	FirstPlanID *uuid.UUID      `json:"first_plan_id,omitempty" db:"first_plan_id"`
	CreatedAt   time.Time       `json:"date" db:"created_at"`
}

// MilestoneTier identifies a referral-count milestone.
type MilestoneTier string

const (
	MilestoneTier1 MilestoneTier = "Tier1"
	MilestoneTier2 MilestoneTier = "Tier2"
)

// MilestoneDefinition fixes the threshold and bonus of a tier.
type MilestoneDefinition struct {
	Tier      MilestoneTier
	Threshold int
	Bonus     decimal.Decimal
}

// MilestoneDefinitions lists all tiers in ascending threshold order. Both
// tiers are evaluated independently on every settlement, so a count jump can
// cross several thresholds in one pass.
var MilestoneDefinitions = []MilestoneDefinition{
	{Tier: MilestoneTier1, Threshold: 10, Bonus: decimal.NewFromInt(750)},
	{Tier: MilestoneTier2, Threshold: 25, Bonus: decimal.NewFromInt(1500)},
}

// MilestoneAward records a tier paid to a referrer. Awarding is monotonic:
// a (user, tier) pair exists at most once and is never removed.
type MilestoneAward struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	UserID    uuid.UUID     `json:"user_id" db:"user_id"`
	Tier      MilestoneTier `json:"tier" db:"tier"`
	AwardedAt time.Time     `json:"awarded_at" db:"awarded_at"`
}

// MilestoneProgress is the per-tier progress payload for the API layer.
type MilestoneProgress struct {
	Users       int             `json:"users"`
	TargetUsers int             `json:"targetUsers"`
	Bonus       decimal.Decimal `json:"bonus"`
	Achieved    bool            `json:"achieved"`
}

// ReferredUser is one row of the referral overview.
type ReferredUser struct {
	UserID      uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	JoinedDate  time.Time       `json:"joinedDate"`
	PlansCount  int             `json:"plansCount"`
	BonusEarned decimal.Decimal `json:"bonusEarned"`
}

// ReferralOverview is the response of the referral listing endpoint.
type ReferralOverview struct {
	Code          string         `json:"code"`
	ReferredUsers []ReferredUser `json:"referredUsers"`
}
