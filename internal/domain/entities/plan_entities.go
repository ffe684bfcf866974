package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanStatus represents the lifecycle state of an investment plan.
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "Active"
	PlanStatusCompleted PlanStatus = "Completed"
	PlanStatusCancelled PlanStatus = "Cancelled"
)

// Validate checks if the plan status is valid.
func (s PlanStatus) Validate() error {
	switch s {
	case PlanStatusActive, PlanStatusCompleted, PlanStatusCancelled:
		return nil
	default:
		return fmt.Errorf("invalid plan status: %s", s)
	}
}

// Plan is a purchased investment position. It is mutated only by the daily
// earnings scheduler and administrative override.
type Plan struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"user_id" db:"user_id"`
	TierID          int             `json:"plan_id" db:"tier_id"`
	Name            string          `json:"name" db:"name"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	DailyReturn     decimal.Decimal `json:"daily_return" db:"daily_return"`
	Days            int             `json:"days" db:"days"`
	DaysRemaining   int             `json:"days_remaining" db:"days_remaining"`
	PurchaseDate    time.Time       `json:"purchase_date" db:"purchase_date"`
	LastEarningDate *time.Time      `json:"last_earning_date,omitempty" db:"last_earning_date"`
	Status          PlanStatus      `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// AccruedToday reports whether the plan has already earned on the calendar
// day of now. This is the scheduler's idempotency guard.
func (p *Plan) AccruedToday(now time.Time) bool {
	if p.LastEarningDate == nil {
		return false
	}
	y1, m1, d1 := p.LastEarningDate.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// PlanTier is one entry of the static plan catalog.
type PlanTier struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	DailyReturn decimal.Decimal `json:"dailyReturn"`
	Days        int             `json:"days"`
}

// PlanCatalog is a read-only set of purchasable tiers.
type PlanCatalog []PlanTier

// Find returns the tier with the given id, or false when unknown.
func (c PlanCatalog) Find(tierID int) (PlanTier, bool) {
	for _, t := range c {
		if t.ID == tierID {
			return t, true
		}
	}
	return PlanTier{}, false
}

// DefaultPlanCatalog is the fixed tier list offered by the platform.
var DefaultPlanCatalog = PlanCatalog{
	{ID: 1, Name: "Starter", Price: decimal.NewFromInt(299), DailyReturn: decimal.NewFromInt(20), Days: 30},
	{ID: 2, Name: "Basic", Price: decimal.NewFromInt(499), DailyReturn: decimal.NewFromInt(35), Days: 30},
	{ID: 3, Name: "Standard", Price: decimal.NewFromInt(999), DailyReturn: decimal.NewFromInt(60), Days: 30},
	{ID: 4, Name: "Premium", Price: decimal.NewFromInt(1999), DailyReturn: decimal.NewFromInt(120), Days: 30},
	{ID: 5, Name: "Gold", Price: decimal.NewFromInt(3499), DailyReturn: decimal.NewFromInt(200), Days: 30},
	{ID: 6, Name: "Platinum", Price: decimal.NewFromInt(4999), DailyReturn: decimal.NewFromInt(300), Days: 30},
	{ID: 7, Name: "Diamond", Price: decimal.NewFromInt(9999), DailyReturn: decimal.NewFromInt(500), Days: 30},
}
