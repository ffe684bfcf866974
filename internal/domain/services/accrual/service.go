// Package accrual implements the daily earnings pass over active plans.
package accrual

import (
	"context"
	"fmt"
	"time"

	"github.com/growvest/growvest_service/internal/domain/entities"
	"github.com/growvest/growvest_service/pkg/logger"
	"github.com/growvest/growvest_service/pkg/metrics"
)

// PlanStore is the persistence surface the accrual pass needs. The store's
// AccrueDailyEarning must claim the day and credit the wallet atomically and
// report false when the plan already earned that day.
type PlanStore interface {
	ListActive(ctx context.Context) ([]*entities.Plan, error)
	AccrueDailyEarning(ctx context.Context, plan *entities.Plan, day time.Time) (bool, error)
}

// Result summarizes one accrual run.
type Result struct {
	Credited int
	Skipped  int
	Failed   int
}

// Service runs the daily accrual pass
type Service struct {
	plans PlanStore
	log   *logger.Logger
}

// NewService creates a new accrual service
func NewService(plans PlanStore, log *logger.Logger) *Service {
	return &Service{plans: plans, log: log}
}

// RunDaily credits one day of earnings to every active plan that has not
// earned on now's calendar day yet. Plans fail independently: a storage
// error on one plan is logged and counted, and the pass moves on. The run
// itself fails only when the active set cannot be listed.
func (s *Service) RunDaily(ctx context.Context, now time.Time) (Result, error) {
	var result Result

	plans, err := s.plans.ListActive(ctx)
	if err != nil {
		metrics.AccrualRunsTotal.WithLabelValues("error").Inc()
		return result, fmt.Errorf("list active plans: %w", err)
	}

	s.log.Info("accrual run started", "active_plans", len(plans), "day", now.Format("2006-01-02"))

	for _, plan := range plans {
		select {
		case <-ctx.Done():
			metrics.AccrualRunsTotal.WithLabelValues("cancelled").Inc()
			return result, ctx.Err()
		default:
		}

		if plan.AccruedToday(now) {
			result.Skipped++
			continue
		}

		credited, err := s.plans.AccrueDailyEarning(ctx, plan, now)
		if err != nil {
			result.Failed++
			metrics.AccrualCreditsTotal.WithLabelValues("error").Inc()
			s.log.Error("plan accrual failed",
				"plan_id", plan.ID,
				"user_id", plan.UserID,
				"error", err,
			)
			continue
		}
		if !credited {
			// Lost the claim to a concurrent run, or the plan completed
			// between listing and claiming.
			result.Skipped++
			metrics.AccrualCreditsTotal.WithLabelValues("skipped").Inc()
			continue
		}

		result.Credited++
		metrics.AccrualCreditsTotal.WithLabelValues("credited").Inc()

		if plan.DaysRemaining-1 <= 0 {
			s.log.Info("plan completed its earning schedule",
				"plan_id", plan.ID,
				"user_id", plan.UserID,
			)
		}
	}

	if result.Failed > 0 {
		metrics.AccrualRunsTotal.WithLabelValues("partial").Inc()
	} else {
		metrics.AccrualRunsTotal.WithLabelValues("success").Inc()
	}

	s.log.Info("accrual run finished",
		"credited", result.Credited,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)

	return result, nil
}

// AccrueForPlan runs the accrual step for a single plan. Used by the admin
// surface to replay a missed day for one position.
func (s *Service) AccrueForPlan(ctx context.Context, plan *entities.Plan, now time.Time) (bool, error) {
	if plan.AccruedToday(now) {
		return false, nil
	}
	return s.plans.AccrueDailyEarning(ctx, plan, now)
}
