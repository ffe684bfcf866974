// Package dailyearnings schedules the daily accrual pass.
package dailyearnings

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/growvest/growvest_service/internal/domain/services/accrual"
	"github.com/growvest/growvest_service/internal/infrastructure/config"
	"github.com/growvest/growvest_service/pkg/logger"
)

// Worker runs the accrual pass on a cron schedule. Missing a tick is
// tolerated: the per-day claim in storage makes a later catch-up run safe.
type Worker struct {
	service *accrual.Service
	cfg     config.AccrualConfig
	cron    *cron.Cron
	log     *logger.Logger
}

// NewWorker creates a new daily earnings worker
func NewWorker(service *accrual.Service, cfg config.AccrualConfig, log *logger.Logger) *Worker {
	return &Worker{
		service: service,
		cfg:     cfg,
		cron:    cron.New(),
		log:     log,
	}
}

// Start registers the schedule and launches the cron loop. With RunOnStart
// set, one pass runs immediately to catch up after downtime.
func (w *Worker) Start(ctx context.Context) error {
	if !w.cfg.Enabled {
		w.log.Info("daily earnings worker disabled")
		return nil
	}

	_, err := w.cron.AddFunc(w.cfg.Schedule, func() {
		w.run(ctx)
	})
	if err != nil {
		return err
	}

	w.cron.Start()
	w.log.Info("daily earnings worker started", "schedule", w.cfg.Schedule)

	if w.cfg.RunOnStart {
		go w.run(ctx)
	}

	return nil
}

// Stop halts the cron loop and waits for a running pass to finish.
func (w *Worker) Stop() {
	stopCtx := w.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		w.log.Warn("timed out waiting for accrual pass to finish")
	}
	w.log.Info("daily earnings worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	if _, err := w.service.RunDaily(runCtx, time.Now()); err != nil {
		w.log.Error("accrual run failed", "error", err)
	}
}
