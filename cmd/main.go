package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/growvest/growvest_service/internal/api/handlers"
	"github.com/growvest/growvest_service/internal/api/routes"
	"github.com/growvest/growvest_service/internal/domain/entities"
	"github.com/growvest/growvest_service/internal/domain/services/accrual"
	"github.com/growvest/growvest_service/internal/domain/services/purchase"
	"github.com/growvest/growvest_service/internal/domain/services/referral"
	"github.com/growvest/growvest_service/internal/domain/services/wallet"
	"github.com/growvest/growvest_service/internal/domain/services/withdrawal"
	"github.com/growvest/growvest_service/internal/infrastructure/cache"
	"github.com/growvest/growvest_service/internal/infrastructure/config"
	"github.com/growvest/growvest_service/internal/infrastructure/database"
	"github.com/growvest/growvest_service/internal/infrastructure/repositories"
	dailyearnings "github.com/growvest/growvest_service/internal/workers/daily_earnings"
	"github.com/growvest/growvest_service/pkg/logger"
	"github.com/growvest/growvest_service/pkg/metrics"
	"github.com/growvest/growvest_service/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.Environment)
	defer log.Sync()

	log.Info("starting growvest service", "environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.InitTracer(ctx, tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		CollectorURL: cfg.Tracing.CollectorURL,
		Environment:  cfg.Environment,
		SampleRate:   cfg.Tracing.SampleRate,
		Insecure:     cfg.Tracing.Insecure,
	}, log.Zap())
	if err != nil {
		log.Fatal("failed to init tracing", "error", err)
	}
	defer shutdownTracer(context.Background())

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database.URL); err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}
	log.Info("database migrations applied")

	var redis cache.RedisClient
	if cfg.Redis.Enabled {
		redis, err = cache.NewRedisClient(&cfg.Redis, log.Zap())
		if err != nil {
			log.Warn("redis unavailable, continuing without cache", "error", err)
			redis = nil
		} else {
			defer redis.Close()
		}
	}

	// Repositories
	walletRepo := repositories.NewWalletRepository(db)
	planRepo := repositories.NewPlanRepository(db)
	userRepo := repositories.NewUserRepository(db)
	referralRepo := repositories.NewReferralRepository(db)
	withdrawalRepo := repositories.NewWithdrawalRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	// Services
	cacheTTL := time.Duration(cfg.Wallet.SnapshotCacheTTL) * time.Second
	var snapshotCache wallet.SnapshotCache
	if redis != nil {
		snapshotCache = redis
	}
	walletService := wallet.NewService(walletRepo, snapshotCache, cacheTTL, log)
	referralService := referral.NewService(userRepo, referralRepo, log)
	purchaseService := purchase.NewService(
		entities.DefaultPlanCatalog,
		planRepo,
		referralRepo,
		referralService,
		log,
	)
	withdrawalService := withdrawal.NewService(
		withdrawalRepo,
		auditRepo,
		decimal.NewFromFloat(cfg.Wallet.MinWithdrawal),
		log,
	)
	accrualService := accrual.NewService(planRepo, log)

	// Scheduler
	worker := dailyearnings.NewWorker(accrualService, cfg.Accrual, log)
	if err := worker.Start(ctx); err != nil {
		log.Fatal("failed to start daily earnings worker", "error", err)
	}

	// Pool gauge sampling
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := db.Stats()
				metrics.DatabaseConnectionsGauge.WithLabelValues("open").Set(float64(stats.OpenConnections))
				metrics.DatabaseConnectionsGauge.WithLabelValues("in_use").Set(float64(stats.InUse))
				metrics.DatabaseConnectionsGauge.WithLabelValues("idle").Set(float64(stats.Idle))
			}
		}
	}()

	router := routes.Setup(cfg, log, routes.Handlers{
		Wallet:   handlers.NewWalletHandlers(walletService, withdrawalService, log),
		Plans:    handlers.NewPlanHandlers(purchaseService, log),
		Referral: handlers.NewReferralHandlers(referralService, log),
		Admin: handlers.NewAdminHandlers(
			withdrawalService, accrualService, purchaseService,
			userRepo, planRepo, withdrawalRepo, auditRepo,
			log,
		),
		Health: handlers.NewHealthHandlers(db, redis),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	worker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "error", err)
	}

	log.Info("shutdown complete")
}
