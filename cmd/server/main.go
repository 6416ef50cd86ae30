package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/agrosupply/internal/config"
	"github.com/mamadbah2/agrosupply/internal/repository"
	"github.com/mamadbah2/agrosupply/internal/repository/memory"
	"github.com/mamadbah2/agrosupply/internal/repository/mongodb"
	"github.com/mamadbah2/agrosupply/internal/repository/postgres"
	"github.com/mamadbah2/agrosupply/internal/scheduler"
	"github.com/mamadbah2/agrosupply/internal/server/handlers"
	"github.com/mamadbah2/agrosupply/internal/server/router"
	costingsvc "github.com/mamadbah2/agrosupply/internal/service/costing"
	distributionsvc "github.com/mamadbah2/agrosupply/internal/service/distribution"
	"github.com/mamadbah2/agrosupply/internal/service/pricing"
	reportingsvc "github.com/mamadbah2/agrosupply/internal/service/reporting"
	settingssvc "github.com/mamadbah2/agrosupply/internal/service/settings"
	"github.com/mamadbah2/agrosupply/pkg/clock"
	"github.com/mamadbah2/agrosupply/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File}))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := openStore(connectCtx, cfg, baseLogger.Named("repo"))
	cancelConnect()
	if err != nil {
		baseLogger.Fatal("failed to init storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close storage", zap.Error(err))
		}
	}()

	clk := clock.System{}
	settings := settingssvc.NewService(store, cfg.SettingFallbacks(), baseLogger.Named("svc.settings"))
	ledger := pricing.NewLedger(store, clk, baseLogger.Named("svc.pricing"))
	costing := costingsvc.NewService(store, ledger, clk, baseLogger.Named("svc.costing"))
	distributions := distributionsvc.NewService(store, settings, clk, baseLogger.Named("svc.distribution"))
	reporting := reportingsvc.NewService(distributions, store, clk, baseLogger.Named("svc.reporting"))

	engine := router.New(router.Handlers{
		Pricing:      handlers.NewPricingHandler(ledger, baseLogger.Named("handlers.pricing")),
		Costing:      handlers.NewCostingHandler(costing, baseLogger.Named("handlers.costing")),
		Distribution: handlers.NewDistributionHandler(distributions, reporting, baseLogger.Named("handlers.distribution")),
	}, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, reporting, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.New(), nil
	case config.DriverMongo:
		repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, log.Named("mongodb"))
		if err != nil {
			return nil, err
		}
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = repo.Close(context.Background())
			return nil, err
		}
		return repo, nil
	case config.DriverPostgres:
		return postgres.NewRepository(ctx, cfg.Postgres.DSN, cfg.Postgres.AutoMigrate, log.Named("postgres"))
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
