package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/lexdesk/case-service/internal/api/http"
	"github.com/lexdesk/case-service/internal/api/http/handlers"
	"github.com/lexdesk/case-service/internal/app"
	"github.com/lexdesk/case-service/internal/auth"
	"github.com/lexdesk/case-service/internal/config"
	"github.com/lexdesk/case-service/internal/observability"
	"github.com/lexdesk/case-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, err := app.OpenStorage(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer storage.Close()

	scanState, redis, closeState := app.OpenScanState(ctx, *cfg, logger)
	defer closeState()

	metrics := observability.NewMetrics()
	services, err := app.NewServices(*cfg, app.Options{
		Storage:   storage,
		ScanState: scanState,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("failed to build services", zap.Error(err))
	}

	var scanWorker *worker.VacationWorker
	if cfg.VacationScan.Enabled {
		scanWorker, err = worker.NewVacationWorker(services.Scanner, cfg.VacationScan, logger.Named("worker"))
		if err != nil {
			logger.Fatal("failed to schedule vacation scan", zap.Error(err))
		}
		scanWorker.Start()
	}

	deps := map[string]handlers.Pinger{"postgres": nil, "redis": nil}
	if pg := storage.Postgres(); pg != nil {
		deps["postgres"] = pg
	}
	if redis != nil {
		deps["redis"] = redis
	}

	authMiddleware := auth.NewAuthMiddleware(services.Auth.TokenManager(), storage.Students, storage.Staff)

	fiberApp := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(fiberApp, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(fiberApp, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Auth:           handlers.NewAuthHandler(services.Auth),
		Staff:          handlers.NewStaffHandler(services.Staff),
		Cases:          handlers.NewCasesHandler(services.Cases),
		StaffCases:     handlers.NewStaffCasesHandler(services.Cases),
		Reassignment:   handlers.NewReassignmentHandler(services.Engine, services.Staff, services.Scanner),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := fiberApp.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if scanWorker != nil {
		scanWorker.Stop(shutdownCtx)
	}
	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
