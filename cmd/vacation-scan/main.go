// Command vacation-scan runs a single vacation scan and exits. It is meant for
// external schedulers when VACATION_SCAN_ENABLED is off in the API.
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/lexdesk/case-service/internal/app"
	"github.com/lexdesk/case-service/internal/config"
	"github.com/lexdesk/case-service/internal/observability"
	"github.com/lexdesk/case-service/internal/service"
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

	code := run(cfg, logger)
	_ = logger.Sync()
	os.Exit(code)
}

func run(cfg *config.Config, logger *zap.Logger) int {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.VacationScan.LockTTL())
	defer cancel()

	storage, err := app.OpenStorage(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to open storage", zap.Error(err))
		return 1
	}
	defer storage.Close()
	if storage.Postgres() == nil {
		logger.Warn("running against in-memory storage; nothing will be persisted")
	}

	scanState, _, closeState := app.OpenScanState(ctx, *cfg, logger)
	defer closeState()

	services, err := app.NewServices(*cfg, app.Options{
		Storage:   storage,
		ScanState: scanState,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to build services", zap.Error(err))
		return 1
	}

	summary, err := services.Scanner.Run(ctx)
	if errors.Is(err, service.ErrScanInProgress) {
		logger.Info("vacation scan already running elsewhere")
		return 0
	}
	if err != nil {
		logger.Error("vacation scan failed", zap.Error(err))
		return 1
	}

	logger.Info("vacation scan finished",
		zap.Int("staff", len(summary.Outcomes)),
		zap.Int("transferred", summary.Transferred()),
		zap.Int("failed", summary.Failed()),
	)
	if summary.Failed() > 0 {
		return 2
	}
	return 0
}
