package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/lexdesk/case-service/internal/config"
	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/service"
)

// ScanRunner performs one vacation scan.
type ScanRunner interface {
	Run(ctx context.Context) (*domain.ScanSummary, error)
}

// VacationWorker triggers the vacation scan on a cron schedule with seconds
// precision ("sec min hour dom month dow").
type VacationWorker struct {
	cron     *cron.Cron
	runner   ScanRunner
	logger   *zap.Logger
	schedule string
	entryID  cron.EntryID
	loc      *time.Location
	cfg      config.VacationScanConfig
}

// NewVacationWorker registers the scan job. Nothing runs until Start.
func NewVacationWorker(runner ScanRunner, cfg config.VacationScanConfig, logger *zap.Logger) (*VacationWorker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("scan timezone: %w", err)
	}
	cronLogger := cronLogger{logger.Sugar().Named("cron")}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	w := &VacationWorker{cron: c, runner: runner, logger: logger, schedule: cfg.Cron, loc: loc, cfg: cfg}
	id, err := c.AddFunc(cfg.Cron, func() { w.runOnce(context.Background()) })
	if err != nil {
		return nil, fmt.Errorf("invalid VACATION_SCAN_CRON %q: %w", cfg.Cron, err)
	}
	w.entryID = id
	return w, nil
}

// Start starts the scheduler.
func (w *VacationWorker) Start() {
	w.cron.Start()
	w.logger.Info("vacation scan scheduled",
		zap.String("cron", w.schedule),
		zap.String("timezone", w.cfg.Timezone),
		zap.Time("next_run", w.NextRun(time.Now())))
}

// NextRun returns the first scheduled run after now.
func (w *VacationWorker) NextRun(now time.Time) time.Time {
	return w.cron.Entry(w.entryID).Schedule.Next(now.In(w.loc))
}

// Stop halts the scheduler and waits for a running scan to finish or ctx to
// expire.
func (w *VacationWorker) Stop(ctx context.Context) {
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		w.logger.Warn("vacation scan still running at shutdown")
	}
}

func (w *VacationWorker) runOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.LockTTL())
	defer cancel()

	summary, err := w.runner.Run(ctx)
	switch {
	case errors.Is(err, service.ErrScanInProgress):
		w.logger.Info("vacation scan skipped, another run holds the lock")
	case err != nil:
		w.logger.Error("vacation scan failed", zap.Error(err))
	default:
		w.logger.Info("vacation scan completed",
			zap.Int("staff_processed", len(summary.Outcomes)),
			zap.Int("transferred", summary.Transferred()),
			zap.Int("failed", summary.Failed()))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
