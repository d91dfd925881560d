package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/events"
	"github.com/lexdesk/case-service/internal/observability"
	"github.com/lexdesk/case-service/internal/persistence"
	"github.com/lexdesk/case-service/internal/repository"
	apperrors "github.com/lexdesk/case-service/pkg/util/errorutil"
)

// ErrScanInProgress is returned when another scan holds the run lock.
var ErrScanInProgress = apperrors.NewDomainError(apperrors.CodeScanInProgress, "vacation scan already running", http.StatusConflict, nil)

// ScanState guards scan runs and keeps the last summary.
type ScanState interface {
	Acquire(ctx context.Context, ttl time.Duration) (persistence.ReleaseFunc, bool, error)
	SaveSummary(ctx context.Context, summary *domain.ScanSummary) error
	LastSummary(ctx context.Context) (*domain.ScanSummary, error)
}

// VacationScanner applies leave starts and ends once a day.
type VacationScanner struct {
	staff      repository.StaffRepository
	engine     Reassigner
	state      ScanState
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	clock      Clock
	location   *time.Location
	lockTTL    time.Duration
}

// VacationScannerDependencies bundles collaborators.
type VacationScannerDependencies struct {
	StaffRepo  repository.StaffRepository
	Engine     Reassigner
	State      ScanState
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      Clock
	// Location decides which calendar day "today" is.
	Location *time.Location
	LockTTL  time.Duration
}

// NewVacationScanner creates the scanner.
func NewVacationScanner(deps VacationScannerDependencies) *VacationScanner {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	ttl := deps.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &VacationScanner{
		staff:      deps.StaffRepo,
		engine:     deps.Engine,
		state:      deps.State,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		clock:      clock,
		location:   loc,
		lockTTL:    ttl,
	}
}

// Run performs one scan. A failure for one staff member is recorded in the
// summary and never stops the others.
func (v *VacationScanner) Run(ctx context.Context) (*domain.ScanSummary, error) {
	release, acquired, err := v.state.Acquire(ctx, v.lockTTL)
	if err != nil {
		v.metrics.RecordScanRun("failed")
		return nil, apperrors.NewDomainError(apperrors.CodeDependencyUnavailable, "scan lock unavailable", http.StatusServiceUnavailable, nil).WithCause(err)
	}
	if !acquired {
		v.metrics.RecordScanRun("skipped")
		return nil, ErrScanInProgress
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			v.logger.Warn("release scan lock", zap.Error(err))
		}
	}()

	now := v.clock()
	today := domain.Day(now.In(v.location))
	roles := domain.AllStaffRoles()

	started, err := v.staff.ListLeaveStarted(ctx, today, roles)
	if err != nil {
		v.metrics.RecordScanRun("failed")
		return nil, fmt.Errorf("list staff starting leave: %w", err)
	}
	ended, err := v.staff.ListLeaveEnded(ctx, today, roles)
	if err != nil {
		v.metrics.RecordScanRun("failed")
		return nil, fmt.Errorf("list staff returning from leave: %w", err)
	}

	summary := &domain.ScanSummary{RunAt: now, Today: today, Outcomes: []domain.StaffScanOutcome{}}
	// Leave ends go first so a substitute back from leave can take over today's
	// leave starts. Everyone leaving today is muted before any case moves,
	// which keeps them out of the substitute pool.
	for i := range ended {
		summary.Outcomes = append(summary.Outcomes, v.endLeave(ctx, &ended[i]))
	}
	leaving := make([]domain.StaffScanOutcome, len(started))
	for i := range started {
		leaving[i] = v.muteLeaving(ctx, &started[i])
	}
	for i := range started {
		if leaving[i].Error == "" {
			leaving[i] = v.startLeave(ctx, &started[i], leaving[i])
		}
		summary.Outcomes = append(summary.Outcomes, leaving[i])
	}

	if err := v.state.SaveSummary(ctx, summary); err != nil {
		v.logger.Warn("save scan summary", zap.Error(err))
	}
	if v.dispatcher != nil {
		_ = v.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventVacationScanCompleted,
			Actor:     events.SystemActor,
			Timestamp: v.clock(),
			Payload:   events.VacationScanCompletedPayload{Summary: summary},
		})
	}

	outcome := "ok"
	if summary.Failed() > 0 || summary.ReportErrors() > 0 {
		outcome = "partial"
	}
	v.metrics.RecordScanRun(outcome)
	v.logger.Info("vacation scan finished",
		zap.Time("today", today),
		zap.Int("leave_started", len(started)),
		zap.Int("leave_ended", len(ended)),
		zap.Int("transferred", summary.Transferred()),
		zap.Int("failed", summary.Failed()))
	return summary, nil
}

// LastSummary returns the most recent stored summary, or nil before the
// first run.
func (v *VacationScanner) LastSummary(ctx context.Context) (*domain.ScanSummary, error) {
	summary, err := v.state.LastSummary(ctx)
	if err != nil {
		return nil, apperrors.NewDomainError(apperrors.CodeDependencyUnavailable, "scan summary unavailable", http.StatusServiceUnavailable, nil).WithCause(err)
	}
	return summary, nil
}

func (v *VacationScanner) muteLeaving(ctx context.Context, staff *domain.StaffMember) domain.StaffScanOutcome {
	outcome := domain.StaffScanOutcome{StaffID: staff.ID, Action: domain.ScanActionLeaveStarted}
	if err := v.staff.SetNotifications(ctx, staff.ID, false); err != nil {
		return v.fail(outcome, fmt.Errorf("disable notifications: %w", err))
	}
	return outcome
}

// startLeave moves the cases of a muted staff member. Roles that hold no
// cases only have their notifications toggled.
func (v *VacationScanner) startLeave(ctx context.Context, staff *domain.StaffMember, outcome domain.StaffScanOutcome) domain.StaffScanOutcome {
	if !staff.Role.HoldsCases() {
		return outcome
	}
	report, err := v.engine.Reassign(ctx, ReassignmentRequest{
		StaffID: staff.ID,
		Reason:  domain.ReasonLeaveStart,
		Actor:   events.SystemActor,
	})
	if err != nil {
		return v.fail(outcome, err)
	}
	outcome.Report = report
	return outcome
}

func (v *VacationScanner) endLeave(ctx context.Context, staff *domain.StaffMember) domain.StaffScanOutcome {
	outcome := domain.StaffScanOutcome{StaffID: staff.ID, Action: domain.ScanActionLeaveEnded}
	if err := v.staff.SetLeave(ctx, staff.ID, nil, true); err != nil {
		return v.fail(outcome, fmt.Errorf("clear leave: %w", err))
	}
	if !staff.Role.HoldsCases() {
		return outcome
	}
	report, err := v.engine.Reassign(ctx, ReassignmentRequest{
		StaffID: staff.ID,
		Reason:  domain.ReasonLeaveEnd,
		Actor:   events.SystemActor,
	})
	if err != nil {
		return v.fail(outcome, err)
	}
	outcome.Report = report
	return outcome
}

func (v *VacationScanner) fail(outcome domain.StaffScanOutcome, err error) domain.StaffScanOutcome {
	v.logger.Error("vacation scan step failed",
		zap.String("staff_id", outcome.StaffID),
		zap.String("action", string(outcome.Action)),
		zap.Error(err))
	outcome.Error = err.Error()
	return outcome
}
