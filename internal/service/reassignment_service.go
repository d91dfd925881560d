package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/events"
	"github.com/lexdesk/case-service/internal/observability"
	"github.com/lexdesk/case-service/internal/repository"
	apperrors "github.com/lexdesk/case-service/pkg/util/errorutil"
)

// Clock returns the current time.
type Clock func() time.Time

// ReassignmentRequest asks the engine to move a staff member's open cases.
type ReassignmentRequest struct {
	StaffID       string
	Reason        domain.ReassignmentReason
	TargetStaffID *string
	Actor         events.Actor
}

// Reassigner is the reassignment engine as seen by its callers.
type Reassigner interface {
	Reassign(ctx context.Context, req ReassignmentRequest) (*domain.ReassignmentReport, error)
}

// ReassignmentService moves open cases between instructors and substitutes.
type ReassignmentService struct {
	staff         repository.StaffRepository
	cases         repository.CaseRepository
	history       repository.CaseHistoryRepository
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
	clock         Clock
	transactional bool
}

// ReassignmentDependencies bundles collaborators.
type ReassignmentDependencies struct {
	StaffRepo   repository.StaffRepository
	CaseRepo    repository.CaseRepository
	HistoryRepo repository.CaseHistoryRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Clock       Clock
	// Transactional writes each staff member's batch in one transaction.
	Transactional bool
}

// NewReassignmentService creates the service.
func NewReassignmentService(deps ReassignmentDependencies) *ReassignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &ReassignmentService{
		staff:         deps.StaffRepo,
		cases:         deps.CaseRepo,
		history:       deps.HistoryRepo,
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		logger:        logger,
		clock:         clock,
		transactional: deps.Transactional,
	}
}

// plannedMove is one case ownership change waiting to be written.
type plannedMove struct {
	change        domain.CaseOwnerChange
	transfer      domain.CaseTransfer
	previousOwner *string
}

// Reassign relocates the open cases of req.StaffID according to req.Reason.
// Bad input and unknown staff abort the call; per-area and per-case failures
// are collected in the report.
func (s *ReassignmentService) Reassign(ctx context.Context, req ReassignmentRequest) (*domain.ReassignmentReport, error) {
	if req.StaffID == "" {
		return nil, apperrors.NewInvalidRequest("staff_id required", nil)
	}
	if !req.Reason.Valid() {
		return nil, apperrors.NewInvalidRequest("unknown reassignment reason", map[string]any{"reason": req.Reason})
	}
	if req.Reason == domain.ReasonManual && (req.TargetStaffID == nil || *req.TargetStaffID == "") {
		return nil, apperrors.NewInvalidRequest("target_staff_id required for manual reassignment", nil)
	}

	staff, err := s.lookupStaff(ctx, req.StaffID)
	if err != nil {
		return nil, err
	}
	var target *domain.StaffMember
	if req.Reason == domain.ReasonManual {
		if *req.TargetStaffID == staff.ID {
			return nil, apperrors.NewInvalidRequest("target must differ from staff member", nil)
		}
		if target, err = s.lookupStaff(ctx, *req.TargetStaffID); err != nil {
			return nil, err
		}
	}

	now := s.clock()
	report := &domain.ReassignmentReport{
		StaffID:       staff.ID,
		Reason:        req.Reason,
		TargetStaffID: req.TargetStaffID,
		StartedAt:     now,
		Transfers:     []domain.CaseTransfer{},
		Errors:        []domain.ReassignmentError{},
	}

	var moves []plannedMove
	for _, area := range staff.LegalAreas {
		moves = append(moves, s.planArea(ctx, report, staff, target, area, now)...)
	}

	if s.transactional {
		s.applyInTx(ctx, report, moves)
	} else {
		s.applyEach(ctx, report, moves)
	}

	s.recordHistory(ctx, req, moves, report)
	s.publish(ctx, req, report)

	s.metrics.RecordTransfers(string(req.Reason), len(report.Transfers))
	for _, e := range report.Errors {
		s.metrics.RecordReassignmentError(string(req.Reason), string(e.Kind))
	}
	report.FinishedAt = s.clock()

	s.logger.Info("reassignment finished",
		zap.String("staff_id", staff.ID),
		zap.String("reason", string(req.Reason)),
		zap.Int("transferred", len(report.Transfers)),
		zap.Int("errors", len(report.Errors)))
	return report, nil
}

func (s *ReassignmentService) lookupStaff(ctx context.Context, id string) (*domain.StaffMember, error) {
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// planArea selects the cases of one legal area and decides their new owner.
func (s *ReassignmentService) planArea(ctx context.Context, report *domain.ReassignmentReport, staff, target *domain.StaffMember, area string, now time.Time) []plannedMove {
	var (
		recipient *domain.StaffMember
		filter    = repository.CaseFilter{LegalArea: &area, Statuses: domain.OpenCaseStatuses()}
	)

	switch report.Reason {
	case domain.ReasonLeaveStart:
		sub, err := s.findSubstitute(ctx, staff, area)
		if err != nil {
			report.AddError(domain.ErrKindStorage, area, "", err.Error())
			return nil
		}
		if sub == nil {
			report.AddError(domain.ErrKindNoSubstituteAvailable, area, "", "no substitute with notifications enabled covers this area")
			return nil
		}
		recipient = sub
		filter.OwnerID = &staff.ID
		filter.IncludeUnowned = true
	case domain.ReasonManual:
		recipient = target
		filter.OwnerID = &staff.ID
		filter.IncludeUnowned = true
	case domain.ReasonLeaveEnd:
		recipient = staff
		filter.PreviousOwnerID = &staff.ID
	}

	candidates, err := s.cases.List(ctx, filter)
	if err != nil {
		report.AddError(domain.ErrKindStorage, area, "", err.Error())
		return nil
	}

	reasonText := describeReason(report.Reason, staff, recipient)
	moves := make([]plannedMove, 0, len(candidates))
	for _, cs := range candidates {
		var previous *string
		switch report.Reason {
		case domain.ReasonLeaveStart:
			// a case already held for someone else keeps its original owner
			previous = cs.PreviousOwnerID
			if previous == nil {
				previous = &staff.ID
			}
		case domain.ReasonManual:
			previous = cs.PreviousOwnerID
		case domain.ReasonLeaveEnd:
			previous = nil
		}
		if previous != nil && *previous == recipient.ID {
			previous = nil
		}

		moves = append(moves, plannedMove{
			change: domain.CaseOwnerChange{
				CaseID:          cs.ID,
				ExpectedOwnerID: cs.OwnerID,
				OwnerID:         recipient.ID,
				PreviousOwnerID: previous,
				ReassignedAt:    now,
				Reason:          reasonText,
			},
			transfer: domain.CaseTransfer{
				CaseID:      cs.ID,
				FromStaffID: cs.OwnerID,
				ToStaffID:   recipient.ID,
				Status:      cs.Status,
				LegalArea:   cs.LegalArea,
			},
			previousOwner: cs.PreviousOwnerID,
		})
	}
	return moves
}

// findSubstitute returns the longest-registered eligible substitute for area,
// or nil when there is none.
func (s *ReassignmentService) findSubstitute(ctx context.Context, staff *domain.StaffMember, area string) (*domain.StaffMember, error) {
	enabled, active := true, true
	subs, err := s.staff.List(ctx, repository.StaffFilter{
		Roles:                []domain.StaffRole{domain.StaffRoleSubstitute},
		LegalArea:            &area,
		NotificationsEnabled: &enabled,
		Active:               &active,
		ExcludeID:            &staff.ID,
		OldestFirst:          true,
		Limit:                1,
	})
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return &subs[0], nil
}

func (s *ReassignmentService) applyEach(ctx context.Context, report *domain.ReassignmentReport, moves []plannedMove) {
	for _, m := range moves {
		if err := s.cases.Reassign(ctx, m.change); err != nil {
			report.AddError(caseErrorKind(err), m.transfer.LegalArea, m.transfer.CaseID, err.Error())
			s.logger.Warn("case reassignment failed",
				zap.String("case_id", m.transfer.CaseID),
				zap.Error(err))
			continue
		}
		report.AddTransfer(m.transfer)
	}
}

// applyInTx writes every move in one transaction. Any failure rolls back the
// whole batch and every planned move is reported as failed.
func (s *ReassignmentService) applyInTx(ctx context.Context, report *domain.ReassignmentReport, moves []plannedMove) {
	if len(moves) == 0 {
		return
	}
	var failed *plannedMove
	err := s.cases.WithinTx(ctx, func(tx repository.CaseRepository) error {
		for i := range moves {
			if err := tx.Reassign(ctx, moves[i].change); err != nil {
				failed = &moves[i]
				return err
			}
		}
		return nil
	})
	if err == nil {
		for _, m := range moves {
			report.AddTransfer(m.transfer)
		}
		return
	}

	s.logger.Warn("reassignment batch rolled back", zap.String("staff_id", report.StaffID), zap.Error(err))
	for i := range moves {
		m := &moves[i]
		if m == failed {
			report.AddError(caseErrorKind(err), m.transfer.LegalArea, m.transfer.CaseID, err.Error())
			continue
		}
		report.AddError(domain.ErrKindStorage, m.transfer.LegalArea, m.transfer.CaseID, "rolled back: "+err.Error())
	}
}

func caseErrorKind(err error) domain.ErrorKind {
	if errors.Is(err, repository.ErrOwnerChanged) {
		return domain.ErrKindConflict
	}
	return domain.ErrKindStorage
}

// recordHistory writes one audit entry per moved case. Audit failures are
// logged; the move itself already happened.
func (s *ReassignmentService) recordHistory(ctx context.Context, req ReassignmentRequest, moves []plannedMove, report *domain.ReassignmentReport) {
	if s.history == nil || len(report.Transfers) == 0 {
		return
	}
	moved := make(map[string]struct{}, len(report.Transfers))
	for _, t := range report.Transfers {
		moved[t.CaseID] = struct{}{}
	}
	actorType := req.Actor.Type
	if actorType == "" {
		actorType = domain.SubjectTypeSystem
	}
	for _, m := range moves {
		if _, ok := moved[m.change.CaseID]; !ok {
			continue
		}
		entry := &domain.CaseHistory{
			CaseID:        m.change.CaseID,
			ChangedByType: actorType,
			ChangedByID:   req.Actor.StaffID,
			ChangeType:    domain.ChangeTypeOwnership,
			OldValue: map[string]any{
				"owner_staff_id":          m.transfer.FromStaffID,
				"previous_owner_staff_id": m.previousOwner,
			},
			NewValue: map[string]any{
				"owner_staff_id":          m.change.OwnerID,
				"previous_owner_staff_id": m.change.PreviousOwnerID,
				"reason":                  string(req.Reason),
				"note":                    m.change.Reason,
			},
		}
		if err := s.history.Create(ctx, entry); err != nil {
			s.logger.Warn("record case history", zap.String("case_id", m.change.CaseID), zap.Error(err))
		}
	}
}

func (s *ReassignmentService) publish(ctx context.Context, req ReassignmentRequest, report *domain.ReassignmentReport) {
	if s.dispatcher == nil {
		return
	}
	actor := req.Actor
	if actor.Type == "" {
		actor = events.SystemActor
	}
	for recipient, transfers := range report.TransfersTo() {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventCasesReassigned,
			Actor:     actor,
			Timestamp: s.clock(),
			Payload: events.CasesReassignedPayload{
				RecipientStaffID: recipient,
				SubjectStaffID:   report.StaffID,
				Reason:           report.Reason,
				Transfers:        transfers,
			},
		})
	}
}

func describeReason(reason domain.ReassignmentReason, staff, recipient *domain.StaffMember) string {
	switch reason {
	case domain.ReasonLeaveStart:
		if staff.Leave != nil {
			text := fmt.Sprintf("%s is on leave until %s", staff.Name, staff.Leave.End.Format("2006-01-02"))
			if staff.Leave.Reason != "" {
				text += " (" + staff.Leave.Reason + ")"
			}
			return text
		}
		return staff.Name + " is on leave"
	case domain.ReasonLeaveEnd:
		return staff.Name + " returned from leave"
	default:
		return fmt.Sprintf("manually transferred from %s to %s", staff.Name, recipient.Name)
	}
}
