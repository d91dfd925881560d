package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/events"
	"github.com/lexdesk/case-service/internal/repository"
	apperrors "github.com/lexdesk/case-service/pkg/util/errorutil"
)

// CaseService coordinates the case-study desk: requests, listings and status
// progression.
type CaseService struct {
	cases      repository.CaseRepository
	staff      repository.StaffRepository
	history    repository.CaseHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	clock      Clock
}

// CaseDependencies bundles repositories for the case service.
type CaseDependencies struct {
	CaseRepo    repository.CaseRepository
	StaffRepo   repository.StaffRepository
	HistoryRepo repository.CaseHistoryRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       Clock
}

// CaseRequestInput describes a student's case request.
type CaseRequestInput struct {
	LegalArea string
	Title     string
}

// CaseStaffFilter describes staff listing filters.
type CaseStaffFilter struct {
	LegalArea *string
	Statuses  []domain.CaseStatus
	// OwnerID is honoured for admins only; other staff always see the cases
	// they own or hold for someone on leave.
	OwnerID *string
	Limit   int
	Offset  int
}

// NewCaseService constructs the service.
func NewCaseService(deps CaseDependencies) *CaseService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &CaseService{
		cases:      deps.CaseRepo,
		staff:      deps.StaffRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		clock:      clock,
	}
}

// RequestCase opens a case study for a student and assigns it to the
// longest-serving available instructor of the legal area. Without one the
// case stays unowned until a leave-start or manual transfer picks it up.
func (s *CaseService) RequestCase(ctx context.Context, studentID string, input CaseRequestInput) (*domain.CaseStudy, error) {
	area := strings.TrimSpace(input.LegalArea)
	title := strings.TrimSpace(input.Title)
	if area == "" || title == "" {
		return nil, apperrors.NewInvalidRequest("legal_area and title required", nil)
	}

	cs := &domain.CaseStudy{
		StudentID: studentID,
		LegalArea: area,
		Title:     title,
		Status:    domain.CaseStatusRequested,
	}

	enabled, active := true, true
	instructors, err := s.staff.List(ctx, repository.StaffFilter{
		Roles:                []domain.StaffRole{domain.StaffRoleInstructor},
		LegalArea:            &area,
		NotificationsEnabled: &enabled,
		Active:               &active,
		OldestFirst:          true,
		Limit:                1,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(instructors) > 0 {
		cs.OwnerID = &instructors[0].ID
	}

	if err := s.cases.Create(ctx, cs); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("case requested",
		zap.String("case_id", cs.ID),
		zap.String("legal_area", area),
		zap.Bool("assigned", cs.OwnerID != nil))
	return cs, nil
}

// ListStudentCases returns the student's own cases.
func (s *CaseService) ListStudentCases(ctx context.Context, studentID string, limit, offset int) ([]domain.CaseStudy, error) {
	cases, err := s.cases.List(ctx, repository.CaseFilter{StudentID: &studentID, Limit: pageLimit(limit), Offset: offset})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return cases, nil
}

// GetStudentCase returns one of the student's cases.
func (s *CaseService) GetStudentCase(ctx context.Context, studentID, caseID string) (*domain.CaseStudy, error) {
	cs, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if cs.StudentID != studentID {
		return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
	}
	return cs, nil
}

// ListStaffCases lists cases visible to the acting staff member.
func (s *CaseService) ListStaffCases(ctx context.Context, actor *domain.StaffMember, filter CaseStaffFilter) ([]domain.CaseStudy, error) {
	if actor == nil {
		return nil, apperrors.NewForbidden("staff role required")
	}
	repoFilter := repository.CaseFilter{
		LegalArea: filter.LegalArea,
		Statuses:  filter.Statuses,
		Limit:     pageLimit(filter.Limit),
		Offset:    filter.Offset,
	}
	if actor.Role == domain.StaffRoleAdmin {
		repoFilter.OwnerID = filter.OwnerID
	} else {
		repoFilter.InvolvedStaffID = &actor.ID
	}
	cases, err := s.cases.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return cases, nil
}

// AdvanceStatus moves a case forward in its lifecycle. Only the owner or an
// admin may do so.
func (s *CaseService) AdvanceStatus(ctx context.Context, actor *domain.StaffMember, caseID string, next domain.CaseStatus) (*domain.CaseStudy, error) {
	if actor == nil {
		return nil, apperrors.NewForbidden("staff role required")
	}
	cs, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.StaffRoleAdmin && !cs.OwnedBy(actor.ID) {
		return nil, apperrors.NewForbidden("only the case owner may change its status")
	}
	if !cs.Status.CanAdvanceTo(next) {
		return nil, apperrors.NewInvalidRequest("status transition not allowed", map[string]any{
			"from": cs.Status,
			"to":   next,
		})
	}

	old := cs.Status
	if err := s.cases.UpdateStatus(ctx, cs.ID, old, next); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, apperrors.NewConflict("case status changed concurrently", map[string]any{"case_id": cs.ID})
		}
		return nil, apperrors.MapError(err)
	}
	cs.Status = next

	actorID := actor.ID
	if s.history != nil {
		entry := &domain.CaseHistory{
			CaseID:        cs.ID,
			ChangedByType: domain.SubjectTypeStaff,
			ChangedByID:   &actorID,
			ChangeType:    domain.ChangeTypeStatus,
			OldValue:      map[string]any{"status": old},
			NewValue:      map[string]any{"status": next},
		}
		if err := s.history.Create(ctx, entry); err != nil {
			s.logger.Warn("record case history", zap.String("case_id", cs.ID), zap.Error(err))
		}
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventCaseStatusChanged,
			CaseID:    cs.ID,
			Actor:     events.Actor{Type: domain.SubjectTypeStaff, StaffID: &actorID},
			Timestamp: s.clock(),
			Payload: events.CaseStatusChangedPayload{
				StudentID: cs.StudentID,
				Title:     cs.Title,
				OldStatus: old,
				NewStatus: next,
			},
		})
	}
	return cs, nil
}

// History returns the audit trail of a case.
func (s *CaseService) History(ctx context.Context, actor *domain.StaffMember, caseID string) ([]domain.CaseHistory, error) {
	if actor == nil {
		return nil, apperrors.NewForbidden("staff role required")
	}
	cs, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	involved := cs.OwnedBy(actor.ID) || (cs.PreviousOwnerID != nil && *cs.PreviousOwnerID == actor.ID)
	if actor.Role != domain.StaffRoleAdmin && !involved {
		return nil, apperrors.NewForbidden("case not assigned to caller")
	}
	entries, err := s.history.ListByCase(ctx, cs.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *CaseService) load(ctx context.Context, id string) (*domain.CaseStudy, error) {
	cs, err := s.cases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return cs, nil
}

func pageLimit(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > 200:
		return 200
	default:
		return limit
	}
}
