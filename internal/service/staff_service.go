package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lexdesk/case-service/internal/auth"
	"github.com/lexdesk/case-service/internal/config"
	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/events"
	"github.com/lexdesk/case-service/internal/repository"
	apperrors "github.com/lexdesk/case-service/pkg/util/errorutil"
)

// StaffService manages the staff directory and leave windows.
type StaffService struct {
	staff      repository.StaffRepository
	engine     Reassigner
	hasher     auth.Hasher
	clock      Clock
	location   *time.Location
}

// StaffDependencies encapsulates collaborators for staff management.
type StaffDependencies struct {
	StaffRepo repository.StaffRepository
	Engine    Reassigner
	Clock     Clock
	Location  *time.Location
}

// StaffInput describes a new staff account.
type StaffInput struct {
	Name       string
	Email      string
	Password   string
	Role       domain.StaffRole
	LegalAreas []string
}

// StaffUpdate carries the fields to change; nil fields stay untouched.
type StaffUpdate struct {
	Name       *string
	Email      *string
	Role       *domain.StaffRole
	LegalAreas []string
	Active     *bool
}

// StaffListFilters define listing parameters.
type StaffListFilters struct {
	Role      *domain.StaffRole
	LegalArea *string
	Active    *bool
	Limit     int
	Offset    int
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.Config, deps StaffDependencies) *StaffService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &StaffService{
		staff:      deps.StaffRepo,
		engine:     deps.Engine,
		hasher:     auth.NewHasher(cfg.Auth.BcryptCost),
		clock:      clock,
		location:   loc,
	}
}

func requireAdmin(actor *domain.StaffMember) error {
	if actor == nil || actor.Role != domain.StaffRoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func requireAdminOrSelf(actor *domain.StaffMember, staffID string) error {
	if actor == nil {
		return apperrors.NewForbidden("staff role required")
	}
	if actor.Role != domain.StaffRoleAdmin && actor.ID != staffID {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func staffActor(actor *domain.StaffMember) events.Actor {
	if actor == nil {
		return events.SystemActor
	}
	id := actor.ID
	return events.Actor{Type: domain.SubjectTypeStaff, StaffID: &id}
}

// CreateStaffMember adds a new staff account.
func (s *StaffService) CreateStaffMember(ctx context.Context, actor *domain.StaffMember, input StaffInput) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewInvalidRequest("unknown staff role", map[string]any{"role": input.Role})
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if existing, err := s.staff.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("staff email already exists", map[string]any{"email": email})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := hashPassword(s.hasher, input.Password)
	if err != nil {
		return nil, err
	}

	staff := &domain.StaffMember{
		Name:                 strings.TrimSpace(input.Name),
		Email:                email,
		PasswordHash:         hash,
		Role:                 input.Role,
		LegalAreas:           domain.NormalizeLegalAreas(input.LegalAreas),
		NotificationsEnabled: true,
		Active:               true,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("staff email already exists", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// ListStaffMembers lists staff with filters.
func (s *StaffService) ListStaffMembers(ctx context.Context, actor *domain.StaffMember, filters StaffListFilters) ([]domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	repoFilter := repository.StaffFilter{
		LegalArea: filters.LegalArea,
		Active:    filters.Active,
		Limit:     filters.Limit,
		Offset:    filters.Offset,
	}
	if filters.Role != nil {
		repoFilter.Roles = []domain.StaffRole{*filters.Role}
	}
	staff, err := s.staff.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// GetStaffMemberByID fetches staff.
func (s *StaffService) GetStaffMemberByID(ctx context.Context, actor *domain.StaffMember, id string) (*domain.StaffMember, error) {
	if err := requireAdminOrSelf(actor, id); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// UpdateStaffMember updates staff details.
func (s *StaffService) UpdateStaffMember(ctx context.Context, actor *domain.StaffMember, staffID string, update StaffUpdate) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	staff, err := s.load(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if email != staff.Email {
			if existing, err := s.staff.GetByEmail(ctx, email); err == nil && existing != nil && existing.ID != staff.ID {
				return nil, apperrors.NewConflict("staff email already exists", map[string]any{"email": email})
			} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.MapError(err)
			}
		}
		staff.Email = email
	}
	if update.Role != nil {
		if !update.Role.Valid() {
			return nil, apperrors.NewInvalidRequest("unknown staff role", map[string]any{"role": *update.Role})
		}
		staff.Role = *update.Role
	}
	if update.Name != nil {
		staff.Name = strings.TrimSpace(*update.Name)
	}
	if update.LegalAreas != nil {
		staff.LegalAreas = domain.NormalizeLegalAreas(update.LegalAreas)
	}
	if update.Active != nil {
		staff.Active = *update.Active
	}

	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// SetLeave records a leave window. Cases move when the vacation scan reaches
// the start date. Shortening an active leave so that it no longer covers
// today hands the cases back at once.
func (s *StaffService) SetLeave(ctx context.Context, actor *domain.StaffMember, staffID string, start, end *time.Time, reason string) (*domain.StaffMember, *domain.ReassignmentReport, error) {
	if err := requireAdminOrSelf(actor, staffID); err != nil {
		return nil, nil, err
	}
	staff, err := s.load(ctx, staffID)
	if err != nil {
		return nil, nil, err
	}
	window, err := domain.NewLeaveWindow(start, end, reason)
	if err != nil {
		return nil, nil, apperrors.NewInvalidRequest(err.Error(), nil)
	}
	today := s.today()
	if window.End.Before(today) {
		return nil, nil, apperrors.NewInvalidRequest("leave window already over", map[string]any{"leave_end": window.End.Format("2006-01-02")})
	}

	if leaveApplied(staff) && !window.Contains(today) {
		report, err := s.returnFromLeave(ctx, actor, staff, window)
		return staff, report, err
	}

	if err := s.staff.SetLeave(ctx, staff.ID, window, staff.NotificationsEnabled); err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	staff.Leave = window
	return staff, nil, nil
}

// ClearLeave removes the leave window. A staff member whose leave had already
// been applied gets their cases back immediately.
func (s *StaffService) ClearLeave(ctx context.Context, actor *domain.StaffMember, staffID string) (*domain.StaffMember, *domain.ReassignmentReport, error) {
	if err := requireAdminOrSelf(actor, staffID); err != nil {
		return nil, nil, err
	}
	staff, err := s.load(ctx, staffID)
	if err != nil {
		return nil, nil, err
	}
	if leaveApplied(staff) {
		report, err := s.returnFromLeave(ctx, actor, staff, nil)
		return staff, report, err
	}
	if err := s.staff.SetLeave(ctx, staff.ID, nil, staff.NotificationsEnabled); err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	staff.Leave = nil
	return staff, nil, nil
}

// TransferCases hands every open case of staffID over to targetID.
func (s *StaffService) TransferCases(ctx context.Context, actor *domain.StaffMember, staffID, targetID string) (*domain.ReassignmentReport, error) {
	if err := requireAdminOrSelf(actor, staffID); err != nil {
		return nil, err
	}
	return s.engine.Reassign(ctx, ReassignmentRequest{
		StaffID:       staffID,
		Reason:        domain.ReasonManual,
		TargetStaffID: &targetID,
		Actor:         staffActor(actor),
	})
}

// leaveApplied reports whether the scanner already moved the staff member's
// cases away for their current leave.
func leaveApplied(staff *domain.StaffMember) bool {
	return staff.Leave != nil && !staff.NotificationsEnabled
}

func (s *StaffService) returnFromLeave(ctx context.Context, actor *domain.StaffMember, staff *domain.StaffMember, window *domain.LeaveWindow) (*domain.ReassignmentReport, error) {
	if err := s.staff.SetLeave(ctx, staff.ID, window, true); err != nil {
		return nil, apperrors.MapError(err)
	}
	staff.Leave = window
	staff.NotificationsEnabled = true
	return s.engine.Reassign(ctx, ReassignmentRequest{
		StaffID: staff.ID,
		Reason:  domain.ReasonLeaveEnd,
		Actor:   staffActor(actor),
	})
}

func (s *StaffService) load(ctx context.Context, id string) (*domain.StaffMember, error) {
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

func (s *StaffService) today() time.Time {
	return domain.Day(s.clock().In(s.location))
}
