package inmem

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/repository"
)

type staffRepo struct {
	s *Store
}

func cloneStaff(in *domain.StaffMember) domain.StaffMember {
	out := *in
	out.LegalAreas = append([]string(nil), in.LegalAreas...)
	if in.Leave != nil {
		w := *in.Leave
		out.Leave = &w
	}
	return out
}

func hasRole(roles []domain.StaffRole, role domain.StaffRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func (r *staffRepo) Create(_ context.Context, staff *domain.StaffMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.staff {
		if existing.Email == staff.Email {
			return repository.ErrDuplicate
		}
	}
	staff.ID = newID()
	staff.CreatedAt = r.s.tick()
	staff.UpdatedAt = staff.CreatedAt
	stored := cloneStaff(staff)
	r.s.staff[staff.ID] = &stored
	r.s.staffSeq = append(r.s.staffSeq, staff.ID)
	return nil
}

func (r *staffRepo) Update(_ context.Context, staff *domain.StaffMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.staff[staff.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	staff.CreatedAt = existing.CreatedAt
	staff.UpdatedAt = r.s.tick()
	stored := cloneStaff(staff)
	r.s.staff[staff.ID] = &stored
	return nil
}

func (r *staffRepo) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	staff, ok := r.s.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := cloneStaff(staff)
	return &out, nil
}

func (r *staffRepo) GetByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, id := range r.s.staffSeq {
		if staff := r.s.staff[id]; staff.Email == email {
			out := cloneStaff(staff)
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *staffRepo) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []domain.StaffMember
	for _, id := range r.s.staffSeq {
		staff := r.s.staff[id]
		if len(filter.Roles) > 0 && !hasRole(filter.Roles, staff.Role) {
			continue
		}
		if filter.LegalArea != nil && !staff.HasLegalArea(*filter.LegalArea) {
			continue
		}
		if filter.NotificationsEnabled != nil && staff.NotificationsEnabled != *filter.NotificationsEnabled {
			continue
		}
		if filter.Active != nil && staff.Active != *filter.Active {
			continue
		}
		if filter.ExcludeID != nil && staff.ID == *filter.ExcludeID {
			continue
		}
		matched = append(matched, cloneStaff(staff))
	}
	if !filter.OldestFirst {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	return page(matched, limit, filter.Offset), nil
}

func (r *staffRepo) ListLeaveStarted(_ context.Context, today time.Time, roles []domain.StaffRole) ([]domain.StaffMember, error) {
	return r.scan(func(s *domain.StaffMember) bool {
		return hasRole(roles, s.Role) && s.OnLeave(today) && s.NotificationsEnabled
	}), nil
}

func (r *staffRepo) ListLeaveEnded(_ context.Context, today time.Time, roles []domain.StaffRole) ([]domain.StaffMember, error) {
	return r.scan(func(s *domain.StaffMember) bool {
		return hasRole(roles, s.Role) && s.Leave.EndedBefore(today) && !s.NotificationsEnabled
	}), nil
}

func (r *staffRepo) scan(match func(*domain.StaffMember) bool) []domain.StaffMember {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.StaffMember
	for _, id := range r.s.staffSeq {
		if staff := r.s.staff[id]; match(staff) {
			out = append(out, cloneStaff(staff))
		}
	}
	return out
}

func (r *staffRepo) SetNotifications(_ context.Context, id string, enabled bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	staff, ok := r.s.staff[id]
	if !ok {
		return pgx.ErrNoRows
	}
	staff.NotificationsEnabled = enabled
	staff.UpdatedAt = r.s.tick()
	return nil
}

func (r *staffRepo) SetLeave(_ context.Context, id string, leave *domain.LeaveWindow, notificationsEnabled bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	staff, ok := r.s.staff[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if leave != nil {
		w := *leave
		staff.Leave = &w
	} else {
		staff.Leave = nil
	}
	staff.NotificationsEnabled = notificationsEnabled
	staff.UpdatedAt = r.s.tick()
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
