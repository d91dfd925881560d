package inmem

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/repository"
)

type historyRepo struct {
	s *Store
}

func (r *historyRepo) Create(_ context.Context, history *domain.CaseHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	history.ID = newID()
	history.CreatedAt = r.s.tick()
	r.s.history = append(r.s.history, *history)
	return nil
}

func (r *historyRepo) ListByCase(_ context.Context, caseID string) ([]domain.CaseHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.CaseHistory
	for _, h := range r.s.history {
		if h.CaseID == caseID {
			out = append(out, h)
		}
	}
	return out, nil
}

type studentRepo struct {
	s *Store
}

func (r *studentRepo) Create(_ context.Context, student *domain.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.students {
		if existing.Email == student.Email {
			return repository.ErrDuplicate
		}
	}
	student.ID = newID()
	student.CreatedAt = r.s.tick()
	student.UpdatedAt = student.CreatedAt
	stored := *student
	r.s.students[student.ID] = &stored
	return nil
}

func (r *studentRepo) GetByID(_ context.Context, id string) (*domain.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	student, ok := r.s.students[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *student
	return &out, nil
}

func (r *studentRepo) GetByEmail(_ context.Context, email string) (*domain.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, student := range r.s.students {
		if student.Email == email {
			out := *student
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}
