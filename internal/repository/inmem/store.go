// Package inmem provides map-backed repositories. They back the service when
// no Postgres DSN is configured and serve as fakes in tests.
package inmem

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/repository"
)

// Store holds every in-memory table behind one lock.
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	staff    map[string]*domain.StaffMember
	staffSeq []string
	cases    map[string]*domain.CaseStudy
	caseSeq  []string
	history  []domain.CaseHistory
	students map[string]*domain.Student
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		now:      time.Now,
		staff:    make(map[string]*domain.StaffMember),
		cases:    make(map[string]*domain.CaseStudy),
		students: make(map[string]*domain.Student),
	}
}

// Staff returns the staff directory view.
func (s *Store) Staff() repository.StaffRepository { return &staffRepo{s: s} }

// Cases returns the case store view.
func (s *Store) Cases() repository.CaseRepository { return &caseRepo{s: s} }

// History returns the case history view.
func (s *Store) History() repository.CaseHistoryRepository { return &historyRepo{s: s} }

// Students returns the student view.
func (s *Store) Students() repository.StudentRepository { return &studentRepo{s: s} }

// Listing order follows the *Seq slices, not timestamps.
func (s *Store) tick() time.Time {
	return s.now().UTC()
}

func newID() string {
	return uuid.NewString()
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
