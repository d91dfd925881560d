package inmem

import (
	"context"
	"reflect"

	"github.com/jackc/pgx/v5"

	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/repository"
)

type caseRepo struct {
	s *Store
}

func cloneCase(in *domain.CaseStudy) domain.CaseStudy {
	out := *in
	out.OwnerID = cloneString(in.OwnerID)
	out.PreviousOwnerID = cloneString(in.PreviousOwnerID)
	out.ReassignedAt = cloneTime(in.ReassignedAt)
	out.ReassignmentReason = cloneString(in.ReassignmentReason)
	return out
}

func sameOwner(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func hasStatus(statuses []domain.CaseStatus, status domain.CaseStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func matchesCase(cs *domain.CaseStudy, f repository.CaseFilter) bool {
	if f.StudentID != nil && cs.StudentID != *f.StudentID {
		return false
	}
	if f.LegalArea != nil && cs.LegalArea != *f.LegalArea {
		return false
	}
	if len(f.Statuses) > 0 && !hasStatus(f.Statuses, cs.Status) {
		return false
	}
	switch {
	case f.OwnerID != nil && f.IncludeUnowned:
		if cs.OwnerID != nil && *cs.OwnerID != *f.OwnerID {
			return false
		}
	case f.OwnerID != nil:
		if !cs.OwnedBy(*f.OwnerID) {
			return false
		}
	case f.IncludeUnowned:
		if cs.OwnerID != nil {
			return false
		}
	}
	if f.PreviousOwnerID != nil && (cs.PreviousOwnerID == nil || *cs.PreviousOwnerID != *f.PreviousOwnerID) {
		return false
	}
	if f.InvolvedStaffID != nil {
		id := *f.InvolvedStaffID
		if !cs.OwnedBy(id) && (cs.PreviousOwnerID == nil || *cs.PreviousOwnerID != id) {
			return false
		}
	}
	return true
}

func (r *caseRepo) Create(_ context.Context, cs *domain.CaseStudy) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.createLocked(cs)
	return nil
}

func (r *caseRepo) createLocked(cs *domain.CaseStudy) {
	cs.ID = newID()
	cs.CreatedAt = r.s.tick()
	cs.UpdatedAt = cs.CreatedAt
	stored := cloneCase(cs)
	r.s.cases[cs.ID] = &stored
	r.s.caseSeq = append(r.s.caseSeq, cs.ID)
}

func (r *caseRepo) GetByID(_ context.Context, id string) (*domain.CaseStudy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	cs, ok := r.s.cases[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := cloneCase(cs)
	return &out, nil
}

func (r *caseRepo) List(_ context.Context, filter repository.CaseFilter) ([]domain.CaseStudy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.CaseStudy
	for _, id := range r.s.caseSeq {
		if cs := r.s.cases[id]; matchesCase(cs, filter) {
			out = append(out, cloneCase(cs))
		}
	}
	if filter.Limit > 0 {
		out = page(out, filter.Limit, filter.Offset)
	}
	return out, nil
}

func (r *caseRepo) Reassign(_ context.Context, change domain.CaseOwnerChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.reassignLocked(change)
}

func (r *caseRepo) reassignLocked(change domain.CaseOwnerChange) error {
	cs, ok := r.s.cases[change.CaseID]
	if !ok || !sameOwner(cs.OwnerID, change.ExpectedOwnerID) || !cs.Status.IsOpen() {
		return repository.ErrOwnerChanged
	}
	owner := change.OwnerID
	at := change.ReassignedAt
	reason := change.Reason
	cs.OwnerID = &owner
	cs.PreviousOwnerID = cloneString(change.PreviousOwnerID)
	cs.ReassignedAt = &at
	cs.ReassignmentReason = &reason
	cs.UpdatedAt = r.s.tick()
	return nil
}

func (r *caseRepo) UpdateStatus(_ context.Context, id string, from, to domain.CaseStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.updateStatusLocked(id, from, to)
}

func (r *caseRepo) updateStatusLocked(id string, from, to domain.CaseStatus) error {
	cs, ok := r.s.cases[id]
	if !ok || cs.Status != from {
		return repository.ErrStatusChanged
	}
	cs.Status = to
	cs.UpdatedAt = r.s.tick()
	return nil
}

// WithinTx runs fn against a view that records the cases it writes. When fn
// fails those cases are put back, unless someone else wrote them after fn did.
func (r *caseRepo) WithinTx(_ context.Context, fn func(repository.CaseRepository) error) error {
	tx := &txCaseRepo{caseRepo: r, touched: make(map[string]*caseUndo)}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

type caseUndo struct {
	before *domain.CaseStudy
	after  domain.CaseStudy
}

type txCaseRepo struct {
	*caseRepo
	touched map[string]*caseUndo
}

func (t *txCaseRepo) Create(_ context.Context, cs *domain.CaseStudy) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.createLocked(cs)
	t.touched[cs.ID] = &caseUndo{}
	t.remember(cs.ID)
	return nil
}

func (t *txCaseRepo) Reassign(_ context.Context, change domain.CaseOwnerChange) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	before := t.current(change.CaseID)
	if err := t.reassignLocked(change); err != nil {
		return err
	}
	t.track(change.CaseID, before)
	return nil
}

func (t *txCaseRepo) UpdateStatus(_ context.Context, id string, from, to domain.CaseStatus) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	before := t.current(id)
	if err := t.updateStatusLocked(id, from, to); err != nil {
		return err
	}
	t.track(id, before)
	return nil
}

// WithinTx joins the running transaction.
func (t *txCaseRepo) WithinTx(_ context.Context, fn func(repository.CaseRepository) error) error {
	return fn(t)
}

func (t *txCaseRepo) current(id string) *domain.CaseStudy {
	cs, ok := t.s.cases[id]
	if !ok {
		return nil
	}
	out := cloneCase(cs)
	return &out
}

// track keeps the first before-image of id and the latest after-image.
func (t *txCaseRepo) track(id string, before *domain.CaseStudy) {
	if _, ok := t.touched[id]; !ok {
		t.touched[id] = &caseUndo{before: before}
	}
	t.remember(id)
}

func (t *txCaseRepo) remember(id string) {
	t.touched[id].after = cloneCase(t.s.cases[id])
}

func (t *txCaseRepo) rollback() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for id, undo := range t.touched {
		cs, ok := t.s.cases[id]
		if !ok || !reflect.DeepEqual(*cs, undo.after) {
			continue
		}
		if undo.before == nil {
			delete(t.s.cases, id)
			t.s.caseSeq = removeID(t.s.caseSeq, id)
			continue
		}
		restored := cloneCase(undo.before)
		t.s.cases[id] = &restored
	}
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
