package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/events"
	"github.com/lexdesk/case-service/internal/repository"
	"github.com/lexdesk/case-service/internal/repository/inmem"
)

var testNow = time.Date(2024, time.March, 11, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func strPtr(s string) *string { return &s }

// recorder captures every published event.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store      *inmem.Store
	staff      repository.StaffRepository
	cases      repository.CaseRepository
	history    repository.CaseHistoryRepository
	dispatcher events.Dispatcher
	recorded   *recorder
	engine     *ReassignmentService
}

func newFixture(t *testing.T, transactional bool) *fixture {
	t.Helper()
	store := inmem.NewStore()
	dispatcher := events.NewInMemoryDispatcher(zaptest.NewLogger(t))
	rec := &recorder{}
	dispatcher.Subscribe(events.EventCasesReassigned, rec.handle)
	dispatcher.Subscribe(events.EventCaseStatusChanged, rec.handle)
	dispatcher.Subscribe(events.EventVacationScanCompleted, rec.handle)

	f := &fixture{
		store:      store,
		staff:      store.Staff(),
		cases:      store.Cases(),
		history:    store.History(),
		dispatcher: dispatcher,
		recorded:   rec,
	}
	f.engine = NewReassignmentService(ReassignmentDependencies{
		StaffRepo:     f.staff,
		CaseRepo:      f.cases,
		HistoryRepo:   f.history,
		Dispatcher:    dispatcher,
		Logger:        zaptest.NewLogger(t),
		Clock:         fixedClock,
		Transactional: transactional,
	})
	return f
}

func (f *fixture) addStaff(t *testing.T, name string, role domain.StaffRole, areas ...string) *domain.StaffMember {
	t.Helper()
	staff := &domain.StaffMember{
		Name:                 name,
		Email:                name + "@example.com",
		Role:                 role,
		LegalAreas:           domain.NormalizeLegalAreas(areas),
		NotificationsEnabled: true,
		Active:               true,
	}
	require.NoError(t, f.staff.Create(context.Background(), staff))
	return staff
}

func (f *fixture) setLeave(t *testing.T, staff *domain.StaffMember, start, end *time.Time, notify bool) {
	t.Helper()
	window, err := domain.NewLeaveWindow(start, end, "")
	require.NoError(t, err)
	require.NoError(t, f.staff.SetLeave(context.Background(), staff.ID, window, notify))
}

func (f *fixture) addCase(t *testing.T, area string, status domain.CaseStatus, owner *domain.StaffMember) *domain.CaseStudy {
	t.Helper()
	cs := &domain.CaseStudy{StudentID: "student-1", LegalArea: area, Title: "Fall " + area, Status: status}
	if owner != nil {
		cs.OwnerID = strPtr(owner.ID)
	}
	require.NoError(t, f.cases.Create(context.Background(), cs))
	return cs
}

func (f *fixture) reload(t *testing.T, cs *domain.CaseStudy) *domain.CaseStudy {
	t.Helper()
	got, err := f.cases.GetByID(context.Background(), cs.ID)
	require.NoError(t, err)
	return got
}

func (f *fixture) reloadStaff(t *testing.T, staff *domain.StaffMember) *domain.StaffMember {
	t.Helper()
	got, err := f.staff.GetByID(context.Background(), staff.ID)
	require.NoError(t, err)
	return got
}
