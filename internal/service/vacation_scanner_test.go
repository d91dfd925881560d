package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/events"
	"github.com/lexdesk/case-service/internal/persistence"
)

func newScanner(t *testing.T, f *fixture, engine Reassigner, state ScanState, clock Clock, loc *time.Location) *VacationScanner {
	t.Helper()
	if engine == nil {
		engine = f.engine
	}
	return NewVacationScanner(VacationScannerDependencies{
		StaffRepo:  f.staff,
		Engine:     engine,
		State:      state,
		Dispatcher: f.dispatcher,
		Logger:     zaptest.NewLogger(t),
		Clock:      clock,
		Location:   loc,
		LockTTL:    time.Minute,
	})
}

func TestScannerAppliesLeaveStartsAndEnds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	leaving := f.addStaff(t, "ida", domain.StaffRoleInstructor, "Zivilrecht")
	f.setLeave(t, leaving, day(2024, time.March, 11), day(2024, time.March, 22), true)
	returning := f.addStaff(t, "ron", domain.StaffRoleInstructor, "Strafrecht")
	f.setLeave(t, returning, day(2024, time.February, 26), day(2024, time.March, 10), false)
	future := f.addStaff(t, "fay", domain.StaffRoleInstructor, "Zivilrecht")
	f.setLeave(t, future, day(2024, time.April, 1), day(2024, time.April, 5), true)
	sub := f.addStaff(t, "sam", domain.StaffRoleSubstitute, "Zivilrecht", "Strafrecht")

	open := f.addCase(t, "Zivilrecht", domain.CaseStatusInProgress, leaving)
	held := f.addCase(t, "Strafrecht", domain.CaseStatusSubmitted, sub)
	require.NoError(t, f.cases.Reassign(ctx, domain.CaseOwnerChange{
		CaseID: held.ID, ExpectedOwnerID: &sub.ID, OwnerID: sub.ID, PreviousOwnerID: &returning.ID, ReassignedAt: testNow,
	}))

	state := persistence.NewMemoryScanState()
	summary, err := newScanner(t, f, nil, state, fixedClock, time.UTC).Run(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, 0, summary.Failed())
	assert.Equal(t, 2, summary.Transferred())

	got := f.reloadStaff(t, leaving)
	assert.False(t, got.NotificationsEnabled)
	require.NotNil(t, got.Leave)

	back := f.reloadStaff(t, returning)
	assert.True(t, back.NotificationsEnabled)
	assert.Nil(t, back.Leave)

	assert.True(t, f.reloadStaff(t, future).NotificationsEnabled)

	moved := f.reload(t, open)
	assert.Equal(t, sub.ID, *moved.OwnerID)
	assert.Equal(t, leaving.ID, *moved.PreviousOwnerID)

	returned := f.reload(t, held)
	assert.Equal(t, returning.ID, *returned.OwnerID)
	assert.Nil(t, returned.PreviousOwnerID)

	last, err := state.LastSummary(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Len(t, last.Outcomes, 2)
	assert.Len(t, f.recorded.ofType(events.EventVacationScanCompleted), 1)

	second, err := newScanner(t, f, nil, state, fixedClock, time.UTC).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.Outcomes)
}

type flakyEngine struct {
	inner   Reassigner
	failFor string
}

func (e *flakyEngine) Reassign(ctx context.Context, req ReassignmentRequest) (*domain.ReassignmentReport, error) {
	if req.StaffID == e.failFor {
		return nil, errors.New("storage unavailable")
	}
	return e.inner.Reassign(ctx, req)
}

func TestScannerIsolatesStaffFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	broken := f.addStaff(t, "bob", domain.StaffRoleInstructor, "Zivilrecht")
	f.setLeave(t, broken, day(2024, time.March, 1), day(2024, time.March, 30), true)
	fine := f.addStaff(t, "ida", domain.StaffRoleInstructor, "Zivilrecht")
	f.setLeave(t, fine, day(2024, time.March, 1), day(2024, time.March, 30), true)
	f.addStaff(t, "sam", domain.StaffRoleSubstitute, "Zivilrecht")
	cs := f.addCase(t, "Zivilrecht", domain.CaseStatusSubmitted, fine)

	engine := &flakyEngine{inner: f.engine, failFor: broken.ID}
	summary, err := newScanner(t, f, engine, persistence.NewMemoryScanState(), fixedClock, time.UTC).Run(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, 1, summary.Failed())

	for _, o := range summary.Outcomes {
		if o.StaffID == broken.ID {
			assert.Contains(t, o.Error, "storage unavailable")
			continue
		}
		assert.Empty(t, o.Error)
		require.NotNil(t, o.Report)
		assert.Len(t, o.Report.Transfers, 1)
	}
	assert.NotEqual(t, fine.ID, *f.reload(t, cs).OwnerID)
}

func TestScannerUsesConfiguredDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	ida := f.addStaff(t, "ida", domain.StaffRoleInstructor, "Zivilrecht")
	f.setLeave(t, ida, day(2024, time.March, 11), day(2024, time.March, 12), true)

	lateEvening := func() time.Time { return time.Date(2024, time.March, 10, 23, 30, 0, 0, time.UTC) }

	summary, err := newScanner(t, f, nil, persistence.NewMemoryScanState(), lateEvening, time.UTC).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, summary.Outcomes)

	cet := time.FixedZone("CET", 60*60)
	summary, err = newScanner(t, f, nil, persistence.NewMemoryScanState(), lateEvening, cet).Run(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, domain.ScanActionLeaveStarted, summary.Outcomes[0].Action)
	assert.Equal(t, *day(2024, time.March, 11), summary.Today)
}

func TestScannerRefusesConcurrentRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	state := persistence.NewMemoryScanState()

	release, ok, err := state.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = newScanner(t, f, nil, state, fixedClock, time.UTC).Run(ctx)
	require.ErrorIs(t, err, ErrScanInProgress)

	require.NoError(t, release(ctx))
	_, err = newScanner(t, f, nil, state, fixedClock, time.UTC).Run(ctx)
	require.NoError(t, err)
}

func TestScannerReturnsStaffBeforeLeaveStarts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	ida := f.addStaff(t, "ida", domain.StaffRoleInstructor, "Zivilrecht")
	f.setLeave(t, ida, day(2024, time.March, 11), day(2024, time.March, 22), true)
	sam := f.addStaff(t, "sam", domain.StaffRoleSubstitute, "Zivilrecht")
	f.setLeave(t, sam, day(2024, time.February, 26), day(2024, time.March, 10), false)
	cs := f.addCase(t, "Zivilrecht", domain.CaseStatusInProgress, ida)

	summary, err := newScanner(t, f, nil, persistence.NewMemoryScanState(), fixedClock, time.UTC).Run(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, 0, summary.ReportErrors())
	assert.Equal(t, 1, summary.Transferred())

	assert.True(t, f.reloadStaff(t, sam).NotificationsEnabled)
	assert.False(t, f.reloadStaff(t, ida).NotificationsEnabled)
	moved := f.reload(t, cs)
	assert.Equal(t, sam.ID, *moved.OwnerID)
	assert.Equal(t, ida.ID, *moved.PreviousOwnerID)
}

func TestScannerSkipsSubstitutesLeavingToday(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	ida := f.addStaff(t, "ida", domain.StaffRoleInstructor, "Zivilrecht")
	f.setLeave(t, ida, day(2024, time.March, 11), day(2024, time.March, 22), true)
	old := f.addStaff(t, "ole", domain.StaffRoleSubstitute, "Zivilrecht")
	f.setLeave(t, old, day(2024, time.March, 11), day(2024, time.March, 15), true)
	sam := f.addStaff(t, "sam", domain.StaffRoleSubstitute, "Zivilrecht")
	cs := f.addCase(t, "Zivilrecht", domain.CaseStatusSubmitted, ida)

	summary, err := newScanner(t, f, nil, persistence.NewMemoryScanState(), fixedClock, time.UTC).Run(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, 1, summary.Transferred())

	moved := f.reload(t, cs)
	assert.Equal(t, sam.ID, *moved.OwnerID)
	assert.Equal(t, ida.ID, *moved.PreviousOwnerID)
	assert.False(t, f.reloadStaff(t, old).NotificationsEnabled)
}

func TestScannerTogglesAdminLeave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	away := f.addStaff(t, "root", domain.StaffRoleAdmin)
	f.setLeave(t, away, day(2024, time.March, 11), day(2024, time.March, 22), true)
	back := f.addStaff(t, "boss", domain.StaffRoleAdmin)
	f.setLeave(t, back, day(2024, time.March, 4), day(2024, time.March, 8), false)

	summary, err := newScanner(t, f, nil, persistence.NewMemoryScanState(), fixedClock, time.UTC).Run(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 2)
	for _, o := range summary.Outcomes {
		assert.Empty(t, o.Error)
		assert.Nil(t, o.Report)
	}

	assert.False(t, f.reloadStaff(t, away).NotificationsEnabled)
	returned := f.reloadStaff(t, back)
	assert.True(t, returned.NotificationsEnabled)
	assert.Nil(t, returned.Leave)
}
