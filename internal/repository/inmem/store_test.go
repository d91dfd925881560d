package inmem

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/repository"
)

func strPtr(s string) *string { return &s }

func TestCaseFilters(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	cases := store.Cases()

	owned := &domain.CaseStudy{StudentID: "st", LegalArea: "Zivilrecht", Status: domain.CaseStatusSubmitted, OwnerID: strPtr("i1")}
	unowned := &domain.CaseStudy{StudentID: "st", LegalArea: "Zivilrecht", Status: domain.CaseStatusRequested}
	other := &domain.CaseStudy{StudentID: "st", LegalArea: "Strafrecht", Status: domain.CaseStatusSubmitted, OwnerID: strPtr("i2")}
	done := &domain.CaseStudy{StudentID: "st", LegalArea: "Zivilrecht", Status: domain.CaseStatusCorrected, OwnerID: strPtr("i1")}
	for _, cs := range []*domain.CaseStudy{owned, unowned, other, done} {
		require.NoError(t, cases.Create(ctx, cs))
	}

	got, err := cases.List(ctx, repository.CaseFilter{
		LegalArea:      strPtr("Zivilrecht"),
		Statuses:       domain.OpenCaseStatuses(),
		OwnerID:        strPtr("i1"),
		IncludeUnowned: true,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, owned.ID, got[0].ID)
	assert.Equal(t, unowned.ID, got[1].ID)

	got, err = cases.List(ctx, repository.CaseFilter{IncludeUnowned: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, unowned.ID, got[0].ID)

	got, err = cases.List(ctx, repository.CaseFilter{InvolvedStaffID: strPtr("i1")})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestReassignCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	cases := NewStore().Cases()

	cs := &domain.CaseStudy{StudentID: "st", LegalArea: "Zivilrecht", Status: domain.CaseStatusInProgress, OwnerID: strPtr("i1")}
	require.NoError(t, cases.Create(ctx, cs))

	err := cases.Reassign(ctx, domain.CaseOwnerChange{CaseID: cs.ID, ExpectedOwnerID: strPtr("someone-else"), OwnerID: "sub"})
	require.ErrorIs(t, err, repository.ErrOwnerChanged)

	err = cases.Reassign(ctx, domain.CaseOwnerChange{
		CaseID:          cs.ID,
		ExpectedOwnerID: strPtr("i1"),
		OwnerID:         "sub",
		PreviousOwnerID: strPtr("i1"),
		ReassignedAt:    time.Date(2026, 7, 1, 0, 5, 0, 0, time.UTC),
		Reason:          "leave",
	})
	require.NoError(t, err)

	stored, err := cases.GetByID(ctx, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, "sub", *stored.OwnerID)
	assert.Equal(t, "i1", *stored.PreviousOwnerID)
	assert.Equal(t, "leave", *stored.ReassignmentReason)

	require.NoError(t, cases.UpdateStatus(ctx, cs.ID, domain.CaseStatusInProgress, domain.CaseStatusCorrected))
	err = cases.Reassign(ctx, domain.CaseOwnerChange{CaseID: cs.ID, ExpectedOwnerID: strPtr("sub"), OwnerID: "i1"})
	require.ErrorIs(t, err, repository.ErrOwnerChanged, "terminal cases never change owner")

	_, err = cases.GetByID(ctx, "missing")
	require.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	cases := NewStore().Cases()
	cs := &domain.CaseStudy{StudentID: "st", LegalArea: "Zivilrecht", Status: domain.CaseStatusSubmitted, OwnerID: strPtr("i1")}
	require.NoError(t, cases.Create(ctx, cs))

	boom := errors.New("boom")
	err := cases.WithinTx(ctx, func(tx repository.CaseRepository) error {
		require.NoError(t, tx.Reassign(ctx, domain.CaseOwnerChange{CaseID: cs.ID, ExpectedOwnerID: strPtr("i1"), OwnerID: "sub"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := cases.GetByID(ctx, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, "i1", *stored.OwnerID)
}

func TestWithinTxRollbackKeepsOutsideWrites(t *testing.T) {
	ctx := context.Background()
	cases := NewStore().Cases()
	mine := &domain.CaseStudy{StudentID: "st", LegalArea: "Zivilrecht", Status: domain.CaseStatusSubmitted, OwnerID: strPtr("i1")}
	theirs := &domain.CaseStudy{StudentID: "st", LegalArea: "Strafrecht", Status: domain.CaseStatusSubmitted, OwnerID: strPtr("i2")}
	shared := &domain.CaseStudy{StudentID: "st", LegalArea: "Zivilrecht", Status: domain.CaseStatusSubmitted, OwnerID: strPtr("i1")}
	for _, cs := range []*domain.CaseStudy{mine, theirs, shared} {
		require.NoError(t, cases.Create(ctx, cs))
	}

	var added domain.CaseStudy
	boom := errors.New("boom")
	err := cases.WithinTx(ctx, func(tx repository.CaseRepository) error {
		require.NoError(t, tx.Reassign(ctx, domain.CaseOwnerChange{CaseID: mine.ID, ExpectedOwnerID: strPtr("i1"), OwnerID: "sub"}))
		require.NoError(t, tx.Reassign(ctx, domain.CaseOwnerChange{CaseID: shared.ID, ExpectedOwnerID: strPtr("i1"), OwnerID: "sub"}))
		added = domain.CaseStudy{StudentID: "st", LegalArea: "Zivilrecht", Status: domain.CaseStatusRequested}
		require.NoError(t, tx.Create(ctx, &added))

		require.NoError(t, cases.Reassign(ctx, domain.CaseOwnerChange{CaseID: theirs.ID, ExpectedOwnerID: strPtr("i2"), OwnerID: "other"}))
		require.NoError(t, cases.UpdateStatus(ctx, shared.ID, domain.CaseStatusSubmitted, domain.CaseStatusInProgress))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := cases.GetByID(ctx, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "i1", *got.OwnerID)

	got, err = cases.GetByID(ctx, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, "other", *got.OwnerID)

	got, err = cases.GetByID(ctx, shared.ID)
	require.NoError(t, err)
	assert.Equal(t, "sub", *got.OwnerID)
	assert.Equal(t, domain.CaseStatusInProgress, got.Status)

	_, err = cases.GetByID(ctx, added.ID)
	require.ErrorIs(t, err, pgx.ErrNoRows)
	all, err := cases.List(ctx, repository.CaseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStaffLeaveQueries(t *testing.T) {
	ctx := context.Background()
	staff := NewStore().Staff()
	today := time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC)

	away := &domain.StaffMember{Email: "away@x", Role: domain.StaffRoleInstructor, NotificationsEnabled: true,
		Leave: &domain.LeaveWindow{Start: today.AddDate(0, 0, -2), End: today.AddDate(0, 0, 3)}}
	back := &domain.StaffMember{Email: "back@x", Role: domain.StaffRoleInstructor, NotificationsEnabled: false,
		Leave: &domain.LeaveWindow{Start: today.AddDate(0, 0, -9), End: today.AddDate(0, 0, -1)}}
	admin := &domain.StaffMember{Email: "admin@x", Role: domain.StaffRoleAdmin, NotificationsEnabled: true,
		Leave: &domain.LeaveWindow{Start: today, End: today}}
	for _, s := range []*domain.StaffMember{away, back, admin} {
		require.NoError(t, staff.Create(ctx, s))
	}
	require.ErrorIs(t, staff.Create(ctx, &domain.StaffMember{Email: "away@x"}), repository.ErrDuplicate)

	started, err := staff.ListLeaveStarted(ctx, today, domain.CaseOwnerRoles())
	require.NoError(t, err)
	require.Len(t, started, 1)
	assert.Equal(t, away.ID, started[0].ID)

	everyone, err := staff.ListLeaveStarted(ctx, today, domain.AllStaffRoles())
	require.NoError(t, err)
	assert.Len(t, everyone, 2)

	ended, err := staff.ListLeaveEnded(ctx, today, domain.CaseOwnerRoles())
	require.NoError(t, err)
	require.Len(t, ended, 1)
	assert.Equal(t, back.ID, ended[0].ID)

	require.NoError(t, staff.SetLeave(ctx, back.ID, nil, true))
	ended, err = staff.ListLeaveEnded(ctx, today, domain.CaseOwnerRoles())
	require.NoError(t, err)
	assert.Empty(t, ended)
}
