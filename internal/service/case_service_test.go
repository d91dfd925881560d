package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lexdesk/case-service/internal/domain"
	"github.com/lexdesk/case-service/internal/events"
	apperrors "github.com/lexdesk/case-service/pkg/util/errorutil"
)

func newCaseService(t *testing.T, f *fixture) *CaseService {
	return NewCaseService(CaseDependencies{
		CaseRepo:    f.cases,
		StaffRepo:   f.staff,
		HistoryRepo: f.history,
		Dispatcher:  f.dispatcher,
		Logger:      zaptest.NewLogger(t),
		Clock:       fixedClock,
	})
}

func TestRequestCaseAssignsAvailableInstructor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	svc := newCaseService(t, f)

	away := f.addStaff(t, "away", domain.StaffRoleInstructor, "Zivilrecht")
	require.NoError(t, f.staff.SetNotifications(ctx, away.ID, false))
	f.addStaff(t, "sam", domain.StaffRoleSubstitute, "Zivilrecht")
	ida := f.addStaff(t, "ida", domain.StaffRoleInstructor, "Zivilrecht")

	cs, err := svc.RequestCase(ctx, "student-1", CaseRequestInput{LegalArea: "Zivilrecht", Title: "Kaufvertrag"})
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusRequested, cs.Status)
	require.NotNil(t, cs.OwnerID)
	assert.Equal(t, ida.ID, *cs.OwnerID)

	orphan, err := svc.RequestCase(ctx, "student-1", CaseRequestInput{LegalArea: "Verwaltungsrecht", Title: "Baugenehmigung"})
	require.NoError(t, err)
	assert.Nil(t, orphan.OwnerID)

	_, err = svc.RequestCase(ctx, "student-1", CaseRequestInput{LegalArea: " "})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))

	mine, err := svc.ListStudentCases(ctx, "student-1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = svc.GetStudentCase(ctx, "student-2", cs.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestAdvanceStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	svc := newCaseService(t, f)
	ida := f.addStaff(t, "ida", domain.StaffRoleInstructor, "Zivilrecht")
	mia := f.addStaff(t, "mia", domain.StaffRoleInstructor, "Zivilrecht")
	cs := f.addCase(t, "Zivilrecht", domain.CaseStatusInProgress, ida)

	_, err := svc.AdvanceStatus(ctx, mia, cs.ID, domain.CaseStatusCorrectionReady)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	_, err = svc.AdvanceStatus(ctx, ida, cs.ID, domain.CaseStatusSubmitted)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))

	updated, err := svc.AdvanceStatus(ctx, ida, cs.ID, domain.CaseStatusCorrected)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusCorrected, updated.Status)
	assert.Equal(t, domain.CaseStatusCorrected, f.reload(t, cs).Status)

	published := f.recorded.ofType(events.EventCaseStatusChanged)
	require.Len(t, published, 1)
	payload := published[0].Payload.(events.CaseStatusChangedPayload)
	assert.Equal(t, domain.CaseStatusInProgress, payload.OldStatus)
	assert.Equal(t, domain.CaseStatusCorrected, payload.NewStatus)

	history, err := svc.History(ctx, ida, cs.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ChangeTypeStatus, history[0].ChangeType)

	_, err = svc.History(ctx, mia, cs.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	_, err = svc.AdvanceStatus(ctx, ida, "missing", domain.CaseStatusCorrected)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestListStaffCasesIncludesHeldCases(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	svc := newCaseService(t, f)
	admin := f.addStaff(t, "root", domain.StaffRoleAdmin)
	ida := f.addStaff(t, "ida", domain.StaffRoleInstructor, "Zivilrecht")
	sam := f.addStaff(t, "sam", domain.StaffRoleSubstitute, "Zivilrecht")
	f.addCase(t, "Zivilrecht", domain.CaseStatusSubmitted, ida)
	f.addCase(t, "Zivilrecht", domain.CaseStatusSubmitted, sam)

	_, err := f.engine.Reassign(ctx, ReassignmentRequest{StaffID: ida.ID, Reason: domain.ReasonLeaveStart})
	require.NoError(t, err)

	forIda, err := svc.ListStaffCases(ctx, ida, CaseStaffFilter{})
	require.NoError(t, err)
	assert.Len(t, forIda, 1)

	forSam, err := svc.ListStaffCases(ctx, sam, CaseStaffFilter{})
	require.NoError(t, err)
	assert.Len(t, forSam, 2)

	all, err := svc.ListStaffCases(ctx, admin, CaseStaffFilter{Statuses: domain.OpenCaseStatuses()})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
