package dto

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lexdesk/case-service/pkg/util/errorutil"
)

func TestValidateReportsJSONFieldNames(t *testing.T) {
	err := Validate(&StaffCreateRequest{Name: "Ida", Email: "nope", Password: "short", Role: "janitor"})
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)
	assert.Contains(t, domainErr.Details, "email")
	assert.Contains(t, domainErr.Details, "password")
	assert.Contains(t, domainErr.Details, "role")
	assert.NotContains(t, domainErr.Details, "name")
}

func TestManualReassignmentNeedsTarget(t *testing.T) {
	err := Validate(&ReassignmentRequest{StaffID: "s1", Reason: "manual"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))

	target := "s2"
	assert.NoError(t, Validate(&ReassignmentRequest{StaffID: "s1", Reason: "manual", TargetStaffID: &target}))
	assert.NoError(t, Validate(&ReassignmentRequest{StaffID: "s1", Reason: "leave-end"}))

	err = Validate(&ReassignmentRequest{StaffID: "s1", Reason: "holiday"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
}

func TestLeaveRequestDates(t *testing.T) {
	req := LeaveRequest{Start: "2024-03-11", End: "2024-03-22"}
	require.NoError(t, Validate(&req))

	start, end, err := req.Dates()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.March, 22, 0, 0, 0, 0, time.UTC), end)

	assert.Error(t, Validate(&LeaveRequest{Start: "11.03.2024", End: "2024-03-22"}))
}
