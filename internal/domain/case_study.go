package domain

import (
	"fmt"
	"time"
)

// CaseStatus is the lifecycle state of a case study. Values are ordered.
type CaseStatus string

const (
	CaseStatusRequested       CaseStatus = "requested"
	CaseStatusSubmitted       CaseStatus = "submitted"
	CaseStatusInProgress      CaseStatus = "in_progress"
	CaseStatusCorrectionReady CaseStatus = "correction_ready"
	CaseStatusVideoRequested  CaseStatus = "video_requested"
	CaseStatusCorrected       CaseStatus = "corrected"
	CaseStatusVideoUploaded   CaseStatus = "video_uploaded"
)

var caseStatusOrder = []CaseStatus{
	CaseStatusRequested,
	CaseStatusSubmitted,
	CaseStatusInProgress,
	CaseStatusCorrectionReady,
	CaseStatusVideoRequested,
	CaseStatusCorrected,
	CaseStatusVideoUploaded,
}

// CaseStatuses returns every status in lifecycle order.
func CaseStatuses() []CaseStatus {
	return append([]CaseStatus(nil), caseStatusOrder...)
}

// OpenCaseStatuses returns the statuses eligible for reassignment.
func OpenCaseStatuses() []CaseStatus {
	open := make([]CaseStatus, 0, len(caseStatusOrder))
	for _, s := range caseStatusOrder {
		if s.IsOpen() {
			open = append(open, s)
		}
	}
	return open
}

// ParseCaseStatus converts a raw value into a CaseStatus.
func ParseCaseStatus(raw string) (CaseStatus, error) {
	s := CaseStatus(raw)
	if s.Rank() < 0 {
		return "", fmt.Errorf("unknown case status %q", raw)
	}
	return s, nil
}

// Rank is the position of s in the lifecycle, or -1 when unknown.
func (s CaseStatus) Rank() int {
	for i, v := range caseStatusOrder {
		if v == s {
			return i
		}
	}
	return -1
}

// IsTerminal reports whether ownership of a case in this status is frozen.
func (s CaseStatus) IsTerminal() bool {
	return s == CaseStatusCorrected || s == CaseStatusVideoUploaded
}

// IsOpen reports whether the case may still change owner.
func (s CaseStatus) IsOpen() bool {
	return s.Rank() >= 0 && !s.IsTerminal()
}

// CanAdvanceTo reports whether a forward transition from s to next is allowed.
func (s CaseStatus) CanAdvanceTo(next CaseStatus) bool {
	from, to := s.Rank(), next.Rank()
	return from >= 0 && to > from
}

// CaseStudy is a student's case-study request together with its assignment.
type CaseStudy struct {
	ID                 string
	StudentID          string
	LegalArea          string
	Title              string
	Status             CaseStatus
	OwnerID            *string
	PreviousOwnerID    *string
	ReassignedAt       *time.Time
	ReassignmentReason *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// OwnedBy reports whether staffID currently owns the case.
func (c *CaseStudy) OwnedBy(staffID string) bool {
	return c.OwnerID != nil && *c.OwnerID == staffID
}

// CaseOwnerChange describes a conditional ownership update of a single case.
// The update applies only while the case is still owned by ExpectedOwnerID
// (nil meaning unowned) and still in an open status.
type CaseOwnerChange struct {
	CaseID          string
	ExpectedOwnerID *string
	OwnerID         string
	PreviousOwnerID *string
	ReassignedAt    time.Time
	Reason          string
}
