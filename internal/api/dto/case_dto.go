package dto

import (
	"time"

	"github.com/lexdesk/case-service/internal/domain"
)

// CaseCreateRequest payload for a student's case request.
type CaseCreateRequest struct {
	LegalArea string `json:"legal_area" validate:"required,max=80"`
	Title     string `json:"title" validate:"required,max=200"`
}

// CaseStatusRequest advances a case.
type CaseStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=requested submitted in_progress correction_ready video_requested corrected video_uploaded"`
}

// ReassignmentRequest triggers the reassignment engine.
type ReassignmentRequest struct {
	StaffID       string  `json:"staff_id" validate:"required"`
	Reason        string  `json:"reason" validate:"required,oneof=leave-start leave-end manual"`
	TargetStaffID *string `json:"target_staff_id" validate:"required_if=Reason manual"`
}

// CaseResponse is the public view of a case study.
type CaseResponse struct {
	ID                 string     `json:"id"`
	StudentID          string     `json:"student_id"`
	LegalArea          string     `json:"legal_area"`
	Title              string     `json:"title"`
	Status             string     `json:"status"`
	OwnerID            *string    `json:"owner_staff_id"`
	PreviousOwnerID    *string    `json:"previous_owner_staff_id"`
	ReassignedAt       *time.Time `json:"reassigned_at,omitempty"`
	ReassignmentReason *string    `json:"reassignment_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewCaseResponse maps a case study.
func NewCaseResponse(c *domain.CaseStudy) CaseResponse {
	return CaseResponse{
		ID:                 c.ID,
		StudentID:          c.StudentID,
		LegalArea:          c.LegalArea,
		Title:              c.Title,
		Status:             string(c.Status),
		OwnerID:            c.OwnerID,
		PreviousOwnerID:    c.PreviousOwnerID,
		ReassignedAt:       c.ReassignedAt,
		ReassignmentReason: c.ReassignmentReason,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// NewCaseResponses maps a slice of case studies.
func NewCaseResponses(cases []domain.CaseStudy) []CaseResponse {
	out := make([]CaseResponse, 0, len(cases))
	for i := range cases {
		out = append(out, NewCaseResponse(&cases[i]))
	}
	return out
}

// CaseHistoryResponse is one audit entry.
type CaseHistoryResponse struct {
	ID            string         `json:"id"`
	ChangedByType string         `json:"changed_by_type"`
	ChangedByID   *string        `json:"changed_by_id,omitempty"`
	ChangeType    string         `json:"change_type"`
	OldValue      map[string]any `json:"old_value"`
	NewValue      map[string]any `json:"new_value"`
	CreatedAt     time.Time      `json:"created_at"`
}

// NewCaseHistoryResponses maps audit entries.
func NewCaseHistoryResponses(entries []domain.CaseHistory) []CaseHistoryResponse {
	out := make([]CaseHistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, CaseHistoryResponse{
			ID:            e.ID,
			ChangedByType: string(e.ChangedByType),
			ChangedByID:   e.ChangedByID,
			ChangeType:    string(e.ChangeType),
			OldValue:      e.OldValue,
			NewValue:      e.NewValue,
			CreatedAt:     e.CreatedAt,
		})
	}
	return out
}
