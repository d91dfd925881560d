package events

import (
	"time"

	"github.com/lexdesk/case-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCasesReassigned       EventType = "cases_reassigned"
	EventCaseStatusChanged     EventType = "case_status_changed"
	EventVacationScanCompleted EventType = "vacation_scan_completed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type      domain.SubjectType `json:"type"`
	StudentID *string            `json:"student_id,omitempty"`
	StaffID   *string            `json:"staff_id,omitempty"`
}

// SystemActor is the actor of scheduler-driven events.
var SystemActor = Actor{Type: domain.SubjectTypeSystem}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	CaseID    string      `json:"case_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// CasesReassignedPayload tells one recipient which cases they now hold.
type CasesReassignedPayload struct {
	RecipientStaffID string                    `json:"recipient_staff_id"`
	SubjectStaffID   string                    `json:"subject_staff_id"`
	Reason           domain.ReassignmentReason `json:"reason"`
	Transfers        []domain.CaseTransfer     `json:"transfers"`
}

// CaseStatusChangedPayload payload.
type CaseStatusChangedPayload struct {
	StudentID string            `json:"student_id"`
	Title     string            `json:"title"`
	OldStatus domain.CaseStatus `json:"old_status"`
	NewStatus domain.CaseStatus `json:"new_status"`
}

// VacationScanCompletedPayload payload.
type VacationScanCompletedPayload struct {
	Summary *domain.ScanSummary `json:"summary"`
}
