package domain

import "time"

// CaseChangeType captures what changed in a history entry.
type CaseChangeType string

const (
	ChangeTypeOwnership CaseChangeType = "OWNERSHIP_CHANGE"
	ChangeTypeStatus    CaseChangeType = "STATUS_CHANGE"
)

// CaseHistory is an immutable audit trail entry.
type CaseHistory struct {
	ID            string
	CaseID        string
	ChangedByType SubjectType
	ChangedByID   *string
	ChangeType    CaseChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
