package domain

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// ReassignmentReason explains why cases are being moved.
type ReassignmentReason string

const (
	ReasonLeaveStart ReassignmentReason = "leave-start"
	ReasonLeaveEnd   ReassignmentReason = "leave-end"
	ReasonManual     ReassignmentReason = "manual"
)

// Valid reports whether r is a known reason.
func (r ReassignmentReason) Valid() bool {
	switch r {
	case ReasonLeaveStart, ReasonLeaveEnd, ReasonManual:
		return true
	}
	return false
}

// ErrorKind classifies a per-item reassignment failure.
type ErrorKind string

const (
	ErrKindNoSubstituteAvailable ErrorKind = "NO_SUBSTITUTE_AVAILABLE"
	ErrKindStorage               ErrorKind = "STORAGE_ERROR"
	ErrKindConflict              ErrorKind = "CONFLICT"
	// ErrKindDispatch labels notification failures. They are logged and
	// never recorded in a report.
	ErrKindDispatch ErrorKind = "DISPATCH_ERROR"
)

// CaseTransfer records one case that changed owner.
type CaseTransfer struct {
	CaseID      string     `json:"case_id"`
	FromStaffID *string    `json:"from_staff_id,omitempty"`
	ToStaffID   string     `json:"to_staff_id"`
	Status      CaseStatus `json:"status"`
	LegalArea   string     `json:"legal_area"`
}

// ReassignmentError is a non-fatal failure recorded while processing a batch.
type ReassignmentError struct {
	Kind      ErrorKind `json:"kind"`
	LegalArea string    `json:"legal_area,omitempty"`
	CaseID    string    `json:"case_id,omitempty"`
	Message   string    `json:"message"`
}

func (e ReassignmentError) Error() string {
	switch {
	case e.CaseID != "":
		return fmt.Sprintf("%s: case %s: %s", e.Kind, e.CaseID, e.Message)
	case e.LegalArea != "":
		return fmt.Sprintf("%s: area %s: %s", e.Kind, e.LegalArea, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ReassignmentReport is the outcome of one Reassignment Engine call.
type ReassignmentReport struct {
	StaffID       string              `json:"staff_id"`
	Reason        ReassignmentReason  `json:"reason"`
	TargetStaffID *string             `json:"target_staff_id,omitempty"`
	StartedAt     time.Time           `json:"started_at"`
	FinishedAt    time.Time           `json:"finished_at"`
	Transfers     []CaseTransfer      `json:"transfers"`
	Errors        []ReassignmentError `json:"errors"`
}

// AddTransfer appends a successful transfer.
func (r *ReassignmentReport) AddTransfer(t CaseTransfer) {
	r.Transfers = append(r.Transfers, t)
}

// AddError appends a per-item failure.
func (r *ReassignmentReport) AddError(kind ErrorKind, area, caseID, message string) {
	r.Errors = append(r.Errors, ReassignmentError{Kind: kind, LegalArea: area, CaseID: caseID, Message: message})
}

// ErrorsOfKind returns the recorded errors with the given kind.
func (r *ReassignmentReport) ErrorsOfKind(kind ErrorKind) []ReassignmentError {
	var out []ReassignmentError
	for _, e := range r.Errors {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// TransfersTo groups transferred case ids by recipient.
func (r *ReassignmentReport) TransfersTo() map[string][]CaseTransfer {
	out := make(map[string][]CaseTransfer)
	for _, t := range r.Transfers {
		out[t.ToStaffID] = append(out[t.ToStaffID], t)
	}
	return out
}

// Err combines every recorded per-item error, or nil when the run was clean.
func (r *ReassignmentReport) Err() error {
	var err error
	for _, e := range r.Errors {
		err = multierr.Append(err, e)
	}
	return err
}

// ScanAction is what the vacation scanner did for a staff member.
type ScanAction string

const (
	ScanActionLeaveStarted ScanAction = "leave-start"
	ScanActionLeaveEnded   ScanAction = "leave-end"
)

// StaffScanOutcome is the per staff member result of a scan.
type StaffScanOutcome struct {
	StaffID string              `json:"staff_id"`
	Action  ScanAction          `json:"action"`
	Report  *ReassignmentReport `json:"report,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// ScanSummary is the result of one vacation scan run.
type ScanSummary struct {
	RunAt    time.Time          `json:"run_at"`
	Today    time.Time          `json:"today"`
	Outcomes []StaffScanOutcome `json:"outcomes"`
}

// Failed counts staff members whose processing returned an error.
func (s *ScanSummary) Failed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Error != "" {
			n++
		}
	}
	return n
}

// Transferred counts cases moved across all outcomes.
func (s *ScanSummary) Transferred() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Report != nil {
			n += len(o.Report.Transfers)
		}
	}
	return n
}

// ReportErrors counts per-item reassignment errors across all outcomes.
func (s *ScanSummary) ReportErrors() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Report != nil {
			n += len(o.Report.Errors)
		}
	}
	return n
}
