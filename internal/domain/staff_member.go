package domain

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleInstructor StaffRole = "instructor"
	StaffRoleSubstitute StaffRole = "substitute"
	StaffRoleAdmin      StaffRole = "admin"
)

// Valid reports whether r is a known role.
func (r StaffRole) Valid() bool {
	switch r {
	case StaffRoleInstructor, StaffRoleSubstitute, StaffRoleAdmin:
		return true
	}
	return false
}

// CaseOwnerRoles lists roles that can hold case studies.
func CaseOwnerRoles() []StaffRole {
	return []StaffRole{StaffRoleInstructor, StaffRoleSubstitute}
}

// AllStaffRoles lists every known role.
func AllStaffRoles() []StaffRole {
	return []StaffRole{StaffRoleInstructor, StaffRoleSubstitute, StaffRoleAdmin}
}

// HoldsCases reports whether staff with this role can own case studies.
func (r StaffRole) HoldsCases() bool {
	return r == StaffRoleInstructor || r == StaffRoleSubstitute
}

var (
	ErrLeaveIncomplete = errors.New("leave window requires both start and end date")
	ErrLeaveReversed   = errors.New("leave window ends before it starts")
)

// LeaveWindow is an inclusive date range during which a staff member is away.
type LeaveWindow struct {
	Start  time.Time
	End    time.Time
	Reason string
}

// NewLeaveWindow validates and normalizes a leave window. Both dates are required.
func NewLeaveWindow(start, end *time.Time, reason string) (*LeaveWindow, error) {
	if start == nil || end == nil || start.IsZero() || end.IsZero() {
		return nil, ErrLeaveIncomplete
	}
	w := &LeaveWindow{Start: Day(*start), End: Day(*end), Reason: strings.TrimSpace(reason)}
	if w.End.Before(w.Start) {
		return nil, ErrLeaveReversed
	}
	return w, nil
}

// Contains reports whether day falls inside the window.
func (w *LeaveWindow) Contains(day time.Time) bool {
	if w == nil {
		return false
	}
	d := Day(day)
	return !d.Before(w.Start) && !d.After(w.End)
}

// EndedBefore reports whether the window closed strictly before day.
func (w *LeaveWindow) EndedBefore(day time.Time) bool {
	if w == nil {
		return false
	}
	return w.End.Before(Day(day))
}

// StaffMember models an instructor, substitute or administrator.
type StaffMember struct {
	ID                   string
	Name                 string
	Email                string
	PasswordHash         string
	Role                 StaffRole
	LegalAreas           []string
	Leave                *LeaveWindow
	NotificationsEnabled bool
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// OnLeave reports whether today lies within the staff member's leave window.
func (s *StaffMember) OnLeave(today time.Time) bool {
	return s.Leave.Contains(today)
}

// HasLegalArea reports whether the staff member covers area.
func (s *StaffMember) HasLegalArea(area string) bool {
	for _, a := range s.LegalAreas {
		if a == area {
			return true
		}
	}
	return false
}

// NormalizeLegalAreas trims, de-duplicates and sorts area identifiers.
func NormalizeLegalAreas(areas []string) []string {
	seen := make(map[string]struct{}, len(areas))
	out := make([]string, 0, len(areas))
	for _, a := range areas {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
