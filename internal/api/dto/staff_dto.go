package dto

import (
	"time"

	"github.com/lexdesk/case-service/internal/domain"
)

const dateLayout = "2006-01-02"

// StaffCreateRequest payload for new staff accounts.
type StaffCreateRequest struct {
	Name       string   `json:"name" validate:"required,max=120"`
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=8,max=72"`
	Role       string   `json:"role" validate:"required,oneof=instructor substitute admin"`
	LegalAreas []string `json:"legal_areas" validate:"dive,required,max=80"`
}

// StaffUpdateRequest payload; omitted fields stay unchanged.
type StaffUpdateRequest struct {
	Name       *string  `json:"name" validate:"omitempty,max=120"`
	Email      *string  `json:"email" validate:"omitempty,email"`
	Role       *string  `json:"role" validate:"omitempty,oneof=instructor substitute admin"`
	LegalAreas []string `json:"legal_areas" validate:"omitempty,dive,required,max=80"`
	Active     *bool    `json:"active"`
}

// LeaveRequest sets a leave window. Dates are inclusive calendar days.
type LeaveRequest struct {
	Start  string `json:"start" validate:"required,datetime=2006-01-02"`
	End    string `json:"end" validate:"required,datetime=2006-01-02"`
	Reason string `json:"reason" validate:"max=200"`
}

// Dates parses the window bounds. Call after Validate.
func (r LeaveRequest) Dates() (start, end time.Time, err error) {
	if start, err = time.Parse(dateLayout, r.Start); err != nil {
		return
	}
	end, err = time.Parse(dateLayout, r.End)
	return
}

// LeaveResponse is the public view of a leave window.
type LeaveResponse struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason,omitempty"`
}

// StaffResponse is the public view of a staff member.
type StaffResponse struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	Email                string         `json:"email"`
	Role                 string         `json:"role"`
	LegalAreas           []string       `json:"legal_areas"`
	Leave                *LeaveResponse `json:"leave,omitempty"`
	NotificationsEnabled bool           `json:"notifications_enabled"`
	Active               bool           `json:"active"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// NewStaffResponse maps a staff member.
func NewStaffResponse(s *domain.StaffMember) StaffResponse {
	resp := StaffResponse{
		ID:                   s.ID,
		Name:                 s.Name,
		Email:                s.Email,
		Role:                 string(s.Role),
		LegalAreas:           s.LegalAreas,
		NotificationsEnabled: s.NotificationsEnabled,
		Active:               s.Active,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
	if resp.LegalAreas == nil {
		resp.LegalAreas = []string{}
	}
	if s.Leave != nil {
		resp.Leave = &LeaveResponse{
			Start:  s.Leave.Start.Format(dateLayout),
			End:    s.Leave.End.Format(dateLayout),
			Reason: s.Leave.Reason,
		}
	}
	return resp
}

// NewStaffResponses maps a slice of staff members.
func NewStaffResponses(staff []domain.StaffMember) []StaffResponse {
	out := make([]StaffResponse, 0, len(staff))
	for i := range staff {
		out = append(out, NewStaffResponse(&staff[i]))
	}
	return out
}
