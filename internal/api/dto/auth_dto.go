package dto

import (
	"time"

	"github.com/lexdesk/case-service/internal/domain"
)

// StudentRegisterRequest payload for new students.
type StudentRegisterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest payload for student and staff login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StudentResponse is the public view of a student.
type StudentResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewStudentResponse maps a student.
func NewStudentResponse(s *domain.Student) StudentResponse {
	return StudentResponse{ID: s.ID, Name: s.Name, Email: s.Email}
}
