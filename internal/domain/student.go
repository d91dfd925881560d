package domain

import "time"

// Student is a subscriber who requests and submits case studies.
type Student struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
