package models

import "github.com/google/uuid"

// Principal is the authenticated user on whose behalf store operations run.
type Principal struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email,omitempty"`
	Role  string    `json:"role,omitempty"`
}
