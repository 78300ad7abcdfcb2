package dto

import "time"

// CreateStaffRequest payload for directory entries (admin only).
type CreateStaffRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Region     string `json:"region"`
}

// UpdateStaffRequest payload. Email is immutable.
type UpdateStaffRequest struct {
	Name       *string `json:"name"`
	Department *string `json:"department"`
	Region     *string `json:"region"`
	Active     *bool   `json:"active"`
}

// StaffResponse mirrors a directory entry.
type StaffResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Region     string    `json:"region"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
