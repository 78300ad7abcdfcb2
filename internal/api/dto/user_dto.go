package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// RegisterUserRequest payload for registration. Registration is idempotent;
// a repeat for the same email returns the existing record.
type RegisterUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UpdateUserRequest payload.
type UpdateUserRequest struct {
	Name string `json:"name"`
}

// ChangeRoleRequest payload (admin only).
type ChangeRoleRequest struct {
	Role domain.UserRole `json:"role"`
}

// ToggleBlockRequest payload (admin only).
type ToggleBlockRequest struct {
	Blocked bool `json:"blocked"`
}

// RegisterStaffRequest payload for the privileged creation path (admin only).
type RegisterStaffRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Secret      string `json:"secret"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
}

// UserResponse mirrors the user record.
type UserResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Role             domain.UserRole `json:"role"`
	IssuesReported   int             `json:"issues_reported"`
	IsPremium        bool            `json:"is_premium"`
	IsBlocked        bool            `json:"is_blocked"`
	SubscriptionDate *time.Time      `json:"subscription_date,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
