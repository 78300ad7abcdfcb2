package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// CreateIssueRequest payload. Status, priority and vote fields are
// server-owned; anything the client sends for them is ignored.
type CreateIssueRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
}

// UpdateIssueRequest carries the allow-listed correction fields.
type UpdateIssueRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Location    *string `json:"location"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.IssueStatus `json:"status"`
}

// AssignStaffRequest payload.
type AssignStaffRequest struct {
	StaffEmail string `json:"staff_email"`
}

// StatusChangeResponse is a timeline entry.
type StatusChangeResponse struct {
	Status    domain.IssueStatus `json:"status"`
	ChangedBy string             `json:"changed_by"`
	ChangedAt time.Time          `json:"changed_at"`
}

// IssueSummary response.
type IssueSummary struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Category    string               `json:"category"`
	Location    string               `json:"location,omitempty"`
	Status      domain.IssueStatus   `json:"status"`
	Priority    domain.IssuePriority `json:"priority"`
	UpvoteCount int                  `json:"upvote_count"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// IssueDetailResponse provides full issue info including the timeline.
type IssueDetailResponse struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Category    string                 `json:"category"`
	Location    string                 `json:"location,omitempty"`
	ReportedBy  string                 `json:"reported_by"`
	Status      domain.IssueStatus     `json:"status"`
	Priority    domain.IssuePriority   `json:"priority"`
	AssignedTo  *string                `json:"assigned_to,omitempty"`
	AssignedAt  *time.Time             `json:"assigned_at,omitempty"`
	BoostedAt   *time.Time             `json:"boosted_at,omitempty"`
	UpvoteCount int                    `json:"upvote_count"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	Timeline    []StatusChangeResponse `json:"timeline"`
}
