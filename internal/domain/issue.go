package domain

import "time"

// IssueStatus enumerates lifecycle states for reported issues.
type IssueStatus string

const (
	IssueStatusPending  IssueStatus = "PENDING"
	IssueStatusAssigned IssueStatus = "ASSIGNED"
	IssueStatusResolved IssueStatus = "RESOLVED"
	IssueStatusRejected IssueStatus = "REJECTED"
)

// ValidIssueStatus reports whether s is a member of the closed status enum.
func ValidIssueStatus(s IssueStatus) bool {
	switch s {
	case IssueStatusPending, IssueStatusAssigned, IssueStatusResolved, IssueStatusRejected:
		return true
	}
	return false
}

// IssuePriority enumerates triage urgency. Boosting moves an issue to High.
type IssuePriority string

const (
	IssuePriorityLow  IssuePriority = "LOW"
	IssuePriorityHigh IssuePriority = "HIGH"
)

// Issue is the aggregate for citizen-reported infrastructure problems.
type Issue struct {
	ID            string
	Title         string
	Description   string
	Category      string
	Location      string
	ReportedBy    string
	Status        IssueStatus
	Priority      IssuePriority
	AssignedTo    *string
	AssignedAt    *time.Time
	BoostedAt     *time.Time
	UpvoteCount   int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
