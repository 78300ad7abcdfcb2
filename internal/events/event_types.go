package events

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated       EventType = "issue_created"
	EventIssueStatusChanged EventType = "issue_status_changed"
	EventIssueAssigned      EventType = "issue_assigned"
	EventIssueBoosted       EventType = "issue_boosted"
	EventIssueUpvoted       EventType = "issue_upvoted"
	EventPaymentSettled     EventType = "payment_settled"
)

// Event represents a domain event emitted by services. Actor is the verified
// email that triggered the change, or "system" for gateway-driven effects.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id,omitempty"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Location string `json:"location,omitempty"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
}

// IssueAssignedPayload payload.
type IssueAssignedPayload struct {
	StaffEmail string `json:"staff_email"`
}

// IssueBoostedPayload payload.
type IssueBoostedPayload struct {
	ViaPayment bool   `json:"via_payment"`
	PaymentID  string `json:"payment_id,omitempty"`
}

// IssueUpvotedPayload payload.
type IssueUpvotedPayload struct {
	Voter       string `json:"voter"`
	UpvoteCount int    `json:"upvote_count"`
}

// PaymentSettledPayload payload.
type PaymentSettledPayload struct {
	PaymentID   string             `json:"payment_id"`
	PaymentType domain.PaymentType `json:"payment_type"`
	UserID      string             `json:"user_id"`
	Amount      int64              `json:"amount"`
	Currency    string             `json:"currency"`
}
