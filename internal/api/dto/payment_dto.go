package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// CreateCheckoutRequest payload. IssueID is required for boost sessions and
// must be absent for subscriptions.
type CreateCheckoutRequest struct {
	Kind    domain.PaymentType `json:"kind"`
	IssueID *string            `json:"issue_id,omitempty"`
}

// CheckoutResponse carries the gateway redirect URL.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// ConfirmPaymentRequest payload.
type ConfirmPaymentRequest struct {
	SessionID string `json:"session_id"`
}

// PaymentResponse mirrors a settlement ledger entry.
type PaymentResponse struct {
	PaymentID        string             `json:"payment_id"`
	IssueID          *string            `json:"issue_id,omitempty"`
	Amount           int64              `json:"amount"`
	Currency         string             `json:"currency"`
	PaymentType      domain.PaymentType `json:"payment_type"`
	Status           string             `json:"status"`
	AlreadyProcessed bool               `json:"already_processed,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}
