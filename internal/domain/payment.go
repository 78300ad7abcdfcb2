package domain

import "time"

// PaymentType differentiates what a settled payment unlocks.
type PaymentType string

const (
	PaymentTypeIssueBoost   PaymentType = "ISSUE_BOOST"
	PaymentTypeSubscription PaymentType = "SUBSCRIPTION"
)

// PaymentStatus is the persisted settlement state. Only settled payments are
// ever written, so SUCCESS is the sole member.
type PaymentStatus string

const PaymentStatusSuccess PaymentStatus = "SUCCESS"

// Payment is the append-only settlement ledger entry. PaymentID is the
// external checkout session identifier and the idempotency anchor: at most one
// row per PaymentID, which is what makes settlement application exactly-once.
type Payment struct {
	ID          string
	PaymentID   string
	UserID      string
	IssueID     *string
	Amount      int64
	Currency    string
	PaymentType PaymentType
	Status      PaymentStatus
	CreatedAt   time.Time
}
