package payments

import "context"

// SessionStatusPaid is the gateway's settled state for a checkout session.
const SessionStatusPaid = "paid"

// CreateSessionInput describes a fixed-price hosted checkout session.
type CreateSessionInput struct {
	ProductName string
	Amount      int64
	Currency    string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// Session is the gateway's view of a checkout session.
type Session struct {
	ID            string
	URL           string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	Metadata      map[string]string
}

// Paid reports whether the session settled.
func (s *Session) Paid() bool {
	return s != nil && s.PaymentStatus == SessionStatusPaid
}

// Gateway is the payment-provider port.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)
}
