package identity

import (
	"context"
	"time"
)

// CreateAccountInput carries the fields needed to mint a new identity.
type CreateAccountInput struct {
	Email       string
	Secret      string
	DisplayName string
	PhotoURL    string
}

// Gateway is the identity-provider port. Verify resolves a bearer token to a
// verified email; CreateAccount provisions credentials for privileged
// registration flows; IssueToken authenticates credentials and mints a token.
type Gateway interface {
	Verify(ctx context.Context, token string) (string, error)
	CreateAccount(ctx context.Context, input CreateAccountInput) (string, error)
	IssueToken(ctx context.Context, email, secret string) (string, time.Time, error)
}
