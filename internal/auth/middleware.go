package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/identity"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

const identityKey = "verified_identity"

// Middleware authenticates requests by delegating bearer-token verification
// to the identity gateway and storing the verified email on the request.
type Middleware struct {
	gateway identity.Gateway
}

// NewMiddleware constructs the middleware.
func NewMiddleware(gateway identity.Gateway) *Middleware {
	return &Middleware{gateway: gateway}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	email, err := m.gateway.Verify(c.UserContext(), parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(identityKey, email)
	return c.Next()
}

// HandleOptional verifies a bearer token when one is presented but lets
// anonymous requests through. Routes open to unregistered reporters use it so
// an authenticated caller still gets its identity attributed.
func (m *Middleware) HandleOptional(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Next()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	email, err := m.gateway.Verify(c.UserContext(), parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(identityKey, email)
	return c.Next()
}

// IdentityFromContext retrieves the verified email for the request.
func IdentityFromContext(c *fiber.Ctx) (string, bool) {
	val := c.Locals(identityKey)
	email, ok := val.(string)
	return email, ok && email != ""
}
