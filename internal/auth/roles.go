package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// Guard authorizes state-changing operations by mapping a verified identity
// to its role. A missing user record means no privilege, not an error.
type Guard struct {
	users repository.UserRepository
	cache *RoleCache
}

// NewGuard constructs the guard.
func NewGuard(users repository.UserRepository, cache *RoleCache) *Guard {
	return &Guard{users: users, cache: cache}
}

// RequireRole ensures the verified identity holds one of the allowed roles.
// Blocked accounts are rejected regardless of role.
func (g *Guard) RequireRole(allowed ...domain.UserRole) fiber.Handler {
	allowedSet := make(map[domain.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		email, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}

		role, blocked, err := g.resolveRole(c.UserContext(), email)
		if err != nil {
			return err
		}
		if blocked {
			return apperrors.NewForbidden("account is blocked")
		}
		if len(allowedSet) > 0 {
			if _, exists := allowedSet[role]; !exists {
				return apperrors.NewForbidden("insufficient role")
			}
		}
		return c.Next()
	}
}

func (g *Guard) resolveRole(ctx context.Context, email string) (domain.UserRole, bool, error) {
	if role, blocked, hit := g.cache.Get(ctx, email); hit {
		return role, blocked, nil
	}

	user, err := g.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, apperrors.NewForbidden("no privilege for identity")
	}
	if err != nil {
		return "", false, apperrors.MapError(err)
	}

	g.cache.Set(ctx, email, user.Role, user.IsBlocked)
	return user.Role, user.IsBlocked, nil
}
