package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/identity"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// UserService coordinates account workflows: idempotent registration, role
// and block management, and privileged staff registration.
type UserService struct {
	users     repository.UserRepository
	gateway   identity.Gateway
	roleCache *auth.RoleCache
	logger    *zap.Logger
}

// UserDependencies bundles requirements for the user service.
type UserDependencies struct {
	UserRepo  repository.UserRepository
	Gateway   identity.Gateway
	RoleCache *auth.RoleCache
	Logger    *zap.Logger
}

// StaffRegistrationInput describes the admin-only privileged creation path.
type StaffRegistrationInput struct {
	Name        string
	Email       string
	Secret      string
	DisplayName string
	PhotoURL    string
}

// UserListFilter describes listing filters.
type UserListFilter struct {
	Role    *domain.UserRole
	Blocked *bool
	Premium *bool
	Limit   int
	Offset  int
}

// NewUserService builds the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:     deps.UserRepo,
		gateway:   deps.Gateway,
		roleCache: deps.RoleCache,
		logger:    deps.Logger,
	}
}

// Register creates a user on first call and is a no-op on repeats: a second
// registration for the same email returns the existing record with
// created=false, never resetting counters or flags.
func (s *UserService) Register(ctx context.Context, email, name string) (*domain.User, bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, false, apperrors.NewInvalidArgument("email required", nil)
	}

	user := &domain.User{
		Name:  strings.TrimSpace(name),
		Email: email,
		Role:  domain.UserRoleCitizen,
	}
	created, err := s.users.CreateIfAbsent(ctx, user)
	if err != nil {
		return nil, false, apperrors.MapError(err)
	}
	if created {
		return user, true, nil
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, apperrors.MapError(err)
	}
	return existing, false, nil
}

// Login authenticates against the identity provider and mints a bearer token.
func (s *UserService) Login(ctx context.Context, email, secret string) (string, time.Time, error) {
	return s.gateway.IssueToken(ctx, normalizeEmail(email), secret)
}

// GetByEmail fetches a user record.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, userError(err)
	}
	return user, nil
}

// GetRole resolves the role for an email. A missing record maps to citizen
// privileges absent, reported as NotFound to the directory caller.
func (s *UserService) GetRole(ctx context.Context, email string) (domain.UserRole, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

// List returns users matching the filter.
func (s *UserService) List(ctx context.Context, filter UserListFilter) ([]domain.User, error) {
	users, err := s.users.List(ctx, repository.UserFilter{
		Role:    filter.Role,
		Blocked: filter.Blocked,
		Premium: filter.Premium,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// UpdateProfile changes mutable profile fields for a user.
func (s *UserService) UpdateProfile(ctx context.Context, email, name string) (*domain.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewInvalidArgument("name required", nil)
	}
	if err := s.users.UpdateName(ctx, email, name); err != nil {
		return nil, userError(err)
	}
	return s.GetByEmail(ctx, email)
}

// ChangeRole sets a user's role (admin-only at the boundary) and drops the
// cached role entry.
func (s *UserService) ChangeRole(ctx context.Context, email string, role domain.UserRole) error {
	email = normalizeEmail(email)
	if !domain.ValidUserRole(role) {
		return apperrors.NewInvalidArgument("unknown role", map[string]any{"role": string(role)})
	}
	if err := s.users.UpdateRole(ctx, email, role); err != nil {
		return userError(err)
	}
	s.roleCache.Invalidate(ctx, email)
	return nil
}

// SetBlocked toggles the block flag and drops the cached role entry.
func (s *UserService) SetBlocked(ctx context.Context, email string, blocked bool) error {
	email = normalizeEmail(email)
	if err := s.users.SetBlocked(ctx, email, blocked); err != nil {
		return userError(err)
	}
	s.roleCache.Invalidate(ctx, email)
	return nil
}

// RegisterStaff runs the privileged creation path: an identity-provider
// account followed by a user record with the staff role. The two writes are
// not transactional; a failure in between leaves an orphaned identity, which
// is logged for manual cleanup.
func (s *UserService) RegisterStaff(ctx context.Context, input StaffRegistrationInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Secret == "" {
		return nil, apperrors.NewInvalidArgument("email and secret required", nil)
	}

	if _, err := s.gateway.CreateAccount(ctx, identity.CreateAccountInput{
		Email:       email,
		Secret:      input.Secret,
		DisplayName: input.DisplayName,
		PhotoURL:    input.PhotoURL,
	}); err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:  strings.TrimSpace(input.Name),
		Email: email,
		Role:  domain.UserRoleStaff,
	}
	created, err := s.users.CreateIfAbsent(ctx, user)
	if err != nil {
		s.logger.Error("identity created but user record failed; orphaned identity",
			zap.String("email", email),
			zap.Error(err))
		return nil, apperrors.MapError(err)
	}
	if !created {
		// Account pre-existed as a citizen; promote it instead.
		if err := s.users.UpdateRole(ctx, email, domain.UserRoleStaff); err != nil {
			return nil, userError(err)
		}
		s.roleCache.Invalidate(ctx, email)
		return s.GetByEmail(ctx, email)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func userError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("user", nil)
	}
	return apperrors.MapError(err)
}
