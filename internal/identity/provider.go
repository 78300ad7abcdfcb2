package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/civic-issue-service/internal/config"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// Provider is the embedded identity provider: bcrypt-hashed credentials in the
// identity_accounts table and HS256 bearer tokens. It implements Gateway.
type Provider struct {
	pool       *pgxpool.Pool
	tokens     *TokenManager
	bcryptCost int
}

// NewProvider constructs the provider from config.
func NewProvider(pool *pgxpool.Pool, cfg config.IdentityConfig) *Provider {
	return &Provider{
		pool:       pool,
		tokens:     NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// Verify resolves a bearer token to its verified email.
func (p *Provider) Verify(_ context.Context, token string) (string, error) {
	email, err := p.tokens.Parse(token)
	if err != nil {
		return "", apperrors.NewUnauthorized("invalid token")
	}
	return email, nil
}

// CreateAccount provisions credentials for a new identity.
func (p *Provider) CreateAccount(ctx context.Context, input CreateAccountInput) (string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Secret == "" {
		return "", apperrors.NewInvalidArgument("email and secret required", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Secret), p.bcryptCost)
	if err != nil {
		return "", err
	}

	const query = `
        INSERT INTO identity_accounts (email, secret_hash, display_name, photo_url)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (email) DO NOTHING
        RETURNING id`

	var id string
	err = p.pool.QueryRow(ctx, query, email, string(hash), input.DisplayName, input.PhotoURL).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperrors.NewAlreadyExists("identity", map[string]any{"email": email})
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// IssueToken authenticates credentials and mints a bearer token.
func (p *Provider) IssueToken(ctx context.Context, email, secret string) (string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var hash string
	err := p.pool.QueryRow(ctx, `SELECT secret_hash FROM identity_accounts WHERE email=$1`, email).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return "", time.Time{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	return p.tokens.Generate(email)
}
