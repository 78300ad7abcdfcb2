package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// UserFilter defines query params for user listing.
type UserFilter struct {
	Role    *domain.UserRole
	Blocked *bool
	Premium *bool
	Limit   int
	Offset  int
}

// UserRepository defines persistence access for registered accounts.
type UserRepository interface {
	CreateIfAbsent(ctx context.Context, user *domain.User) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	UpdateName(ctx context.Context, email, name string) error
	UpdateRole(ctx context.Context, email string, role domain.UserRole) error
	SetBlocked(ctx context.Context, email string, blocked bool) error
	ActivatePremium(ctx context.Context, id string) error
	IncrementIssuesReported(ctx context.Context, email string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, email, role, issues_reported, is_premium, is_blocked,
               subscription_date, created_at, updated_at`

// CreateIfAbsent inserts the user unless the email is already registered.
// The unique index on email makes the insert conditional, so concurrent
// registrations for the same email cannot create two rows. Returns false when
// the user already existed; the caller fetches the existing record.
func (r *userRepository) CreateIfAbsent(ctx context.Context, user *domain.User) (bool, error) {
	const query = `
        INSERT INTO users (name, email, role)
        VALUES ($1, $2, $3)
        ON CONFLICT (email) DO NOTHING
        RETURNING id, issues_reported, is_premium, is_blocked, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.Role,
	).Scan(&user.ID, &user.IssuesReported, &user.IsPremium, &user.IsBlocked, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id=$1`, userColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email=$1`, userColumns)
	return r.fetchSingle(ctx, query, email)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.IssuesReported,
		&user.IsPremium,
		&user.IsBlocked,
		&user.SubscriptionDate,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users`, userColumns)
	args := []any{}
	clauses := []string{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.Blocked != nil {
		args = append(args, *filter.Blocked)
		clauses = append(clauses, fmt.Sprintf("is_blocked=$%d", len(args)))
	}
	if filter.Premium != nil {
		args = append(args, *filter.Premium)
		clauses = append(clauses, fmt.Sprintf("is_premium=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Role,
			&user.IssuesReported,
			&user.IsPremium,
			&user.IsBlocked,
			&user.SubscriptionDate,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userRepository) UpdateName(ctx context.Context, email, name string) error {
	return r.exec(ctx, `UPDATE users SET name=$1, updated_at=NOW() WHERE email=$2`, name, email)
}

func (r *userRepository) UpdateRole(ctx context.Context, email string, role domain.UserRole) error {
	return r.exec(ctx, `UPDATE users SET role=$1, updated_at=NOW() WHERE email=$2`, role, email)
}

func (r *userRepository) SetBlocked(ctx context.Context, email string, blocked bool) error {
	return r.exec(ctx, `UPDATE users SET is_blocked=$1, updated_at=NOW() WHERE email=$2`, blocked, email)
}

// ActivatePremium flips the premium flag. The subscription date is set once;
// repeated activation keeps the original date.
func (r *userRepository) ActivatePremium(ctx context.Context, id string) error {
	return r.exec(ctx, `
        UPDATE users SET is_premium=TRUE, subscription_date=COALESCE(subscription_date, NOW()), updated_at=NOW()
        WHERE id=$1`, id)
}

func (r *userRepository) IncrementIssuesReported(ctx context.Context, email string) error {
	return r.exec(ctx, `
        UPDATE users SET issues_reported = issues_reported + 1, updated_at=NOW()
        WHERE email=$1`, email)
}

func (r *userRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
