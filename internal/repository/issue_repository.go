package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// IssueFilter captures listing parameters.
type IssueFilter struct {
	ReportedBy *string
	AssignedTo *string
	Statuses   []domain.IssueStatus
	Priority   *domain.IssuePriority
	Category   *string
	Limit      int
	Offset     int
}

// IssuePatch holds the mutable correction fields. Nil members are left
// untouched; everything else on an issue changes only through its dedicated
// lifecycle operation.
type IssuePatch struct {
	Title       *string
	Description *string
	Category    *string
	Location    *string
}

// Empty reports whether the patch changes nothing.
func (p IssuePatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil && p.Location == nil
}

// IssueRepository encapsulates issue persistence.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	List(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	SetStatus(ctx context.Context, id string, status domain.IssueStatus) error
	Assign(ctx context.Context, id, staffEmail string, at time.Time) error
	Boost(ctx context.Context, id string, boostedAt *time.Time) error
	ApplyPatch(ctx context.Context, id string, patch IssuePatch) error
	Delete(ctx context.Context, id string) error
	AddUpvote(ctx context.Context, id, voterEmail string) (bool, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates the repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, title, description, category, location, reported_by, status, priority,
               assigned_to, assigned_at, boosted_at, upvote_count, created_at, updated_at`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (title, description, category, location, reported_by, status, priority)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Location,
		issue.ReportedBy,
		issue.Status,
		issue.Priority,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE id=$1`, issueColumns)
	var issue domain.Issue
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&issue.Category,
		&issue.Location,
		&issue.ReportedBy,
		&issue.Status,
		&issue.Priority,
		&issue.AssignedTo,
		&issue.AssignedAt,
		&issue.BoostedAt,
		&issue.UpvoteCount,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *issueRepository) List(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	base := fmt.Sprintf(`SELECT %s FROM issues`, issueColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReportedBy != nil {
		args = append(args, *filter.ReportedBy)
		clauses = append(clauses, fmt.Sprintf("reported_by=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY priority='HIGH' DESC, created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) SetStatus(ctx context.Context, id string, status domain.IssueStatus) error {
	const query = `UPDATE issues SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) Assign(ctx context.Context, id, staffEmail string, at time.Time) error {
	const query = `
        UPDATE issues SET assigned_to=$1, assigned_at=$2, status=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query, staffEmail, at, domain.IssueStatusAssigned, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) Boost(ctx context.Context, id string, boostedAt *time.Time) error {
	const query = `
        UPDATE issues SET priority=$1, boosted_at=COALESCE($2, boosted_at), updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, domain.IssuePriorityHigh, boostedAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) ApplyPatch(ctx context.Context, id string, patch IssuePatch) error {
	sets := []string{"updated_at=NOW()"}
	args := []any{}

	if patch.Title != nil {
		args = append(args, *patch.Title)
		sets = append(sets, fmt.Sprintf("title=$%d", len(args)))
	}
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, fmt.Sprintf("description=$%d", len(args)))
	}
	if patch.Category != nil {
		args = append(args, *patch.Category)
		sets = append(sets, fmt.Sprintf("category=$%d", len(args)))
	}
	if patch.Location != nil {
		args = append(args, *patch.Location)
		sets = append(sets, fmt.Sprintf("location=$%d", len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE issues SET %s WHERE id=$%d`, strings.Join(sets, ", "), len(args))
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM issues WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AddUpvote registers a vote and bumps the counter in one transaction. The
// membership check and the insert are the same statement: the primary key on
// (issue_id, voter_email) plus ON CONFLICT DO NOTHING makes the write
// conditional, so concurrent duplicate votes cannot both increment the count.
// Returns false when the voter had already voted.
func (r *issueRepository) AddUpvote(ctx context.Context, id, voterEmail string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx, `
        INSERT INTO issue_upvotes (issue_id, voter_email)
        VALUES ($1, $2)
        ON CONFLICT (issue_id, voter_email) DO NOTHING`, id, voterEmail)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() == 0 {
		return false, tx.Commit(ctx)
	}

	cmd, err = tx.Exec(ctx, `
        UPDATE issues SET upvote_count = upvote_count + 1, updated_at=NOW()
        WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() == 0 {
		return false, pgx.ErrNoRows
	}
	return true, tx.Commit(ctx)
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		if err := rows.Scan(
			&issue.ID,
			&issue.Title,
			&issue.Description,
			&issue.Category,
			&issue.Location,
			&issue.ReportedBy,
			&issue.Status,
			&issue.Priority,
			&issue.AssignedTo,
			&issue.AssignedAt,
			&issue.BoostedAt,
			&issue.UpvoteCount,
			&issue.CreatedAt,
			&issue.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, issue)
	}
	return result, rows.Err()
}
