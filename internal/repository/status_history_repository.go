package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// StatusHistoryRepository stores the append-only status timeline.
type StatusHistoryRepository interface {
	Append(ctx context.Context, change *domain.StatusChange) error
	ListByIssue(ctx context.Context, issueID string) ([]domain.StatusChange, error)
}

type statusHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewStatusHistoryRepository builds the repository.
func NewStatusHistoryRepository(pool *pgxpool.Pool) StatusHistoryRepository {
	return &statusHistoryRepository{pool: pool}
}

func (r *statusHistoryRepository) Append(ctx context.Context, change *domain.StatusChange) error {
	const query = `
        INSERT INTO issue_status_history (issue_id, status, changed_by)
        VALUES ($1,$2,$3)
        RETURNING id, changed_at`
	return r.pool.QueryRow(ctx, query,
		change.IssueID,
		change.Status,
		change.ChangedBy,
	).Scan(&change.ID, &change.ChangedAt)
}

func (r *statusHistoryRepository) ListByIssue(ctx context.Context, issueID string) ([]domain.StatusChange, error) {
	const query = `
        SELECT id, issue_id, status, changed_by, changed_at
        FROM issue_status_history WHERE issue_id=$1 ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusChange
	for rows.Next() {
		var change domain.StatusChange
		if err := rows.Scan(
			&change.ID,
			&change.IssueID,
			&change.Status,
			&change.ChangedBy,
			&change.ChangedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, change)
	}
	return result, rows.Err()
}
