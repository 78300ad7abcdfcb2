package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// PaymentRepository is the append-only settlement ledger.
type PaymentRepository interface {
	InsertIfAbsent(ctx context.Context, payment *domain.Payment) (bool, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*domain.Payment, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Payment, error)
}

type paymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository instantiates the repository.
func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

// InsertIfAbsent records a settlement unless one already exists for the same
// external payment id. The unique index on payment_id is the serialization
// point: under concurrent confirmation attempts at most one insert wins, and
// only the winner applies domain side effects. Returns false when a row for
// the payment id was already present.
func (r *paymentRepository) InsertIfAbsent(ctx context.Context, payment *domain.Payment) (bool, error) {
	const query = `
        INSERT INTO payments (payment_id, user_id, issue_id, amount, currency, payment_type, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (payment_id) DO NOTHING
        RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		payment.PaymentID,
		payment.UserID,
		payment.IssueID,
		payment.Amount,
		payment.Currency,
		payment.PaymentType,
		payment.Status,
	).Scan(&payment.ID, &payment.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *paymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	const query = `
        SELECT id, payment_id, user_id, issue_id, amount, currency, payment_type, status, created_at
        FROM payments WHERE payment_id=$1`

	var payment domain.Payment
	if err := r.pool.QueryRow(ctx, query, paymentID).Scan(
		&payment.ID,
		&payment.PaymentID,
		&payment.UserID,
		&payment.IssueID,
		&payment.Amount,
		&payment.Currency,
		&payment.PaymentType,
		&payment.Status,
		&payment.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, payment_id, user_id, issue_id, amount, currency, payment_type, status, created_at
        FROM payments WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Payment
	for rows.Next() {
		var payment domain.Payment
		if err := rows.Scan(
			&payment.ID,
			&payment.PaymentID,
			&payment.UserID,
			&payment.IssueID,
			&payment.Amount,
			&payment.Currency,
			&payment.PaymentType,
			&payment.Status,
			&payment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, payment)
	}
	return result, rows.Err()
}
