package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mintslip-workers/internal/models"
)

var ErrPaymentNotFound = errors.New("payment not found")

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Insert records a checkout. Inserting the same reference twice is a no-op.
func (r *PaymentRepository) Insert(ctx context.Context, p *models.Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (reference, provider, idempotency_key, user_id, amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (reference) DO NOTHING`,
		p.Reference, string(p.Provider), p.IdempotencyKey, p.UserID,
		p.Amount, p.Currency, string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment %s: %w", p.Reference, err)
	}
	return nil
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, reference string, status models.PaymentStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = $1, updated_at = $2 WHERE reference = $3`,
		string(status), time.Now().UTC(), reference,
	)
	if err != nil {
		return fmt.Errorf("update payment %s: %w", reference, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrPaymentNotFound, reference)
	}
	return nil
}

func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var p models.Payment
	var provider, status string
	err := r.db.QueryRowContext(ctx, `
		SELECT reference, provider, idempotency_key, user_id, amount, currency, status, created_at, updated_at
		FROM payments
		WHERE reference = $1`, reference).Scan(
		&p.Reference, &provider, &p.IdempotencyKey, &p.UserID,
		&p.Amount, &p.Currency, &status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrPaymentNotFound, reference)
		}
		return nil, fmt.Errorf("query payment %s: %w", reference, err)
	}
	p.Provider = models.PaymentProvider(provider)
	p.Status = models.PaymentStatus(status)
	return &p, nil
}
