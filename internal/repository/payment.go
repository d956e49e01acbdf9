package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/paygate-challenge/internal/domain/payment"
	"github.com/xenking/paygate-challenge/internal/instrument"
)

const (
	createPaymentSQL = `INSERT INTO payments
		(id, order_id, merchant_id, amount, currency, method, status, vpa, card_network, card_last4, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	// Guarded on status so a terminal payment can never transition again.
	updateTerminalSQL = `UPDATE payments
		SET status = $2, error_code = $3, error_description = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'`

	getPaymentByIDSQL = `SELECT id, order_id, merchant_id, amount, currency, method, status,
		vpa, card_network, card_last4, error_code, error_description, created_at, updated_at
		FROM payments WHERE id = $1`

	merchantStatsSQL = `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN status = 'success' THEN amount ELSE 0 END), 0),
		COUNT(*) FILTER (WHERE status = 'success')
		FROM payments WHERE merchant_id = $1`

	recentPaymentsSQL = `SELECT id, order_id, amount, method, status, created_at
		FROM payments WHERE merchant_id = $1
		ORDER BY created_at DESC LIMIT $2`
)

var (
	_ payment.Repository          = (*PaymentRepository)(nil)
	_ payment.DashboardRepository = (*PaymentRepository)(nil)
)

// PaymentRepository implements payment.Repository and
// payment.DashboardRepository backed by PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a PaymentRepository that uses the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create persists a new payment in its processing state.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	_, err := r.pool.Exec(ctx, createPaymentSQL,
		p.ID, p.OrderID, p.MerchantID, p.Amount, p.Currency, p.Method, p.Status,
		p.VPA, string(p.CardNetwork), p.CardLast4, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating payment %q: %w", p.ID, err)
	}

	return nil
}

// UpdateTerminal records the one-way transition out of processing.
func (r *PaymentRepository) UpdateTerminal(ctx context.Context, id, status, errorCode, errorDesc string) error {
	_, err := r.pool.Exec(ctx, updateTerminalSQL, id, status, errorCode, errorDesc)
	if err != nil {
		return fmt.Errorf("updating payment %q to %s: %w", id, status, err)
	}
	return nil
}

// GetByID returns a single payment by its identifier.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*payment.Payment, error) {
	rows, err := r.pool.Query(ctx, getPaymentByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting payment %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPayment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrNotFound
		}
		return nil, fmt.Errorf("getting payment %q: %w", id, err)
	}
	return &p, nil
}

// Stats returns the dashboard rollup for a merchant.
func (r *PaymentRepository) Stats(ctx context.Context, merchantID string) (payment.Stats, error) {
	var (
		s       payment.Stats
		success int64
	)
	err := r.pool.QueryRow(ctx, merchantStatsSQL, merchantID).Scan(
		&s.TotalTransactions, &s.TotalAmount, &success,
	)
	if err != nil {
		return payment.Stats{}, fmt.Errorf("merchant stats for %q: %w", merchantID, err)
	}

	if s.TotalTransactions > 0 {
		// Round to the nearest whole percent.
		s.SuccessRate = (success*100 + s.TotalTransactions/2) / s.TotalTransactions
	}
	return s, nil
}

// ListRecent returns the merchant's most recent payments, newest first.
func (r *PaymentRepository) ListRecent(ctx context.Context, merchantID string, limit int) ([]payment.Recent, error) {
	rows, err := r.pool.Query(ctx, recentPaymentsSQL, merchantID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent payments for %q: %w", merchantID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (payment.Recent, error) {
		var p payment.Recent
		err := row.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Status, &p.CreatedAt)
		return p, err
	})
}

func scanPayment(row pgx.CollectableRow) (payment.Payment, error) {
	var (
		p       payment.Payment
		network string
	)
	err := row.Scan(
		&p.ID, &p.OrderID, &p.MerchantID, &p.Amount, &p.Currency, &p.Method, &p.Status,
		&p.VPA, &network, &p.CardLast4, &p.ErrorCode, &p.ErrorDesc, &p.CreatedAt, &p.UpdatedAt,
	)
	p.CardNetwork = instrument.Network(network)
	return p, err
}
