package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/paygate-challenge/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, merchant_id, amount, currency, receipt, notes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getOrderByIDSQL = `SELECT id, merchant_id, amount, currency, receipt, notes, status, created_at
		FROM orders WHERE id = $1`

	getOrderForMerchantSQL = `SELECT id, merchant_id, amount, currency, receipt, notes, status, created_at
		FROM orders WHERE id = $1 AND merchant_id = $2`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.MerchantID, o.Amount, o.Currency, o.Receipt, o.Notes, o.Status, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	return nil
}

// GetByID returns the order regardless of owning merchant.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return r.getOne(ctx, getOrderByIDSQL, id)
}

// GetForMerchant returns the order only when it belongs to merchantID.
func (r *OrderRepository) GetForMerchant(ctx context.Context, id, merchantID string) (*order.Order, error) {
	return r.getOne(ctx, getOrderForMerchantSQL, id, merchantID)
}

func (r *OrderRepository) getOne(ctx context.Context, sql string, args ...any) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order: %w", err)
	}
	return &o, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.MerchantID, &o.Amount, &o.Currency,
		&o.Receipt, &o.Notes, &o.Status, &o.CreatedAt,
	)
	return o, err
}
