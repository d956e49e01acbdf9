package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/paygate-challenge/internal/domain/merchant"
)

const (
	getMerchantByAPIKeySQL = `SELECT id, email, api_key, secret_hash, created_at
		FROM merchants WHERE api_key = $1 AND active = TRUE`

	getMerchantByEmailSQL = `SELECT id, email, api_key, secret_hash, created_at
		FROM merchants WHERE email = $1 AND active = TRUE`

	upsertMerchantSQL = `INSERT INTO merchants (id, email, api_key, secret_hash, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (email) DO UPDATE SET api_key = EXCLUDED.api_key, secret_hash = EXCLUDED.secret_hash`
)

var _ merchant.Repository = (*MerchantRepository)(nil)

// MerchantRepository implements merchant.Repository backed by PostgreSQL.
type MerchantRepository struct {
	pool *pgxpool.Pool
}

// NewMerchantRepository returns a MerchantRepository that uses the given pool.
func NewMerchantRepository(pool *pgxpool.Pool) *MerchantRepository {
	return &MerchantRepository{pool: pool}
}

// FindByAPIKey looks up an active merchant by API key.
func (r *MerchantRepository) FindByAPIKey(ctx context.Context, apiKey string) (*merchant.Merchant, error) {
	return r.getOne(ctx, getMerchantByAPIKeySQL, apiKey)
}

// FindByEmail looks up an active merchant by registered email.
func (r *MerchantRepository) FindByEmail(ctx context.Context, email string) (*merchant.Merchant, error) {
	return r.getOne(ctx, getMerchantByEmailSQL, email)
}

// Upsert inserts or refreshes a merchant record, keyed by email. Used by the
// seed and ingest tools.
func (r *MerchantRepository) Upsert(ctx context.Context, m *merchant.Merchant) error {
	_, err := r.pool.Exec(ctx, upsertMerchantSQL, m.ID, m.Email, m.APIKey, m.SecretHash)
	if err != nil {
		return fmt.Errorf("upserting merchant %q: %w", m.Email, err)
	}
	return nil
}

func (r *MerchantRepository) getOne(ctx context.Context, sql string, args ...any) (*merchant.Merchant, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("getting merchant: %w", err)
	}

	m, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (merchant.Merchant, error) {
		var m merchant.Merchant
		err := row.Scan(&m.ID, &m.Email, &m.APIKey, &m.SecretHash, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, merchant.ErrNotFound
		}
		return nil, fmt.Errorf("getting merchant: %w", err)
	}
	return &m, nil
}
