package order

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOrderRepo struct {
	lastOrder *Order
	err       error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.lastOrder = o
	return m.err
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	if m.lastOrder != nil && m.lastOrder.ID == id {
		return m.lastOrder, nil
	}
	return nil, ErrNotFound
}

func (m *mockOrderRepo) GetForMerchant(_ context.Context, id, merchantID string) (*Order, error) {
	o, err := m.GetByID(context.Background(), id)
	if err != nil || o.MerchantID != merchantID {
		return nil, ErrNotFound
	}
	return o, nil
}

func TestCreate_AmountBelowMinimum(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateOrderRequest{
		MerchantID: "merch_1",
		Amount:     99,
	})

	require.ErrorIs(t, err, ErrAmountTooSmall)
	assert.Nil(t, repo.lastOrder)
}

func TestCreate_MinimumAmountAccepted(t *testing.T) {
	svc := NewService(&mockOrderRepo{})

	o, err := svc.Create(context.Background(), CreateOrderRequest{
		MerchantID: "merch_1",
		Amount:     100,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(100), o.Amount)
}

func TestCreate_Defaults(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewService(repo)
	svc.now = func() time.Time {
		return time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	}

	o, err := svc.Create(context.Background(), CreateOrderRequest{
		MerchantID: "merch_1",
		Amount:     500,
		Receipt:    "rcpt-42",
	})

	require.NoError(t, err)
	assert.Equal(t, "INR", o.Currency)
	assert.Equal(t, StatusCreated, o.Status)
	assert.Equal(t, "merch_1", o.MerchantID)
	assert.Equal(t, "rcpt-42", o.Receipt)
	assert.True(t, strings.HasPrefix(o.ID, "order_"))
	assert.Len(t, o.ID, len("order_")+16)
	assert.Equal(t, svc.now(), o.CreatedAt)
	assert.Same(t, o, repo.lastOrder)
}

func TestCreate_ExplicitCurrencyKept(t *testing.T) {
	svc := NewService(&mockOrderRepo{})

	o, err := svc.Create(context.Background(), CreateOrderRequest{
		MerchantID: "merch_1",
		Amount:     500,
		Currency:   "USD",
	})

	require.NoError(t, err)
	assert.Equal(t, "USD", o.Currency)
}

func TestCreate_RepositoryError(t *testing.T) {
	svc := NewService(&mockOrderRepo{err: errors.New("db write failed")})

	_, err := svc.Create(context.Background(), CreateOrderRequest{
		MerchantID: "merch_1",
		Amount:     500,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}

func TestNewID(t *testing.T) {
	a, b := NewID("pay_"), NewID("pay_")
	assert.True(t, strings.HasPrefix(a, "pay_"))
	assert.Len(t, a, len("pay_")+16)
	assert.NotEqual(t, a, b)
}
