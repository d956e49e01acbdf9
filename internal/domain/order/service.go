package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// ErrAmountTooSmall rejects orders below MinAmount minor units.
var ErrAmountTooSmall = fmt.Errorf("amount must be at least %d", MinAmount)

const defaultCurrency = "INR"

// CreateOrderRequest holds the input for creating an order. MerchantID comes
// from the authenticated caller, never from the request body.
type CreateOrderRequest struct {
	MerchantID string
	Amount     int64
	Currency   string
	Receipt    string
	Notes      string
}

// Service encapsulates order creation and lookup business logic.
type Service struct {
	orders Repository
	now    func() time.Time
}

// NewService creates an order Service backed by the given repository.
func NewService(orders Repository) *Service {
	return &Service{
		orders: orders,
		now:    time.Now,
	}
}

// Create validates the amount, assigns an identifier, and persists the order
// in the created status.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if req.Amount < MinAmount {
		return nil, ErrAmountTooSmall
	}

	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	o := &Order{
		ID:         NewID("order_"),
		MerchantID: req.MerchantID,
		Amount:     req.Amount,
		Currency:   currency,
		Receipt:    req.Receipt,
		Notes:      req.Notes,
		Status:     StatusCreated,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// Get returns the order identified by id if it belongs to merchantID.
func (s *Service) Get(ctx context.Context, id, merchantID string) (*Order, error) {
	return s.orders.GetForMerchant(ctx, id, merchantID)
}

// GetPublic returns the order identified by id without an ownership check.
// The API layer exposes only a trimmed view of it to checkout pages.
func (s *Service) GetPublic(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// NewID returns prefix followed by 16 hex characters from 8 random bytes.
func NewID(prefix string) string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return prefix + hex.EncodeToString(b[:])
}
