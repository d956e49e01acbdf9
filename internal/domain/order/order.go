package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// StatusCreated is the only status this service assigns to an order; later
// transitions are driven by payment settlement downstream.
const StatusCreated = "created"

// MinAmount is the smallest accepted order amount, in minor currency units.
const MinAmount = 100

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Order is a merchant's request to collect a payment. Immutable once created
// except for settlement-driven status transitions.
type Order struct {
	ID         string
	MerchantID string
	// Amount is an integer in minor currency units (e.g. paise).
	Amount    int64
	Currency  string
	Receipt   string
	Notes     string
	Status    string
	CreatedAt time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	// GetByID returns the order regardless of owning merchant, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Order, error)
	// GetForMerchant returns the order only if it belongs to merchantID, or
	// ErrNotFound.
	GetForMerchant(ctx context.Context, id, merchantID string) (*Order, error)
}
