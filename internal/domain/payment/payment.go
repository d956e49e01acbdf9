package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/paygate-challenge/internal/instrument"
)

// Payment methods accepted by the gateway.
const (
	MethodUPI  = "upi"
	MethodCard = "card"
)

// Payment statuses. A payment is created processing and transitions exactly
// once to success or failed.
const (
	StatusProcessing = "processing"
	StatusSuccess    = "success"
	StatusFailed     = "failed"
)

// Error code and description recorded on a declined payment.
const (
	FailureCode        = "PAYMENT_FAILED"
	FailureDescription = "Payment validation failed at bank"
)

// Validation and lookup errors surfaced to the caller before any persistence
// happens.
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	ErrInvalidVPA        = errors.New("invalid VPA format")
	ErrInvalidCard       = errors.New("invalid card number")
	ErrExpiredCard       = errors.New("card expired")
	ErrNotFound          = errors.New("payment not found")
)

// Payment records a single settlement attempt against an order. Amount and
// currency are always copied from the order, never taken from the payer.
// For card payments only the network classification and last four digits are
// kept; the full number and CVV are never stored.
type Payment struct {
	ID          string
	OrderID     string
	MerchantID  string
	Amount      int64
	Currency    string
	Method      string
	Status      string
	VPA         string
	CardNetwork instrument.Network
	CardLast4   string
	ErrorCode   string
	ErrorDesc   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Stats is the dashboard rollup over a merchant's payments.
type Stats struct {
	TotalTransactions int64
	// TotalAmount is the sum of successful payment amounts, in minor units.
	TotalAmount int64
	// SuccessRate is the percentage of successful payments, rounded to the
	// nearest integer. Zero when there are no payments.
	SuccessRate int64
}

// Recent is the trimmed payment view listed on the merchant dashboard.
type Recent struct {
	ID        string
	OrderID   string
	Amount    int64
	Method    string
	Status    string
	CreatedAt time.Time
}

// Repository defines persistence operations for payments. Implementations
// live outside this package; the service only depends on this contract.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	// UpdateTerminal records the one-way transition out of processing.
	// errorCode and errorDesc are empty for a successful payment.
	UpdateTerminal(ctx context.Context, id, status, errorCode, errorDesc string) error
	// GetByID returns the payment, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Payment, error)
}

// DashboardRepository serves the merchant dashboard rollup. Kept separate
// from Repository: the settlement pipeline never needs it.
type DashboardRepository interface {
	Stats(ctx context.Context, merchantID string) (Stats, error)
	ListRecent(ctx context.Context, merchantID string, limit int) ([]Recent, error)
}
